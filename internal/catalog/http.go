package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cartkeeper/pkg/kit"
)

type Server struct {
	Store *Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := Filter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
	}
	if raw := q.Get("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxPrice < 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad max_price", map[string]any{"max_price": raw})
			return
		}
		f.MaxPrice = maxPrice
	}

	kit.WriteJSON(w, http.StatusOK, s.Store.List(f))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", nil)
		return
	}

	p, ok := s.Store.Find(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}
