package shop

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cartkeeper/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Svc *Service
	Log *zap.Logger
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}

// writeServiceError maps the lifecycle error taxonomy onto HTTP
// statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidSession):
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid session", nil)
	case errors.Is(err, ErrInvalidCredentials):
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, ErrDuplicateUser):
		kit.WriteError(w, r, http.StatusConflict, "user already exists", nil)
	case errors.Is(err, ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "product not found", nil)
	case errors.Is(err, ErrInvalidQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid quantity", nil)
	case errors.Is(err, ErrEmptyCart):
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
	case errors.Is(err, ErrOrderNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "order not found", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// requestUser reads the username the session middleware injected.
func requestUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := UsernameFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
	}
	return username, ok
}

// Auth

type registerReq struct {
	Username string            `json:"username"`
	Password string            `json:"password"`
	Profile  map[string]string `json:"profile"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	if err := s.Svc.Register(req.Username, req.Password, req.Profile); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	sessionID, err := s.Svc.Login(req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, loginResp{SessionID: sessionID})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing session", nil)
		return
	}
	s.Svc.Logout(token)
	kit.WriteMessage(w, http.StatusOK, "logged out")
}

// Cart

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Svc.Cart(username))
}

type cartItemReq struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req cartItemReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if err := s.Svc.AddToCart(username, req.ProductID, req.Quantity); err != nil {
		writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Svc.Cart(username))
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req cartItemReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	s.Svc.UpdateCartItem(username, req.ProductID, req.Quantity)
	kit.WriteJSON(w, http.StatusOK, s.Svc.Cart(username))
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	productID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", nil)
		return
	}

	s.Svc.RemoveFromCart(username, productID)
	kit.WriteJSON(w, http.StatusOK, s.Svc.Cart(username))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}
	s.Svc.ClearCart(username)
	kit.WriteMessage(w, http.StatusOK, "cart cleared")
}

// Orders

type checkoutReq struct {
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req checkoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	o, err := s.Svc.Checkout(username, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Svc.Orders(username))
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad order id", nil)
		return
	}

	o, err := s.Svc.Order(id, username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, o)
}
