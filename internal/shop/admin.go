package shop

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"cartkeeper/internal/store"
	"cartkeeper/pkg/kit"
)

type backupReq struct {
	File string `json:"file"`
}

// backupName rejects empty names and path traversal out of the working
// directory.
func backupName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", false
	}
	return clean, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Svc.Statistics())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.Svc.ExportData()
	if err != nil {
		kit.WriteError(w, r, http.StatusInternalServerError, "export failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(data))
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	var req backupReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	name, ok := backupName(req.File)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad backup file name", nil)
		return
	}

	if err := s.Svc.CreateBackup(name); err != nil {
		kit.WriteError(w, r, http.StatusBadGateway, "backup failed", map[string]any{"file": name})
		return
	}
	kit.WriteMessage(w, http.StatusOK, "backup created: "+name)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req backupReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	name, ok := backupName(req.File)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad backup file name", nil)
		return
	}

	if err := s.Svc.RestoreBackup(name); err != nil {
		if errors.Is(err, store.ErrPersistence) {
			kit.WriteError(w, r, http.StatusBadGateway, "restore failed", map[string]any{"file": name})
			return
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteMessage(w, http.StatusOK, "data restored from: "+name)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	s.Svc.ClearAllData()
	kit.WriteMessage(w, http.StatusOK, "all data cleared")
}
