package backupmgr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
)

// HTTPHandler exposes the backup manager over HTTP.
type HTTPHandler struct {
	mu      sync.RWMutex
	manager *BackupManager
}

// NewHTTPHandler creates a handler bound to manager and registers it for manager reloads.
func NewHTTPHandler(manager *BackupManager) *HTTPHandler {
	h := &HTTPHandler{manager: manager}
	RegisterHTTPHandler(h)
	return h
}

func (h *HTTPHandler) setManager(m *BackupManager) {
	h.mu.Lock()
	h.manager = m
	h.mu.Unlock()
}

func (h *HTTPHandler) current() *BackupManager {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.manager
}

// ListBackupsHandler serves GET /api/v1/backups?limit=N
func (h *HTTPHandler) ListBackupsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m := h.current()
	if m == nil {
		http.Error(w, "backup manager not initialized", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	snapshots, err := m.ListBackups(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if snapshots == nil {
		snapshots = []Snapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// SnapshotNowHandler serves POST /api/v1/backups/snapshot?save=Name
func (h *HTTPHandler) SnapshotNowHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m := h.current()
	if m == nil {
		http.Error(w, "backup manager not initialized", http.StatusServiceUnavailable)
		return
	}

	archive, err := m.BackupNow(r.URL.Query().Get("save"))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSourceMissing):
			status = http.StatusNotFound
		case errors.Is(err, ErrDestinationExists):
			status = http.StatusConflict
		case errors.Is(err, ErrInvalidSave):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"archive": archive})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
