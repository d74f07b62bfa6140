// Package diagview serves the §12 diagnostic views as read-only JSON
// endpoints alongside the gRPC management API: the current quota
// configuration, the monitored-database set, and each database's
// blocklist.
package diagview

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/segmentdb/diskquota/pkg/launcher"
	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

// Server serves the diagnostic views over HTTP.
type Server struct {
	Store    storage.Store
	Launcher *launcher.Launcher
}

// NewServer builds a Server.
func NewServer(store storage.Store, l *launcher.Launcher) *Server {
	return &Server{Store: store, Launcher: l}
}

// Router builds the mux.Router serving this Server's views.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/quota_configs", s.showQuotaConfigs).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/quota_targets", s.showQuotaTargets).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/databases", s.showDatabases).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/databases/{id}/blocklist", s.showBlocklist).Methods(http.MethodGet)
	return r
}

func (s *Server) showQuotaConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.Store.ListQuotaConfigs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, configs)
}

func (s *Server) showQuotaTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.Store.ListQuotaTargets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, targets)
}

func (s *Server) showDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := s.Store.ListMonitoredDatabases()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, dbs)
}

func (s *Server) showBlocklist(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entries, err := s.Launcher.BlocklistSnapshot(types.DatabaseID(id))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	rows := make([]types.BlocklistEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entry)
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
