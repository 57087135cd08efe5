package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediabox/internal/api"
	"mediabox/internal/config"
	"mediabox/internal/logging"
	"mediabox/internal/preview"
	"mediabox/internal/queue"
	"mediabox/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.WithComponent(logger, "api"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/queue", srv.handleQueue)
	mux.HandleFunc("/api/queue/", srv.handleQueueItem)
	mux.HandleFunc("/api/inspect", srv.handleInspect)
	mux.HandleFunc("/api/preview/thumbnails", srv.handleThumbnails)
	mux.HandleFunc("/api/preview/waveform", srv.handleWaveform)
	mux.HandleFunc("/api/presets", srv.handlePresets)
	mux.Handle("/api/events", d.hub)

	srv.server = &http.Server{
		Handler:           srv.withRequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Sprite rendering on large files can run well past a minute.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// withRequestID stamps every request with an identifier that flows through
// logs and downstream service calls.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := services.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Version:     dep.Version,
			Detail:      dep.Detail,
		}
	}
	stats, err := s.daemon.QueueStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	workflow := api.WorkflowStatus{
		Running:    status.Workflow.Running,
		Halted:     status.Workflow.Halted,
		HaltReason: status.Workflow.HaltReason,
		LastError:  status.Workflow.LastError,
		QueueStats: map[string]int{
			"total":     stats.Total,
			"pending":   stats.Pending,
			"running":   stats.Running,
			"completed": stats.Completed,
			"failed":    stats.Failed,
		},
	}
	if status.Workflow.ActiveItem != nil {
		dto := api.FromQueueItem(status.Workflow.ActiveItem)
		workflow.ActiveItem = &dto
	}
	for _, health := range s.daemon.HandlerHealth(r.Context()) {
		workflow.HandlerHealth = append(workflow.HandlerHealth, api.HandlerHealth{
			Name:   health.Name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Workflow:     workflow,
		Database:     api.DatabaseHealth{Healthy: status.Database.Healthy, Detail: status.Database.Detail},
		Dependencies: deps,
	})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listQueue(w, r)
	case http.MethodPost:
		s.enqueue(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listQueue(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		status, err := queue.ParseStatus(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		statuses = append(statuses, status)
	}

	items, err := s.daemon.ListQueue(r.Context(), statuses)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]api.QueueItem, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, api.FromQueueItem(item))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": dtos})
}

func (s *apiServer) enqueue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskType   string          `json:"taskType"`
		SourcePath string          `json:"sourcePath"`
		SourceURL  string          `json:"sourceUrl"`
		Options    json.RawMessage `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	task, err := queue.ParseTaskType(req.TaskType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := s.daemon.Enqueue(r.Context(), task, req.SourcePath, req.SourceURL, req.Options)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"item": api.FromQueueItem(item)})
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue item id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := s.daemon.DescribeItem(r.Context(), id)
		if err != nil {
			s.writeQueueError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"item": api.FromQueueItem(item)})
	case http.MethodDelete:
		if err := s.daemon.RemoveItem(r.Context(), id); err != nil {
			s.writeQueueError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
	case http.MethodPatch:
		var req struct {
			Options json.RawMessage `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err := s.daemon.UpdateItemOptions(r.Context(), id, req.Options)
		if err != nil {
			s.writeQueueError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"item": api.FromQueueItem(item)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleInspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	meta, err := s.daemon.InspectMedia(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

func (s *apiServer) handleThumbnails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.previews == nil {
		s.writeError(w, http.StatusServiceUnavailable, "preview generator unavailable")
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	sheet, err := s.daemon.previews.Thumbnails(r.Context(), path)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, sheet)
}

func (s *apiServer) handleWaveform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.previews == nil {
		s.writeError(w, http.StatusServiceUnavailable, "preview generator unavailable")
		return
	}
	query := r.URL.Query()
	path := strings.TrimSpace(query.Get("path"))
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	spec := preview.WaveformSpec{
		Mode:    preview.WaveformMode(query.Get("mode")),
		Palette: query.Get("palette"),
	}
	png, err := s.daemon.previews.Waveform(r.Context(), path, spec)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *apiServer) handlePresets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.daemon.presets.List(strings.TrimSpace(r.URL.Query().Get("taskType")))
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"presets": list})
	case http.MethodPost:
		var req struct {
			Name     string          `json:"name"`
			TaskType string          `json:"taskType"`
			Options  json.RawMessage `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		preset, err := s.daemon.presets.Save(req.Name, req.TaskType, req.Options)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"preset": preset})
	case http.MethodDelete:
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			s.writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if err := s.daemon.presets.Delete(name); err != nil {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) writeQueueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "queue item not found")
	case errors.Is(err, queue.ErrNotEditable):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode api response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
