package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourorg/motionsense/internal/analysis"
	"github.com/yourorg/motionsense/internal/config"
	"github.com/yourorg/motionsense/internal/metrics"
	"github.com/yourorg/motionsense/internal/upload"
	"github.com/yourorg/motionsense/pkg/types"
)

// maxMultipartMemory is how much of a multipart form is buffered in memory
// before spilling to temporary files.
const maxMultipartMemory = 32 << 20

// ActivityLister lists the labels the inference service can produce.
type ActivityLister interface {
	Activities(ctx context.Context) ([]string, error)
}

// Server exposes the upload pipeline over HTTP.
type Server struct {
	cfg        *config.Config
	uploads    *upload.Orchestrator
	activities ActivityLister
	logger     zerolog.Logger
	mux        *http.ServeMux
}

// New constructs a new Server with routes registered.
func New(cfg *config.Config, uploads *upload.Orchestrator, activities ActivityLister, logger zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if uploads == nil {
		return nil, errors.New("orchestrator is nil")
	}

	srv := &Server{
		cfg:        cfg,
		uploads:    uploads,
		activities: activities,
		logger:     logger.With().Str("component", "server").Logger(),
		mux:        http.NewServeMux(),
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle(s.cfg.Server.MetricsPath, metrics.Handler())

	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/activities", s.handleActivities)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":            "motionsense",
		"allowed_extensions": s.cfg.Upload.AllowedExtensions,
		"max_size_mb":        s.cfg.Upload.MaxSizeMB,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleUpload accepts a file and returns immediately; progress and the
// outcome are polled from /api/state.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodPost) {
		return
	}
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	attempt, err := s.uploads.Submit(r.Context(), up)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"attempt_id": attempt.ID,
		"state":      newStateView(s.uploads.Snapshot()),
	})
}

// handleAnalyze runs the whole pipeline and answers with the summary.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodPost) {
		return
	}
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	result, err := s.uploads.Analyze(r.Context(), up)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis.Summarize(result))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, newStateView(s.uploads.Snapshot()))
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	if !s.preflight(w, r, http.MethodGet) {
		return
	}
	if s.activities == nil {
		http.Error(w, "activities unavailable", http.StatusNotImplemented)
		return
	}
	list, err := s.activities.Activities(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = analysis.FormatActivityName(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": list, "names": names})
}

func (s *Server) preflight(w http.ResponseWriter, r *http.Request, method string) bool {
	setCORS(w, s.cfg.Server.CORSOrigin)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// readUpload extracts the "file" field, checking type and size against the
// multipart header before reading the body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload.Upload, bool) {
	limit := s.cfg.MaxSizeBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, types.Errorf(types.KindTooLarge, "File size must be less than %dMB", s.cfg.Upload.MaxSizeMB))
			return upload.Upload{}, false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid multipart form: " + err.Error()})
		return upload.Upload{}, false
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "file field required"})
		return upload.Upload{}, false
	}
	defer f.Close()

	if err := s.uploads.Validate(upload.FileInfo{Name: hdr.Filename, Size: hdr.Size}); err != nil {
		s.writeError(w, err)
		return upload.Upload{}, false
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "read upload: " + err.Error()})
		return upload.Upload{}, false
	}
	return upload.Upload{Name: hdr.Filename, Data: data}, true
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrInvalidType):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, types.ErrRequestFailed), errors.Is(err, types.ErrMalformedResponse):
		status = http.StatusBadGateway
	case errors.Is(err, types.ErrSuperseded):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		s.logger.Warn().Err(err).Int("status", status).Msg("request failed")
	}
	body := errorBody{Error: types.UserMessage(err, upload.GenericFailure)}
	if errors.Is(err, types.ErrSuperseded) {
		body.Error = err.Error()
	}
	if kind := types.KindOf(err); kind != 0 {
		body.Kind = kind.String()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setCORS(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
