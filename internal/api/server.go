// Package api exposes the question-answering pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/luminastro/lumina/internal/answer"
	"github.com/luminastro/lumina/internal/quota"
)

// Header names carrying requester identity. An absent requester header means
// an anonymous requester.
const (
	headerRequesterID = "X-Requester-ID"
	headerTier        = "X-Requester-Tier"
)

// Answerer runs one question through the answer pipeline.
type Answerer interface {
	Answer(ctx context.Context, req answer.Request) (*answer.Result, error)
}

// QuotaChecker reports a requester's remaining allowance.
type QuotaChecker interface {
	Check(ctx context.Context, requesterID, reportID, tier string) (quota.Status, error)
}

// Ingestor stores and removes report chunks.
type Ingestor interface {
	Process(ctx context.Context, reportID, text string) (int, error)
	Remove(ctx context.Context, reportID string) error
}

// ServerConfig contains the dependencies for the API server.
type ServerConfig struct {
	Logger   *slog.Logger
	Answerer Answerer // Required
	Quota    QuotaChecker
	Ingestor Ingestor
}

// Server is the JSON API HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	answerer Answerer
	quota    QuotaChecker
	ingestor Ingestor
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Answerer == nil {
		return nil, errors.New("answerer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		answerer: cfg.Answerer,
		quota:    cfg.Quota,
		ingestor: cfg.Ingestor,
	}

	s.mux.HandleFunc("POST /api/reports/{id}/questions", s.askQuestion)
	s.mux.HandleFunc("GET /api/reports/{id}/quota", s.getQuota)
	s.mux.HandleFunc("PUT /api/reports/{id}/content", s.ingestReport)
	s.mux.HandleFunc("DELETE /api/reports/{id}", s.deleteReport)
	s.mux.HandleFunc("GET /healthz", s.health)

	return s, nil
}

// ServeHTTP implements http.Handler with request logging applied.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logRequests(s.mux).ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requesterIdentity extracts the requester id and tier from headers. Missing
// values default to an anonymous free-tier requester.
func requesterIdentity(r *http.Request) (requesterID, tier string) {
	requesterID = r.Header.Get(headerRequesterID)
	tier = r.Header.Get(headerTier)
	if tier == "" {
		tier = quota.TierFree
	}
	return requesterID, tier
}
