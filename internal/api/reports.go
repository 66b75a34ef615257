package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/luminastro/lumina/internal/answer"
)

// maxQuestionLength bounds a single question, in bytes.
const maxQuestionLength = 2000

type questionRequest struct {
	Question   string   `json:"question"`
	TopicHints []string `json:"topicHints,omitempty"`
}

type questionResponse struct {
	Ok        bool     `json:"ok"`
	Message   string   `json:"message,omitempty"`
	Answer    string   `json:"answer,omitempty"`
	Citations []string `json:"citations,omitempty"`
	FollowUps []string `json:"followUps,omitempty"`
	Remaining int      `json:"remaining"`
}

func (s *Server) askQuestion(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		writeError(w, http.StatusBadRequest, "report id is required")
		return
	}

	var req questionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionLength*4)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(question) > maxQuestionLength {
		writeError(w, http.StatusBadRequest, "question too long")
		return
	}

	requesterID, tier := requesterIdentity(r)
	result, err := s.answerer.Answer(r.Context(), answer.Request{
		ReportID:    reportID,
		RequesterID: requesterID,
		Tier:        tier,
		Question:    question,
		TopicHints:  req.TopicHints,
	})
	if err != nil {
		var vErr *answer.ValidationError
		switch {
		case errors.Is(err, answer.ErrModelUnavailable):
			writeError(w, http.StatusServiceUnavailable, "the model is temporarily unavailable, please retry")
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadGateway, "the model returned an unusable response")
		default:
			s.logger.Error("answer failed", "report_id", reportID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	status := http.StatusOK
	if !result.Ok {
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, questionResponse{
		Ok:        result.Ok,
		Message:   result.Message,
		Answer:    result.Answer,
		Citations: result.Citations,
		FollowUps: result.FollowUps,
		Remaining: result.Remaining,
	})
}

type quotaResponse struct {
	HasQuota       bool `json:"hasQuota"`
	QuestionsUsed  int  `json:"questionsUsed"`
	QuestionsLimit int  `json:"questionsLimit"`
	ExtraQuestions int  `json:"extraQuestions"`
	CanPurchase    bool `json:"canPurchase"`
	Remaining      int  `json:"remaining"`
}

func (s *Server) getQuota(w http.ResponseWriter, r *http.Request) {
	if s.quota == nil {
		writeError(w, http.StatusNotImplemented, "quota tracking is not configured")
		return
	}
	reportID := r.PathValue("id")
	requesterID, tier := requesterIdentity(r)

	status, err := s.quota.Check(r.Context(), requesterID, reportID, tier)
	if err != nil {
		s.logger.Error("quota check failed", "report_id", reportID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		HasQuota:       status.HasQuota,
		QuestionsUsed:  status.QuestionsUsed,
		QuestionsLimit: status.QuestionsLimit,
		ExtraQuestions: status.ExtraQuestions,
		CanPurchase:    status.CanPurchase,
		Remaining:      status.Remaining,
	})
}

type ingestRequest struct {
	Text string `json:"text"`
}

type ingestResponse struct {
	Chunks int `json:"chunks"`
}

func (s *Server) ingestReport(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		writeError(w, http.StatusNotImplemented, "ingestion is not configured")
		return
	}
	reportID := r.PathValue("id")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := s.ingestor.Process(r.Context(), reportID, req.Text)
	if err != nil {
		s.logger.Error("ingest failed", "report_id", reportID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Chunks: n})
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		writeError(w, http.StatusNotImplemented, "ingestion is not configured")
		return
	}
	reportID := r.PathValue("id")
	if err := s.ingestor.Remove(r.Context(), reportID); err != nil {
		s.logger.Error("delete failed", "report_id", reportID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
