package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/ports"
	"github.com/kirillkom/hirenet-interview/internal/observability/metrics"
)

const candidateIDHeader = "X-Candidate-Id"

// Router is the candidate-facing API surface. Uploads and finalization are
// asynchronous: both return 202 and the caller polls for results.
type Router struct {
	sessions   ports.SessionService
	dispatcher ports.AnswerDispatcher
	finalizer  ports.SessionFinalizer
	questions  ports.QuestionRepository

	httpMetrics    *metrics.HTTPServerMetrics
	maxUploadBytes int64
	rateLimitRPS   float64
	rateLimitBurst int
}

type RouterOptions struct {
	Metrics        *metrics.HTTPServerMetrics
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(
	sessions ports.SessionService,
	dispatcher ports.AnswerDispatcher,
	finalizer ports.SessionFinalizer,
	questions ports.QuestionRepository,
	options RouterOptions,
) *Router {
	maxUpload := options.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 200 << 20
	}
	return &Router{
		sessions:       sessions,
		dispatcher:     dispatcher,
		finalizer:      finalizer,
		questions:      questions,
		httpMetrics:    options.Metrics,
		maxUploadBytes: maxUpload,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/sessions", rt.sessionsCollection)
	mux.HandleFunc("/v1/sessions/", rt.sessionSubtree)
	mux.HandleFunc("/v1/answers", rt.submitAnswer)
	mux.HandleFunc("/v1/questions", rt.listQuestions)

	var handler http.Handler = mux
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler())
		handler = rt.httpMetrics.Middleware(handler)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) sessionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.startSession(w, r)
	case http.MethodGet:
		rt.listSessions(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	}
}

func (rt *Router) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CandidateID    string `json:"candidate_id"`
		CandidateName  string `json:"candidate_name"`
		CandidateEmail string `json:"candidate_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	session, err := rt.sessions.Start(r.Context(), req.CandidateID, req.CandidateName, req.CandidateEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (rt *Router) listSessions(w http.ResponseWriter, r *http.Request) {
	candidateID := candidateID(r)
	if candidateID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("X-Candidate-Id header is required"))
		return
	}
	sessions, err := rt.sessions.ListByCandidate(r.Context(), candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// sessionSubtree dispatches /v1/sessions/{id}[/...] routes.
func (rt *Router) sessionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("session id is required"))
		return
	}
	sessionID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		rt.getSession(w, r, sessionID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		rt.deleteSession(w, r, sessionID)
	case len(parts) == 2 && parts[1] == "complete" && r.Method == http.MethodPost:
		rt.completeSession(w, r, sessionID)
	case len(parts) == 4 && parts[1] == "answers" && parts[3] == "status" && r.Method == http.MethodGet:
		rt.answerStatus(w, r, sessionID, parts[2])
	default:
		writeJSON(w, http.StatusNotFound, errorBody("unknown route"))
	}
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := rt.sessions.Get(r.Context(), sessionID, candidateID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := rt.sessions.Delete(r.Context(), sessionID, candidateID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// completeSession schedules finalization and returns immediately. The
// caller polls GET /v1/sessions/{id} until status flips to completed.
func (rt *Router) completeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if _, err := rt.sessions.Get(r.Context(), sessionID, candidateID(r)); err != nil {
		writeError(w, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rt.finalizer.Finalize(ctx, sessionID); err != nil {
			slog.Error("session_finalize_failed", "session_id", sessionID, "error", err)
			if rt.httpMetrics != nil {
				rt.httpMetrics.RecordFinalize("error")
			}
			return
		}
		if rt.httpMetrics != nil {
			rt.httpMetrics.RecordFinalize("success")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"session_id": sessionID,
		"status":     "finalizing",
	})
}

func (rt *Router) answerStatus(w http.ResponseWriter, r *http.Request, sessionID, questionID string) {
	if _, err := rt.sessions.Get(r.Context(), sessionID, candidateID(r)); err != nil {
		writeError(w, err)
		return
	}
	processed, err := rt.sessions.AnswerStatus(r.Context(), sessionID, questionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  sessionID,
		"question_id": questionID,
		"processed":   processed,
	})
}

func (rt *Router) submitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	file, fileHeader, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart field 'video' is required"))
		return
	}
	defer file.Close()

	answer, err := rt.dispatcher.Submit(r.Context(), ports.SubmitAnswerCommand{
		SessionID:    r.FormValue("session_id"),
		CandidateID:  candidateID(r),
		QuestionID:   r.FormValue("question_id"),
		QuestionText: r.FormValue("question_text"),
		Video:        file,
	})
	if err != nil {
		if rt.httpMetrics != nil {
			rt.httpMetrics.RecordAnswerSubmission("rejected", 0)
		}
		writeError(w, err)
		return
	}

	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordAnswerSubmission("accepted", fileHeader.Size)
	}
	writeJSON(w, http.StatusAccepted, answer)
}

func (rt *Router) listQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}
	questions, err := rt.questions.ListQuestions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func candidateID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(candidateIDHeader))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorBody(err.Error()))
}
