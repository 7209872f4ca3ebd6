package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/core/ports"
)

type sessionServiceFake struct {
	sessions map[string]*domain.InterviewSession
}

func newSessionServiceFake() *sessionServiceFake {
	return &sessionServiceFake{sessions: make(map[string]*domain.InterviewSession)}
}

func (f *sessionServiceFake) Start(_ context.Context, candidateID, name, email string) (*domain.InterviewSession, error) {
	if strings.TrimSpace(candidateID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start", fmt.Errorf("candidate id is required"))
	}
	session := &domain.InterviewSession{
		ID:             "s-" + candidateID,
		CandidateID:    candidateID,
		CandidateName:  name,
		CandidateEmail: email,
		Status:         domain.StatusInProgress,
		Answers:        []domain.Answer{},
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *sessionServiceFake) Get(_ context.Context, sessionID, candidateID string) (*domain.InterviewSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get", fmt.Errorf("session %s", sessionID))
	}
	if session.CandidateID != candidateID {
		return nil, domain.WrapError(domain.ErrForbidden, "get", fmt.Errorf("not owner"))
	}
	return session, nil
}

func (f *sessionServiceFake) ListByCandidate(_ context.Context, candidateID string) ([]domain.InterviewSession, error) {
	out := []domain.InterviewSession{}
	for _, s := range f.sessions {
		if s.CandidateID == candidateID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *sessionServiceFake) Delete(_ context.Context, sessionID, candidateID string) error {
	if _, err := f.Get(context.Background(), sessionID, candidateID); err != nil {
		return err
	}
	delete(f.sessions, sessionID)
	return nil
}

func (f *sessionServiceFake) AnswerStatus(_ context.Context, sessionID, questionID string) (bool, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return false, domain.WrapError(domain.ErrSessionNotFound, "status", fmt.Errorf("session %s", sessionID))
	}
	for _, a := range session.Answers {
		if a.QuestionID == questionID {
			return a.Processed, nil
		}
	}
	return false, domain.WrapError(domain.ErrAnswerNotFound, "status", fmt.Errorf("question %s", questionID))
}

type dispatcherFake struct {
	submitted []ports.SubmitAnswerCommand
	videoSize int64
	err       error
}

func (f *dispatcherFake) Submit(_ context.Context, cmd ports.SubmitAnswerCommand) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	n, _ := io.Copy(io.Discard, cmd.Video)
	f.videoSize = n
	f.submitted = append(f.submitted, cmd)
	return &domain.Answer{QuestionID: cmd.QuestionID, Processed: false}, nil
}

type finalizerFake struct {
	called chan string
}

func (f *finalizerFake) Finalize(_ context.Context, sessionID string) error {
	f.called <- sessionID
	return nil
}

type questionRepoFake struct{ questions []domain.Question }

func (f *questionRepoFake) UpsertQuestions(context.Context, []domain.Question) error { return nil }
func (f *questionRepoFake) ListQuestions(context.Context) ([]domain.Question, error) {
	return f.questions, nil
}

func newTestRouter(t *testing.T) (*Router, *sessionServiceFake, *dispatcherFake, *finalizerFake) {
	t.Helper()
	sessions := newSessionServiceFake()
	dispatcher := &dispatcherFake{}
	finalizer := &finalizerFake{called: make(chan string, 1)}
	questions := &questionRepoFake{questions: []domain.Question{
		{ID: "q-1", Text: "Tell me about yourself.", Position: 1},
	}}
	router := NewRouter(sessions, dispatcher, finalizer, questions, RouterOptions{})
	return router, sessions, dispatcher, finalizer
}

func TestHealthz(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestStartSession(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	body := strings.NewReader(`{"candidate_id":"c-1","candidate_name":"Ada","candidate_email":"ada@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", body)
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	var session domain.InterviewSession
	if err := json.Unmarshal(res.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.Status != domain.StatusInProgress {
		t.Fatalf("status = %q", session.Status)
	}
}

func TestStartSessionValidation(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"candidate_id":""}`))
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestGetSessionOwnership(t *testing.T) {
	router, sessions, _, _ := newTestRouter(t)
	_, _ = sessions.Start(context.Background(), "c-1", "", "")

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s-c-1", nil)
	req.Header.Set(candidateIDHeader, "c-2")
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusForbidden {
		t.Fatalf("foreign candidate status = %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/s-c-1", nil)
	req.Header.Set(candidateIDHeader, "c-1")
	res = httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("owner status = %d", res.Code)
	}
}

func TestGetSessionUnknown(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/ghost", nil)
	req.Header.Set(candidateIDHeader, "c-1")
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d", res.Code)
	}
}

func multipartAnswer(t *testing.T, sessionID, questionID string, video []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	_ = writer.WriteField("session_id", sessionID)
	_ = writer.WriteField("question_id", questionID)
	_ = writer.WriteField("question_text", "Tell me about yourself.")
	part, err := writer.CreateFormFile("video", "answer.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(video)
	_ = writer.Close()
	return buf, writer.FormDataContentType()
}

func TestSubmitAnswerAccepted(t *testing.T) {
	router, sessions, dispatcher, _ := newTestRouter(t)
	_, _ = sessions.Start(context.Background(), "c-1", "", "")

	body, contentType := multipartAnswer(t, "s-c-1", "q-1", []byte("webm-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/answers", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(candidateIDHeader, "c-1")
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	if len(dispatcher.submitted) != 1 {
		t.Fatalf("dispatcher calls = %d", len(dispatcher.submitted))
	}
	cmd := dispatcher.submitted[0]
	if cmd.SessionID != "s-c-1" || cmd.QuestionID != "q-1" || cmd.CandidateID != "c-1" {
		t.Fatalf("command = %+v", cmd)
	}
	if dispatcher.videoSize != int64(len("webm-bytes")) {
		t.Fatalf("video bytes = %d", dispatcher.videoSize)
	}
}

func TestSubmitAnswerDuplicateMapsToConflict(t *testing.T) {
	router, _, dispatcher, _ := newTestRouter(t)
	dispatcher.err = domain.WrapError(domain.ErrDuplicateAnswer, "submit", fmt.Errorf("already answered"))

	body, contentType := multipartAnswer(t, "s-1", "q-1", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/answers", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusConflict {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestSubmitAnswerRequiresVideoField(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	_ = writer.WriteField("session_id", "s-1")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/answers", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestCompleteSessionRunsFinalizerInBackground(t *testing.T) {
	router, sessions, _, finalizer := newTestRouter(t)
	_, _ = sessions.Start(context.Background(), "c-1", "", "")

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s-c-1/complete", nil)
	req.Header.Set(candidateIDHeader, "c-1")
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d", res.Code)
	}
	select {
	case id := <-finalizer.called:
		if id != "s-c-1" {
			t.Fatalf("finalized session = %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("finalizer was never invoked")
	}
}

func TestAnswerStatusRoute(t *testing.T) {
	router, sessions, _, _ := newTestRouter(t)
	_, _ = sessions.Start(context.Background(), "c-1", "", "")
	sessions.sessions["s-c-1"].Answers = []domain.Answer{{QuestionID: "q-1", Processed: true}}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s-c-1/answers/q-1/status", nil)
	req.Header.Set(candidateIDHeader, "c-1")
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	var payload map[string]any
	_ = json.Unmarshal(res.Body.Bytes(), &payload)
	if payload["processed"] != true {
		t.Fatalf("payload = %v", payload)
	}
}

func TestListQuestions(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/questions", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	var payload struct {
		Questions []domain.Question `json:"questions"`
	}
	_ = json.Unmarshal(res.Body.Bytes(), &payload)
	if len(payload.Questions) != 1 || payload.Questions[0].ID != "q-1" {
		t.Fatalf("questions = %+v", payload.Questions)
	}
}

func TestRateLimitReturns429WithRetryAfter(t *testing.T) {
	sessions := newSessionServiceFake()
	router := NewRouter(sessions, &dispatcherFake{}, &finalizerFake{called: make(chan string, 1)},
		&questionRepoFake{}, RouterOptions{RateLimitRPS: 1, RateLimitBurst: 1})
	handler := router.Handler()

	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res1.Code != http.StatusOK {
		t.Fatalf("first request status = %d", res1.Code)
	}

	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}
