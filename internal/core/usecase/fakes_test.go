package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

var errNotFound = errors.New("no such row")

// sessionRepoFake is an in-memory SessionRepository shared by the use case
// tests. It applies AnswerPatch the same way the postgres repository does:
// only non-nil fields are written.
type sessionRepoFake struct {
	mu       sync.Mutex
	sessions map[string]*domain.InterviewSession

	patches     []domain.AnswerPatch
	getErr      error
	appendErr   error

	savedScore    float64
	savedCategory domain.Category
	saveCalls     int
	saveErr       error
}

func newSessionRepoFake() *sessionRepoFake {
	return &sessionRepoFake{sessions: make(map[string]*domain.InterviewSession)}
}

func (f *sessionRepoFake) CreateSession(_ context.Context, session *domain.InterviewSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copySession := *session
	f.sessions[session.ID] = &copySession
	return nil
}

func (f *sessionRepoFake) GetSession(_ context.Context, sessionID string) (*domain.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", errNotFound)
	}
	copySession := *session
	copySession.Answers = append([]domain.Answer(nil), session.Answers...)
	return &copySession, nil
}

func (f *sessionRepoFake) ListSessionsByCandidate(_ context.Context, candidateID string) ([]domain.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.InterviewSession, 0)
	for _, s := range f.sessions {
		if s.CandidateID == candidateID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *sessionRepoFake) DeleteSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

func (f *sessionRepoFake) SetSessionProcessing(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok && s.Status == domain.StatusInProgress {
		s.Status = domain.StatusProcessing
	}
	return nil
}

func (f *sessionRepoFake) SaveSessionResult(_ context.Context, sessionID string, score float64, category domain.Category, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saveCalls++
	f.savedScore = score
	f.savedCategory = category
	if s, ok := f.sessions[sessionID]; ok {
		s.FinalScore = score
		s.Category = category
		s.Status = domain.StatusCompleted
		s.CompletedAt = &completedAt
	}
	return nil
}

func (f *sessionRepoFake) AppendAnswerStub(_ context.Context, sessionID string, answer domain.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "append answer", errNotFound)
	}
	for _, existing := range session.Answers {
		if existing.QuestionID == answer.QuestionID {
			return domain.WrapError(domain.ErrDuplicateAnswer, "append answer", errNotFound)
		}
	}
	session.Answers = append(session.Answers, answer)
	return nil
}

func (f *sessionRepoFake) GetAnswer(_ context.Context, sessionID, questionID string) (*domain.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get answer", errNotFound)
	}
	for i := range session.Answers {
		if session.Answers[i].QuestionID == questionID {
			copyAnswer := session.Answers[i]
			return &copyAnswer, nil
		}
	}
	return nil, domain.WrapError(domain.ErrAnswerNotFound, "get answer", errNotFound)
}

func (f *sessionRepoFake) UpdateAnswerFields(_ context.Context, sessionID, questionID string, patch domain.AnswerPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	session, ok := f.sessions[sessionID]
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "update answer", errNotFound)
	}
	for i := range session.Answers {
		if session.Answers[i].QuestionID != questionID {
			continue
		}
		applyPatch(&session.Answers[i], patch)
		return nil
	}
	return domain.WrapError(domain.ErrAnswerNotFound, "update answer", errNotFound)
}

func applyPatch(answer *domain.Answer, patch domain.AnswerPatch) {
	if patch.AudioPath != nil {
		answer.AudioPath = *patch.AudioPath
	}
	if patch.Transcript != nil {
		answer.Transcript = *patch.Transcript
	}
	if patch.WordTimestamps != nil {
		answer.WordTimestamps = patch.WordTimestamps
	}
	if patch.PauseCount != nil {
		answer.PauseCount = *patch.PauseCount
	}
	if patch.LongPauses != nil {
		answer.LongPauses = patch.LongPauses
	}
	if patch.HesitationScore != nil {
		answer.HesitationScore = *patch.HesitationScore
	}
	if patch.FrameEmotions != nil {
		answer.FrameEmotions = patch.FrameEmotions
	}
	if patch.EmotionDistribution != nil {
		answer.EmotionDistribution = patch.EmotionDistribution
	}
	if patch.ConfidenceIndex != nil {
		answer.ConfidenceIndex = *patch.ConfidenceIndex
	}
	if patch.NervousnessScore != nil {
		answer.NervousnessScore = *patch.NervousnessScore
	}
	if patch.LLMEvaluation != nil {
		answer.LLMEvaluation = patch.LLMEvaluation
	}
	if patch.AnswerFinalScore != nil {
		answer.AnswerFinalScore = *patch.AnswerFinalScore
	}
	if patch.Processed != nil {
		answer.Processed = *patch.Processed
	}
}

type storageFake struct {
	saved   map[string]string
	removed []string
	err     error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	raw, _ := io.ReadAll(data)
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[key] = string(raw)
	return "/uploads/" + key, nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	delete(f.saved, key)
	f.removed = append(f.removed, key)
	return nil
}

type queueFake struct {
	mu        sync.Mutex
	published []domain.ProcessingJob
	err       error
}

func (f *queueFake) PublishAnswerSubmitted(_ context.Context, job domain.ProcessingJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

func (f *queueFake) SubscribeAnswerSubmitted(context.Context, func(context.Context, domain.ProcessingJob) error) error {
	return nil
}

type extractorFake struct {
	err error
}

func (f *extractorFake) Extract(_ context.Context, videoPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.TrimSuffix(videoPath, ".webm") + ".wav", nil
}

type transcriberFake struct {
	result domain.Transcription
	err    error
}

func (f *transcriberFake) Transcribe(context.Context, string) (domain.Transcription, error) {
	if f.err != nil {
		return domain.Transcription{}, f.err
	}
	return f.result, nil
}

type emotionFake struct {
	result domain.EmotionAnalysis
	err    error
}

func (f *emotionFake) Analyze(context.Context, string) (domain.EmotionAnalysis, error) {
	if f.err != nil {
		return domain.EmotionAnalysis{}, f.err
	}
	return f.result, nil
}

type evaluatorFake struct {
	mu     sync.Mutex
	calls  int
	result domain.LLMEvaluation
	err    error
}

func (f *evaluatorFake) Evaluate(context.Context, string, string) (domain.LLMEvaluation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return domain.LLMEvaluation{}, f.err
	}
	return f.result, nil
}
