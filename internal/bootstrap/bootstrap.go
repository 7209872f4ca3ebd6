package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/hirenet-interview/internal/config"
	"github.com/kirillkom/hirenet-interview/internal/core/ports"
	"github.com/kirillkom/hirenet-interview/internal/core/usecase"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/llm/openrouter"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/media/ffmpeg"
	natsq "github.com/kirillkom/hirenet-interview/internal/infrastructure/queue/nats"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/questionbank"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/resilience"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/speech/whisperx"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/vision/deepface"
)

// App wires the shared object graph for both binaries. The API side uses
// the dispatcher, session and finalizer use cases; the worker side uses the
// processor and the queue subscription.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue        *natsq.Queue
	SessionRepo  ports.SessionRepository
	QuestionRepo ports.QuestionRepository

	DispatchUC *usecase.SubmitAnswerUseCase
	ProcessUC  *usecase.ProcessAnswerUseCase
	FinalizeUC *usecase.FinalizeSessionUseCase
	SessionUC  *usecase.SessionUseCase

	closeFn func()
}

type Options struct {
	Logger *slog.Logger
	// StageObserver receives per-stage pipeline timings; the worker binary
	// passes its metrics here, the API leaves it nil.
	StageObserver usecase.StageObserver
}

func New(ctx context.Context, cfg config.Config, options Options) (*App, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sessionRepo := postgres.NewSessionRepository(db)
	if err := sessionRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure session schema: %w", err)
	}
	questionRepo := postgres.NewQuestionRepository(db)
	if err := questionRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure question schema: %w", err)
	}

	questions, err := questionbank.Load(cfg.QuestionBankPath)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	if err := questionRepo.UpsertQuestions(ctx, questions); err != nil {
		return nil, fmt.Errorf("seed question bank: %w", err)
	}
	logger.Info("question bank seeded", "questions", len(questions))

	storage, err := localfs.New(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init artifact storage: %w", err)
	}

	executor := resilience.NewExecutorWithLogger(resilience.DefaultConfig(), logger)

	queue, err := natsq.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsq.Options{
		Logger:             logger,
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	extractor := ffmpeg.NewWithBinary(cfg.FFmpegPath)
	transcriber := whisperx.New(cfg.WhisperXURL,
		whisperx.WithTimeout(cfg.TranscribeTimeout),
		whisperx.WithResilienceExecutor(executor))
	emotions := deepface.New(cfg.DeepFaceURL,
		deepface.WithTimeout(cfg.EmotionTimeout),
		deepface.WithResilienceExecutor(executor))
	evaluator := openrouter.New(openrouter.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.OpenRouterModel,
	}, openrouter.WithResilienceExecutor(executor))

	dispatchUC := usecase.NewSubmitAnswerUseCase(sessionRepo, storage, queue)
	processUC := usecase.NewProcessAnswerUseCase(
		sessionRepo,
		extractor,
		transcriber,
		emotions,
		evaluator,
		usecase.StageTimeouts{
			Extract:    cfg.ExtractTimeout,
			Transcribe: cfg.TranscribeTimeout,
			Emotion:    cfg.EmotionTimeout,
			Evaluate:   cfg.EvaluateTimeout,
		},
		options.StageObserver,
	)
	finalizeUC := usecase.NewFinalizeSessionUseCase(sessionRepo, cfg.FinalizeRequireProcessed)
	sessionUC := usecase.NewSessionUseCase(sessionRepo)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:        queue,
		SessionRepo:  sessionRepo,
		QuestionRepo: questionRepo,

		DispatchUC: dispatchUC,
		ProcessUC:  processUC,
		FinalizeUC: finalizeUC,
		SessionUC:  sessionUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
