package domain

import "time"

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusProcessing SessionStatus = "processing"
	StatusCompleted  SessionStatus = "completed"
)

type Category string

const (
	CategoryHighlyRecommended Category = "Highly Recommended"
	CategoryRecommended       Category = "Recommended"
	CategoryAverage           Category = "Average"
	CategoryNotRecommended    Category = "Not Recommended"
)

type CommunicationLevel string

const (
	CommunicationLow    CommunicationLevel = "Low"
	CommunicationMedium CommunicationLevel = "Medium"
	CommunicationHigh   CommunicationLevel = "High"
)

// WordTimestamp is one aligned word from the transcriber.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

// Pause is a detected long gap between two adjacent words.
type Pause struct {
	AfterWord  string  `json:"after_word"`
	BeforeWord string  `json:"before_word"`
	Duration   float64 `json:"duration"`
	AtTime     float64 `json:"at_time"`
}

// FrameEmotion is the classification result for one sampled video frame.
type FrameEmotion struct {
	Timestamp       float64            `json:"timestamp"`
	DominantEmotion string             `json:"dominant_emotion"`
	EmotionScores   map[string]float64 `json:"emotion_scores"`
}

// LLMEvaluation is the structured verdict from the answer evaluator.
// All numeric sub-scores are integers in [0,10].
type LLMEvaluation struct {
	ClarityScore       int                `json:"clarity_score"`
	ConfidenceScore    int                `json:"confidence_score"`
	LogicScore         int                `json:"logic_score"`
	RelevanceScore     int                `json:"relevance_score"`
	CommunicationLevel CommunicationLevel `json:"communication_level"`
	PersonalityTraits  map[string]int     `json:"personality_traits"`
	Strengths          []string           `json:"strengths"`
	Weaknesses         []string           `json:"weaknesses"`
	OverallScore       int                `json:"overall_score"`
	FinalVerdict       Category           `json:"final_verdict"`
	Reasoning          string             `json:"reasoning"`
}

// Answer is one interview response, identified by (session_id, question_id).
// It is created as a pending stub on upload and mutated field-group by
// field-group by the processing pipeline until Processed flips to true.
type Answer struct {
	QuestionID   string `json:"question_id"`
	QuestionText string `json:"question_text"`
	VideoPath    string `json:"video_path,omitempty"`
	AudioPath    string `json:"audio_path,omitempty"`

	Transcript     string          `json:"transcript"`
	WordTimestamps []WordTimestamp `json:"word_timestamps"`

	PauseCount      int     `json:"pause_count"`
	LongPauses      []Pause `json:"long_pauses"`
	HesitationScore float64 `json:"hesitation_score"`

	FrameEmotions       []FrameEmotion     `json:"frame_emotions"`
	EmotionDistribution map[string]float64 `json:"emotion_distribution"`
	ConfidenceIndex     float64            `json:"confidence_index"`
	NervousnessScore    float64            `json:"nervousness_score"`

	LLMEvaluation *LLMEvaluation `json:"llm_evaluation,omitempty"`

	AnswerFinalScore float64   `json:"answer_final_score"`
	Processed        bool      `json:"processed"`
	CreatedAt        time.Time `json:"created_at"`
}

// InterviewSession is one interview attempt by one candidate. The session
// exclusively owns its answers; FinalScore and Category are meaningful only
// once Status is completed.
type InterviewSession struct {
	ID             string        `json:"id"`
	CandidateID    string        `json:"candidate_id"`
	CandidateName  string        `json:"candidate_name"`
	CandidateEmail string        `json:"candidate_email"`
	Answers        []Answer      `json:"answers"`
	FinalScore     float64       `json:"final_score"`
	Category       Category      `json:"category"`
	Status         SessionStatus `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}

// AnswerByQuestion returns the answer for questionID, or nil.
func (s *InterviewSession) AnswerByQuestion(questionID string) *Answer {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			return &s.Answers[i]
		}
	}
	return nil
}

// AnswerPatch is a typed field-level update scoped to one answer. Nil fields
// are left untouched, so each pipeline stage persists only what it produced.
type AnswerPatch struct {
	AudioPath           *string
	Transcript          *string
	WordTimestamps      []WordTimestamp
	PauseCount          *int
	LongPauses          []Pause
	HesitationScore     *float64
	FrameEmotions       []FrameEmotion
	EmotionDistribution map[string]float64
	ConfidenceIndex     *float64
	NervousnessScore    *float64
	LLMEvaluation       *LLMEvaluation
	AnswerFinalScore    *float64
	Processed           *bool
}

// IsEmpty reports whether the patch carries no field updates.
func (p AnswerPatch) IsEmpty() bool {
	return p.AudioPath == nil &&
		p.Transcript == nil &&
		p.WordTimestamps == nil &&
		p.PauseCount == nil &&
		p.LongPauses == nil &&
		p.HesitationScore == nil &&
		p.FrameEmotions == nil &&
		p.EmotionDistribution == nil &&
		p.ConfidenceIndex == nil &&
		p.NervousnessScore == nil &&
		p.LLMEvaluation == nil &&
		p.AnswerFinalScore == nil &&
		p.Processed == nil
}

// Transcription is the transcriber adapter result. An empty transcript is a
// valid outcome for silent audio, not an error.
type Transcription struct {
	Transcript string          `json:"transcript"`
	Words      []WordTimestamp `json:"words"`
	Language   string          `json:"language"`
}

// EmotionAnalysis is the emotion analyzer adapter result. Zero analyzed
// frames yields empty/zero fields, not an error.
type EmotionAnalysis struct {
	FrameEmotions    []FrameEmotion     `json:"frame_emotions"`
	Distribution     map[string]float64 `json:"emotion_distribution"`
	ConfidenceIndex  float64            `json:"confidence_index"`
	NervousnessScore float64            `json:"nervousness_score"`
}

// ProcessingJob identifies one scheduled pipeline run.
type ProcessingJob struct {
	SessionID   string    `json:"session_id"`
	QuestionID  string    `json:"question_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Question is one entry from the interview question bank.
type Question struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category,omitempty" yaml:"category"`
	Position int    `json:"position" yaml:"position"`
}

// NoSpeechEvaluation is the deterministic lowest-score evaluation applied
// when the transcript is empty and the evaluator call is skipped.
func NoSpeechEvaluation() LLMEvaluation {
	return LLMEvaluation{
		CommunicationLevel: CommunicationLow,
		PersonalityTraits:  map[string]int{"leadership": 0, "emotional_stability": 0, "honesty": 0, "confidence": 0},
		Strengths:          []string{},
		Weaknesses:         []string{"No spoken content detected"},
		FinalVerdict:       CategoryNotRecommended,
		Reasoning:          "The candidate did not provide a spoken answer.",
	}
}

// FallbackEvaluation is the neutral mid-range evaluation substituted when the
// evaluator is unavailable, so one outage degrades scoring instead of
// aborting the pipeline.
func FallbackEvaluation(reason string) LLMEvaluation {
	return LLMEvaluation{
		ClarityScore:       5,
		ConfidenceScore:    5,
		LogicScore:         5,
		RelevanceScore:     5,
		CommunicationLevel: CommunicationMedium,
		PersonalityTraits:  map[string]int{"leadership": 5, "emotional_stability": 5, "honesty": 5, "confidence": 5},
		Strengths:          []string{"Unable to evaluate (LLM error)"},
		Weaknesses:         []string{},
		OverallScore:       5,
		FinalVerdict:       CategoryAverage,
		Reasoning:          "LLM evaluation unavailable: " + truncate(reason, 200),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
