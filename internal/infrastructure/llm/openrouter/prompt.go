package openrouter

import "fmt"

const systemPrompt = "You are an expert interview evaluator. Return only JSON."

const evaluationTemplate = `You are an expert HR interviewer and psychologist evaluating a candidate's
video interview response. Evaluate the answer below and return ONLY a valid
JSON object (no markdown, no explanation outside JSON).

INTERVIEW QUESTION:
%s

CANDIDATE'S TRANSCRIPT:
%s

Return this exact JSON structure (all scores are integers 0-10):

{
  "clarity_score": <int>,
  "confidence_score": <int>,
  "logic_score": <int>,
  "relevance_score": <int>,
  "communication_level": "<Low | Medium | High>",
  "personality_traits": {
    "leadership": <int>,
    "emotional_stability": <int>,
    "honesty": <int>,
    "confidence": <int>
  },
  "strengths": ["<string>", ...],
  "weaknesses": ["<string>", ...],
  "overall_score": <int>,
  "final_verdict": "<Highly Recommended | Recommended | Average | Not Recommended>",
  "reasoning": "<one paragraph>"
}`

func buildEvaluationPrompt(question, transcript string) string {
	return fmt.Sprintf(evaluationTemplate, question, transcript)
}
