package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/justsurfingit/ai-job-hunter/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/xeipuuv/gojsonschema"
)

// matchAnalysisSchema is what the model's reply must look like. Gemini is
// told to answer with bare JSON, but it still wanders occasionally, so the
// reply is validated before anything downstream trusts it.
const matchAnalysisSchema = `{
	"type": "object",
	"required": ["strengths_analysis", "skill_gaps", "interview_questions", "overall_suggestion", "match_score"],
	"properties": {
		"strengths_analysis": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["skill", "relevance"],
				"properties": {
					"skill": {"type": "string"},
					"relevance": {"type": "string"}
				}
			}
		},
		"skill_gaps": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["skill", "importance"],
				"properties": {
					"skill": {"type": "string"},
					"importance": {"type": "string"}
				}
			}
		},
		"interview_questions": {
			"type": "array",
			"items": {"type": "string"}
		},
		"overall_suggestion": {"type": "string"},
		"match_score": {"type": "integer", "minimum": 0, "maximum": 100}
	}
}`

const matchPrompt = `You are a top-tier technical recruiter and career coach who gives candidates deep, concrete advice.

Cross-examine the JOB DESCRIPTION and the RESUME below and perform exactly these five tasks:

1. **strengths_analysis**: list the skills or experience in the RESUME that are directly relevant to the JOB DESCRIPTION. For each, briefly explain why it matters.
2. **skill_gaps**: list key skills the JOB DESCRIPTION asks for that the RESUME does not mention. Mark each one's importance as either "core requirement" or "nice to have".
3. **interview_questions**: design 2 to 3 technical or situational questions an interviewer for this role is most likely to ask this candidate.
4. **overall_suggestion**: one summarizing sentence of resume advice based on the analysis above.
5. **match_score**: an integer from 0 to 100 for how well the resume fits the job, 100 meaning a perfect fit. The number only, no commentary.

Your answer MUST be a single well-formed JSON object and nothing else. Its structure:

{
  "strengths_analysis": [
    {
      "skill": "<string, a matching skill from the resume>",
      "relevance": "<string, why this skill matters for the job>"
    }
  ],
  "skill_gaps": [
    {
      "skill": "<string, a skill missing from the resume>",
      "importance": "<string, 'core requirement' or 'nice to have'>"
    }
  ],
  "interview_questions": [
    "<string, suggested interview question 1>",
    "<string, suggested interview question 2>"
  ],
  "overall_suggestion": "<string, one summarizing piece of advice>",
  "match_score": <int, 0-100>
}

---
<JOB DESCRIPTION>
%s
</JOB DESCRIPTION>
---
<RESUME>
%s
</RESUME>`

type LLMService struct {
	Client llms.Model
}

// NewLLMService initializes the Gemini client from GEMINI_API_KEY.
func NewLLMService() *LLMService {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("CRITICAL ERROR: GEMINI_API_KEY is empty. Did you load the .env file?")
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel("gemini-2.5-flash"),
	)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}

	return &LLMService{
		Client: llm,
	}
}

// AnalyzeMatch asks the model to compare one job description against one
// resume and returns the validated structured verdict.
func (s *LLMService) AnalyzeMatch(ctx context.Context, jobDescription, resumeText string) (*dtos.MatchAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(matchPrompt, jobDescription, resumeText)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}

	return parseMatchAnalysis(resp)
}

// parseMatchAnalysis cleans the raw model reply and unmarshals it after
// schema validation.
func parseMatchAnalysis(raw string) (*dtos.MatchAnalysis, error) {
	cleaned := stripCodeFence(raw)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(matchAnalysisSchema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil {
		return nil, fmt.Errorf("model reply is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("model reply failed schema validation: %s", strings.Join(problems, "; "))
	}

	var analysis dtos.MatchAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	return &analysis, nil
}

// stripCodeFence removes the ```json fences Gemini sometimes wraps its
// answer in despite being told not to.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
