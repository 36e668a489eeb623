package dtos

import "github.com/justsurfingit/ai-job-hunter/internal/models"

// StatusUpdateRequest is the body of POST /api/jobs/:id/status.
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// JobList is the paginated response of GET /api/jobs.
type JobList struct {
	Jobs           []models.Job `json:"jobs"`
	Page           int          `json:"page"`
	Limit          int          `json:"limit"`
	TotalJobsCount int64        `json:"total_jobs_count"`
	TotalPages     int64        `json:"total_pages"`
}

// MatchAnalysis is the structured verdict the model returns for one
// resume/job pair. The field set mirrors the JSON schema the LLM service
// validates against.
type MatchAnalysis struct {
	StrengthsAnalysis  []StrengthItem `json:"strengths_analysis"`
	SkillGaps          []SkillGapItem `json:"skill_gaps"`
	InterviewQuestions []string       `json:"interview_questions"`
	OverallSuggestion  string         `json:"overall_suggestion"`
	MatchScore         int            `json:"match_score"`
}

type StrengthItem struct {
	Skill     string `json:"skill"`
	Relevance string `json:"relevance"`
}

type SkillGapItem struct {
	Skill      string `json:"skill"`
	Importance string `json:"importance"`
}
