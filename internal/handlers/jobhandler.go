package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/ai-job-hunter/internal/database"
	"github.com/justsurfingit/ai-job-hunter/internal/dtos"
	"github.com/justsurfingit/ai-job-hunter/internal/resume"
	"github.com/justsurfingit/ai-job-hunter/internal/services"
)

// MatchAnalyzer is the slice of the LLM service the handler needs.
type MatchAnalyzer interface {
	AnalyzeMatch(ctx context.Context, jobDescription, resumeText string) (*dtos.MatchAnalysis, error)
}

type JobHandler struct {
	JobService *services.JobService
	Store      *database.Store
	Analyzer   MatchAnalyzer
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(jobService *services.JobService, store *database.Store, analyzer MatchAnalyzer) *JobHandler {
	return &JobHandler{
		JobService: jobService,
		Store:      store,
		Analyzer:   analyzer,
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListJobs is GET /api/jobs?page&limit&keyword&status
func (h *JobHandler) ListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	keyword := c.Query("keyword")
	status := c.Query("status")

	result, err := h.JobService.ListJobs(page, limit, keyword, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateStatus is POST /api/jobs/:id/status
func (h *JobHandler) UpdateStatus(c *gin.Context) {
	id, err := parseJobID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id"})
		return
	}

	var req dtos.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing status parameter"})
		return
	}

	found, err := h.Store.UpdateJobStatus(id, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status: " + err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job status updated"})
}

// LastUpdate is GET /api/last-update
func (h *JobHandler) LastUpdate(c *gin.Context) {
	lastUpdate, err := h.Store.LastUpdateTime()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"last_update": lastUpdate,
	})
}

// MatchResume is POST /api/jobs/:id/match with a multipart "resume" file.
// It extracts text from the upload and asks the LLM to score it against
// the stored job description.
func (h *JobHandler) MatchResume(c *gin.Context) {
	id, err := parseJobID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id"})
		return
	}

	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing resume file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read resume: " + err.Error()})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resume file is empty"})
		return
	}

	job, err := h.Store.GetJob(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job: " + err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if strings.TrimSpace(job.JobDescription) == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job has no description yet"})
		return
	}

	text, err := resume.Parse(data, header.Filename)
	if err != nil {
		if errors.Is(err, resume.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse resume: " + err.Error()})
		return
	}
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not extract any text from resume"})
		return
	}

	analysis, err := h.Analyzer.AnalyzeMatch(c.Request.Context(), job.JobDescription, text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI analysis failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func parseJobID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
