package services

import (
	"github.com/justsurfingit/ai-job-hunter/internal/database"
	"github.com/justsurfingit/ai-job-hunter/internal/dtos"
)

type JobService struct {
	Store *database.Store
}

func NewJobService(store *database.Store) *JobService {
	return &JobService{
		Store: store,
	}
}

// ListJobs applies the API defaults, delegates to the store and computes
// page metadata for the frontend.
func (s *JobService) ListJobs(page, limit int, keyword, status string) (*dtos.JobList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	jobs, total, err := s.Store.ListJobs(keyword, status, page, limit)
	if err != nil {
		return nil, err
	}

	return &dtos.JobList{
		Jobs:           jobs,
		Page:           page,
		Limit:          limit,
		TotalJobsCount: total,
		TotalPages:     (total + int64(limit) - 1) / int64(limit),
	}, nil
}
