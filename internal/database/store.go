package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/ai-job-hunter/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the single write path for jobs and ingestion metadata.
// Every method acquires a pooled connection for one bounded unit of work;
// nothing here holds a transaction across a network call.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// descriptive columns refreshed on every re-scrape. Status, created_at and
// job_description are deliberately absent: status belongs to the user,
// job_description is filled by the backfill pass and must survive re-scrapes.
func descriptiveColumns(job *models.Job) map[string]interface{} {
	return map[string]interface{}{
		"title":          job.Title,
		"company":        job.Company,
		"location":       job.Location,
		"experience":     job.Experience,
		"education":      job.Education,
		"salary_range":   job.SalaryRange,
		"source_website": job.SourceWebsite,
		"posting_date":   job.PostingDate,
		"industry":       job.Industry,
		"updated_at":     time.Now(),
	}
}

// UpsertJob inserts the job if its URL is new, otherwise refreshes the
// existing row's descriptive fields. The whole operation, including the
// freshness-timestamp bump, runs in one transaction.
//
// Two racing upserts of the same new URL serialize into one insert and one
// update: the update leg runs first, and the insert leg carries
// ON CONFLICT DO NOTHING so the loser of the race falls back to updating
// the row the winner just committed.
func (s *Store) UpsertJob(job *models.Job) (bool, error) {
	if job.JobURL == "" {
		return false, errors.New("upsert: job has empty URL")
	}

	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Job{}).
			Where("job_url = ?", job.JobURL).
			Updates(descriptiveColumns(job))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			ins := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "job_url"}},
				DoNothing: true,
			}).Create(job)
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected > 0 {
				created = true
			} else {
				// Lost the insert race; the row exists now, update it.
				res = tx.Model(&models.Job{}).
					Where("job_url = ?", job.JobURL).
					Updates(descriptiveColumns(job))
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("upsert: row for %s vanished mid-flight", job.JobURL)
				}
			}
		}

		return s.touchLastUpdate(tx)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// touchLastUpdate advances the freshness timestamp inside the caller's
// transaction so it never moves without a matching job write.
func (s *Store) touchLastUpdate(tx *gorm.DB) error {
	meta := models.IngestMeta{
		MetaKey:   models.LastUpdateKey,
		MetaValue: time.Now().Format(models.TimeFormat),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	}).Create(&meta).Error
}

func listFilter(keyword, status string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			db = db.Where(
				"(LOWER(title) LIKE ? OR LOWER(company) LIKE ? OR LOWER(job_description) LIKE ?)",
				kw, kw, kw,
			)
		}
		if status != "" && status != "all" {
			db = db.Where("status = ?", status)
		}
		return db
	}
}

// ListJobs returns one page of matching jobs plus the total match count
// before pagination. Keyword is a case-insensitive substring match across
// title, company and description. An empty page is not an error.
func (s *Store) ListJobs(keyword, status string, page, limit int) ([]models.Job, int64, error) {
	var total int64
	if err := s.db.Model(&models.Job{}).Scopes(listFilter(keyword, status)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	jobs := []models.Job{}
	err := s.db.Scopes(listFilter(keyword, status)).
		Order("posting_date DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// UpdateJobStatus sets the workflow status of one job. It reports
// found=false for an unknown id instead of an error. UpdateColumn keeps
// updated_at untouched: that timestamp tracks scrape freshness, not
// user activity.
func (s *Store) UpdateJobStatus(id uint, status string) (bool, error) {
	res := s.db.Model(&models.Job{}).Where("id = ?", id).UpdateColumn("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetJob fetches one job by id, returning (nil, nil) when it does not exist.
func (s *Store) GetJob(id uint) (*models.Job, error) {
	var job models.Job
	err := s.db.First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// LastUpdateTime returns the freshness timestamp, or "never" when no
// scrape has written anything yet.
func (s *Store) LastUpdateTime() (string, error) {
	var meta models.IngestMeta
	err := s.db.First(&meta, "meta_key = ?", models.LastUpdateKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "never", nil
	}
	if err != nil {
		return "", err
	}
	return meta.MetaValue, nil
}

// JobsWithoutDescription returns id and URL of every job still waiting for
// its description backfill.
func (s *Store) JobsWithoutDescription() ([]models.Job, error) {
	jobs := []models.Job{}
	err := s.db.Select("id", "job_url").
		Where("job_description IS NULL OR job_description = ''").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateJobDescription fills in the description for one existing job,
// touching nothing else besides updated_at.
func (s *Store) UpdateJobDescription(id uint, description string) error {
	return s.db.Model(&models.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"job_description": description,
		"updated_at":      time.Now(),
	}).Error
}
