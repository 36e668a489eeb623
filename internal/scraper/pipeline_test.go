package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/justsurfingit/ai-job-hunter/internal/database"
	"github.com/justsurfingit/ai-job-hunter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) (*database.Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.IngestMeta{}))
	return database.NewStore(db), db
}

// fakeItem is the wire shape the fake board emits.
type fakeItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func rawItems(t *testing.T, items ...fakeItem) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

// fakeSource serves canned pages and descriptions.
type fakeSource struct {
	pages        map[int][]json.RawMessage
	failOnPage   int
	descriptions map[string]string
	descErr      error
}

func (f *fakeSource) Name() string { return "fake board" }

func (f *fakeSource) FetchPage(ctx context.Context, keyword string, page int) ([]json.RawMessage, error) {
	if f.failOnPage != 0 && page == f.failOnPage {
		return nil, errors.New("connection reset")
	}
	return f.pages[page], nil
}

func (f *fakeSource) Normalize(raw json.RawMessage) (models.Job, error) {
	var item fakeItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return models.Job{}, malformed("decode: %v", err)
	}
	if item.Title == "" {
		return models.Job{}, malformed("item has no title")
	}
	return models.Job{
		Title:         item.Title,
		Company:       "Fake Co",
		JobURL:        item.URL,
		SourceWebsite: f.Name(),
		PostingDate:   "2025-08-01",
	}, nil
}

func (f *fakeSource) FetchDescription(ctx context.Context, jobURL string) (string, error) {
	if f.descErr != nil {
		return "", f.descErr
	}
	desc, ok := f.descriptions[jobURL]
	if !ok {
		return "", errors.New("no description")
	}
	return desc, nil
}

func newTestPipeline(src Source, store *database.Store) *Pipeline {
	p := NewPipeline(src, store)
	p.PageDelay = time.Millisecond
	p.ItemDelay = time.Millisecond
	return p
}

func TestRunExhaustedOnEmptyFirstPage(t *testing.T) {
	store, _ := newTestStore(t)
	src := &fakeSource{pages: map[int][]json.RawMessage{}}
	p := newTestPipeline(src, store)

	report := p.Run(context.Background())

	assert.Equal(t, ReasonExhausted, report.Reason)
	assert.Equal(t, 1, report.PagesAttempted)
	assert.Equal(t, 0, report.ItemsSeen)
	assert.Equal(t, 0, report.ItemsUpserted)
}

func TestRunStopsAtPageLimit(t *testing.T) {
	store, db := newTestStore(t)
	src := &fakeSource{pages: map[int][]json.RawMessage{
		1: rawItems(t, fakeItem{"Engineer A", "https://fake/1"}, fakeItem{"Engineer B", "https://fake/2"}),
		2: rawItems(t, fakeItem{"Engineer C", "https://fake/3"}),
		3: rawItems(t, fakeItem{"Engineer D", "https://fake/4"}),
	}}
	p := newTestPipeline(src, store)
	p.PageLimit = 2

	report := p.Run(context.Background())

	assert.Equal(t, ReasonPageLimit, report.Reason)
	assert.Equal(t, 2, report.PagesAttempted)
	assert.Equal(t, 3, report.ItemsSeen)
	assert.Equal(t, 3, report.ItemsUpserted)

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestRunFetchErrorPreservesEarlierPages(t *testing.T) {
	store, db := newTestStore(t)
	src := &fakeSource{
		pages: map[int][]json.RawMessage{
			1: rawItems(t, fakeItem{"Engineer A", "https://fake/1"}, fakeItem{"Engineer B", "https://fake/2"}),
		},
		failOnPage: 2,
	}
	p := newTestPipeline(src, store)
	p.PageLimit = 3

	report := p.Run(context.Background())

	assert.Equal(t, ReasonFetchError, report.Reason)
	assert.Error(t, report.Err)
	assert.Equal(t, 2, report.PagesAttempted)
	assert.Equal(t, 2, report.ItemsUpserted)

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "page 1 items must stay committed")
}

func TestRunSkipsBadItemsWithoutAborting(t *testing.T) {
	store, db := newTestStore(t)
	src := &fakeSource{pages: map[int][]json.RawMessage{
		1: append(
			rawItems(t, fakeItem{"Engineer A", "https://fake/1"}),
			append([]json.RawMessage{json.RawMessage(`{"title":""}`)},
				rawItems(t, fakeItem{"Engineer B", "https://fake/2"})...)...,
		),
	}}
	p := newTestPipeline(src, store)
	p.PageLimit = 1

	report := p.Run(context.Background())

	assert.Equal(t, ReasonPageLimit, report.Reason)
	assert.Equal(t, 3, report.ItemsSeen)
	assert.Equal(t, 2, report.ItemsUpserted)
	assert.Equal(t, 1, report.ItemsSkipped)

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestRunCanceledContext(t *testing.T) {
	store, _ := newTestStore(t)
	src := &fakeSource{pages: map[int][]json.RawMessage{
		1: rawItems(t, fakeItem{"Engineer A", "https://fake/1"}),
	}}
	p := newTestPipeline(src, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := p.Run(ctx)

	assert.Equal(t, ReasonCanceled, report.Reason)
	assert.Equal(t, 0, report.PagesAttempted)
}

func TestBackfillFillsOnlyMissingDescriptions(t *testing.T) {
	store, db := newTestStore(t)

	jobs := []models.Job{
		{Title: "A", Company: "Fake Co", JobURL: "https://fake/1", PostingDate: "2025-08-01"},
		{Title: "B", Company: "Fake Co", JobURL: "https://fake/2", PostingDate: "2025-08-01"},
		{Title: "C", Company: "Fake Co", JobURL: "https://fake/3", PostingDate: "2025-08-01"},
	}
	for i := range jobs {
		_, err := store.UpsertJob(&jobs[i])
		require.NoError(t, err)
	}

	var done models.Job
	require.NoError(t, db.First(&done, "job_url = ?", "https://fake/3").Error)
	require.NoError(t, store.UpdateJobDescription(done.ID, "already filled"))

	src := &fakeSource{descriptions: map[string]string{
		"https://fake/1": "description one",
		// https://fake/2 has no description: the fetch fails and is skipped.
	}}
	p := newTestPipeline(src, store)

	report := p.Backfill(context.Background())

	assert.NoError(t, report.Err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Filled)
	assert.Equal(t, 1, report.Skipped)

	var filled models.Job
	require.NoError(t, db.First(&filled, "job_url = ?", "https://fake/1").Error)
	assert.Equal(t, "description one", filled.JobDescription)
	assert.Equal(t, "A", filled.Title, "backfill must not touch other fields")

	var untouched models.Job
	require.NoError(t, db.First(&untouched, "job_url = ?", "https://fake/2").Error)
	assert.Empty(t, untouched.JobDescription)
}

func TestBackfillNothingToDo(t *testing.T) {
	store, _ := newTestStore(t)
	p := newTestPipeline(&fakeSource{}, store)

	report := p.Backfill(context.Background())
	assert.NoError(t, report.Err)
	assert.Equal(t, 0, report.Candidates)
}

func TestRunKeepsStatusAcrossReingest(t *testing.T) {
	store, db := newTestStore(t)
	src := &fakeSource{pages: map[int][]json.RawMessage{
		1: rawItems(t, fakeItem{"Engineer A", "https://fake/1"}),
	}}
	p := newTestPipeline(src, store)
	p.PageLimit = 1

	report := p.Run(context.Background())
	require.Equal(t, 1, report.ItemsUpserted)

	var job models.Job
	require.NoError(t, db.First(&job, "job_url = ?", "https://fake/1").Error)
	found, err := store.UpdateJobStatus(job.ID, "applied")
	require.NoError(t, err)
	require.True(t, found)

	report = p.Run(context.Background())
	require.Equal(t, 1, report.ItemsUpserted)

	require.NoError(t, db.First(&job, "job_url = ?", "https://fake/1").Error)
	assert.Equal(t, "applied", job.Status)

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRunReportString(t *testing.T) {
	// Reasons are part of the operational contract; logs and callers
	// match on the literal strings.
	for reason, want := range map[RunReason]string{
		ReasonExhausted:  "exhausted",
		ReasonPageLimit:  "page-limit-reached",
		ReasonFetchError: "fetch-error",
		ReasonCanceled:   "canceled",
	} {
		assert.Equal(t, want, string(reason), fmt.Sprintf("reason %v", reason))
	}
}
