package scraper

import (
	"context"
	"log"
	"time"

	"github.com/justsurfingit/ai-job-hunter/internal/database"
)

// RunReason says why an ingestion run stopped.
type RunReason string

const (
	// ReasonExhausted: the source returned an empty page, nothing left.
	ReasonExhausted RunReason = "exhausted"
	// ReasonPageLimit: every configured page was fetched.
	ReasonPageLimit RunReason = "page-limit-reached"
	// ReasonFetchError: a page fetch failed; earlier pages stay committed.
	ReasonFetchError RunReason = "fetch-error"
	// ReasonCanceled: the run's context was canceled between pages.
	ReasonCanceled RunReason = "canceled"
)

// RunReport is the per-run counter set.
type RunReport struct {
	PagesAttempted int
	ItemsSeen      int
	ItemsUpserted  int
	ItemsSkipped   int
	Reason         RunReason
	Err            error
}

// BackfillReport counts one description-backfill pass.
type BackfillReport struct {
	Candidates int
	Filled     int
	Skipped    int
	Err        error
}

// Pipeline pages through a Source and upserts what it finds. It holds no
// state between runs; every item is its own transaction, so a run that
// dies on page n keeps everything pages 1..n-1 wrote.
type Pipeline struct {
	Source Source
	Store  *database.Store

	Keyword   string
	PageLimit int
	// PageDelay is the mandatory pause between page fetches. The board
	// rate-limits aggressive crawlers; this is part of the contract with
	// the source, not a tuning knob.
	PageDelay time.Duration
	// ItemDelay is the pause between description fetches in a backfill.
	ItemDelay time.Duration
}

func NewPipeline(source Source, store *database.Store) *Pipeline {
	return &Pipeline{
		Source:    source,
		Store:     store,
		Keyword:   "AI engineer",
		PageLimit: 2,
		PageDelay: 2 * time.Second,
		ItemDelay: 1500 * time.Millisecond,
	}
}

// Run executes one full ingestion run and reports how it ended.
func (p *Pipeline) Run(ctx context.Context) RunReport {
	log.Printf("🕷️  [%s] starting scrape, keyword=%q pages=%d", p.Source.Name(), p.Keyword, p.PageLimit)

	report := RunReport{Reason: ReasonPageLimit}
	for page := 1; page <= p.PageLimit; page++ {
		if ctx.Err() != nil {
			report.Reason = ReasonCanceled
			report.Err = ctx.Err()
			break
		}

		report.PagesAttempted++
		items, err := p.Source.FetchPage(ctx, p.Keyword, page)
		if err != nil {
			log.Printf("❌ [%s] page %d fetch failed: %v", p.Source.Name(), page, err)
			report.Reason = ReasonFetchError
			report.Err = err
			break
		}
		if len(items) == 0 {
			log.Printf("[%s] page %d is empty, source exhausted", p.Source.Name(), page)
			report.Reason = ReasonExhausted
			break
		}

		report.ItemsSeen += len(items)
		for _, raw := range items {
			job, err := p.Source.Normalize(raw)
			if err != nil {
				log.Printf("⚠️  [%s] skipping item: %v", p.Source.Name(), err)
				report.ItemsSkipped++
				continue
			}
			if _, err := p.Store.UpsertJob(&job); err != nil {
				log.Printf("⚠️  [%s] skipping %q: %v", p.Source.Name(), job.Title, err)
				report.ItemsSkipped++
				continue
			}
			report.ItemsUpserted++
		}
		log.Printf("[%s] page %d done, %d items so far", p.Source.Name(), page, report.ItemsUpserted)

		if page < p.PageLimit {
			sleepCtx(ctx, p.PageDelay)
		}
	}

	log.Printf("✅ [%s] run finished: pages=%d seen=%d upserted=%d skipped=%d reason=%s",
		p.Source.Name(), report.PagesAttempted, report.ItemsSeen, report.ItemsUpserted,
		report.ItemsSkipped, report.Reason)
	return report
}

// Backfill fills in descriptions for jobs that were ingested without one.
// It addresses rows by id, so it never races the upsert path's natural-key
// logic, and a failed item never aborts the pass.
func (p *Pipeline) Backfill(ctx context.Context) BackfillReport {
	report := BackfillReport{}

	jobs, err := p.Store.JobsWithoutDescription()
	if err != nil {
		report.Err = err
		return report
	}
	report.Candidates = len(jobs)
	if len(jobs) == 0 {
		log.Println("📄 backfill: every job already has a description")
		return report
	}

	log.Printf("📄 backfill: %d jobs missing descriptions", len(jobs))
	for i, job := range jobs {
		if ctx.Err() != nil {
			report.Err = ctx.Err()
			break
		}

		desc, err := p.Source.FetchDescription(ctx, job.JobURL)
		if err != nil {
			log.Printf("⚠️  backfill: job %d (%s): %v", job.ID, job.JobURL, err)
			report.Skipped++
		} else if err := p.Store.UpdateJobDescription(job.ID, desc); err != nil {
			log.Printf("⚠️  backfill: job %d write failed: %v", job.ID, err)
			report.Skipped++
		} else {
			report.Filled++
		}

		if i < len(jobs)-1 {
			sleepCtx(ctx, p.ItemDelay)
		}
	}

	log.Printf("✅ backfill finished: filled=%d skipped=%d", report.Filled, report.Skipped)
	return report
}

// sleepCtx waits out the politeness delay but lets a canceled context end
// the wait early; the caller notices the cancellation before its next fetch.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
