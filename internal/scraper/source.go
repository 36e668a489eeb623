package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justsurfingit/ai-job-hunter/internal/models"
)

// ErrMalformedRecord marks a single listing the source returned in a shape
// we cannot normalize. Callers skip the item and keep going.
var ErrMalformedRecord = errors.New("malformed job record")

// Source is one external job board. Each implementation owns its wire
// format end to end: how to page through listings, how to translate its
// raw items into our Job shape, and how to pull a full description.
// FetchPage hands back raw JSON items so Normalize stays a pure function
// the pipeline can apply (and skip) per item.
type Source interface {
	Name() string
	FetchPage(ctx context.Context, keyword string, page int) ([]json.RawMessage, error)
	Normalize(raw json.RawMessage) (models.Job, error)
	FetchDescription(ctx context.Context, jobURL string) (string, error)
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}
