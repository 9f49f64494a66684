// Package archiver decides what to do with a URL submitted for archiving and
// performs the submission to the archiving provider.
package archiver

import (
	"context"
	"fmt"

	"arkive/logger"
	"arkive/metrics"
	"arkive/models"

	"go.uber.org/zap"
)

// Store is the persistence collaborator for URL records.
// FindByURL returns a nil record and a nil error when the URL is unknown.
// Insert reports whether a new record was created.
type Store interface {
	FindByURL(ctx context.Context, url string) (*models.URLRecord, error)
	Insert(ctx context.Context, url, originalURL string) (bool, error)
	SetArchiveURL(ctx context.Context, url, archiveURL string) error
	ClearHidden(ctx context.Context, url string) error
}

// Verdict is the outcome of classifying an incoming URL.
type Verdict int

const (
	VerdictInvalid Verdict = iota
	VerdictNeedsSubmission
	VerdictUnhidden
	VerdictDuplicate
)

func (v Verdict) String() string {
	switch v {
	case VerdictInvalid:
		return "invalid"
	case VerdictNeedsSubmission:
		return "needs_submission"
	case VerdictUnhidden:
		return "unhidden"
	case VerdictDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Classification carries the verdict together with the normalized URL and the
// record it was based on. URL is empty for invalid input; Record is nil when
// no record existed.
type Classification struct {
	Verdict Verdict
	URL     string
	Record  *models.URLRecord
}

// Classifier decides whether a URL must be rejected, skipped, unhidden or submitted.
type Classifier struct {
	store Store
}

func NewClassifier(store Store) *Classifier {
	return &Classifier{store: store}
}

// Decide maps the persisted record for a valid URL to a verdict.
// Hidden takes precedence over an existing archive URL.
func Decide(rec *models.URLRecord) Verdict {
	switch {
	case rec == nil:
		return VerdictNeedsSubmission
	case rec.Hidden:
		return VerdictUnhidden
	case rec.HasArchiveURL():
		return VerdictDuplicate
	default:
		return VerdictNeedsSubmission
	}
}

// Classify validates input, looks up its record and returns the verdict.
// The only mutation it performs is clearing the hidden flag on the Unhidden branch.
func (c *Classifier) Classify(ctx context.Context, input string) (Classification, error) {
	log := logger.FromContext(ctx)

	if !IsArchivableURL(input) {
		log.Debug("rejected input that is not an archivable url", zap.String("input", input))
		metrics.VerdictsTotal.WithLabelValues(VerdictInvalid.String()).Inc()
		return Classification{Verdict: VerdictInvalid}, nil
	}

	normalized, err := Normalize(input)
	if err != nil {
		metrics.VerdictsTotal.WithLabelValues(VerdictInvalid.String()).Inc()
		return Classification{Verdict: VerdictInvalid}, nil
	}

	rec, err := c.store.FindByURL(ctx, normalized)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to look up '%s': %w", normalized, err)
	}

	verdict := Decide(rec)
	if verdict == VerdictUnhidden {
		if err := c.store.ClearHidden(ctx, normalized); err != nil {
			return Classification{}, fmt.Errorf("failed to unhide '%s': %w", normalized, err)
		}
		rec.Hidden = false
		log.Info("unhid record", zap.String("url", normalized))
	} else if rec != nil && verdict == VerdictNeedsSubmission {
		log.Info("record has no archive url yet, submitting", zap.String("url", normalized))
	}

	metrics.VerdictsTotal.WithLabelValues(verdict.String()).Inc()
	return Classification{Verdict: verdict, URL: normalized, Record: rec}, nil
}
