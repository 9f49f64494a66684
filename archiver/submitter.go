package archiver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arkive/logger"
	"arkive/metrics"

	"go.uber.org/zap"
)

// Provider saves a URL with a remote archiving service and returns the
// address of the archived copy. Throttling is reported as ErrRateLimited.
type Provider interface {
	Save(ctx context.Context, url, clientIdentity string) (string, error)
}

// Locker provides optional per-URL mutual exclusion around a submission.
// ok is false when another submission holds the lock.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// ResultKind enumerates the outcomes of a submission.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultRateLimited
	ResultFailure
	ResultInFlight
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultRateLimited:
		return "rate_limited"
	case ResultFailure:
		return "failure"
	case ResultInFlight:
		return "in_flight"
	default:
		return fmt.Sprintf("result(%d)", int(k))
	}
}

// ArchiveResult is the outcome of Submit. ArchiveURL is set for ResultSuccess,
// Err for ResultRateLimited and ResultFailure.
type ArchiveResult struct {
	Kind       ResultKind
	URL        string
	ArchiveURL string
	Err        error
}

// Config is injected into the Submitter.
type Config struct {
	// ClientIdentity is sent to the provider as the User-Agent.
	ClientIdentity string
	// Timeout bounds the provider call. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// Submitter performs the remote archive call and records its result.
type Submitter struct {
	store    Store
	provider Provider
	locker   Locker
	cfg      Config
}

func NewSubmitter(store Store, provider Provider, cfg Config) *Submitter {
	return &Submitter{store: store, provider: provider, cfg: cfg}
}

// WithLocker enables per-URL locking around submissions.
func (s *Submitter) WithLocker(l Locker) *Submitter {
	s.locker = l
	return s
}

// Submit normalizes rawURL, ensures a record exists for it, calls the provider
// and stores the returned archive URL. The returned error is non-nil only when
// rawURL cannot be parsed or the store fails; provider outcomes are reported
// through ArchiveResult.
func (s *Submitter) Submit(ctx context.Context, rawURL string) (ArchiveResult, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return ArchiveResult{}, err
	}
	log := logger.FromContext(ctx).With(zap.String("url", normalized))

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, normalized)
		switch {
		case err != nil:
			log.Warn("submission lock unavailable, continuing without it", zap.Error(err))
		case !ok:
			log.Info("submission already in progress")
			return s.finish(ArchiveResult{Kind: ResultInFlight, URL: normalized}), nil
		default:
			defer unlock()
		}
	}

	created, err := s.store.Insert(ctx, normalized, rawURL)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("failed to create record for '%s': %w", normalized, err)
	}
	if created {
		log.Debug("created record")
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	log.Info("submitting to archive provider")
	start := time.Now()
	archiveURL, err := s.provider.Save(callCtx, normalized, s.cfg.ClientIdentity)
	metrics.ProviderDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrRateLimited):
		log.Info("archive provider rate limited the submission", zap.Error(err))
		return s.finish(ArchiveResult{Kind: ResultRateLimited, URL: normalized, Err: err}), nil
	case err != nil:
		log.Warn("archive provider failed", zap.Error(err))
		return s.finish(ArchiveResult{Kind: ResultFailure, URL: normalized, Err: fmt.Errorf("%w: %w", ErrProvider, err)}), nil
	case archiveURL == "":
		return s.finish(ArchiveResult{Kind: ResultFailure, URL: normalized, Err: fmt.Errorf("%w: empty archive url", ErrProvider)}), nil
	}

	log.Info("saving archive url", zap.String("archive_url", archiveURL))
	if err := s.store.SetArchiveURL(ctx, normalized, archiveURL); err != nil {
		if !errors.Is(err, ErrArchiveURLSet) {
			return ArchiveResult{}, fmt.Errorf("failed to save archive url for '%s': %w", normalized, err)
		}
		rec, err := s.store.FindByURL(ctx, normalized)
		if err != nil {
			return ArchiveResult{}, fmt.Errorf("failed to reload record for '%s': %w", normalized, err)
		}
		if rec == nil || !rec.HasArchiveURL() {
			return ArchiveResult{}, fmt.Errorf("record for '%s' lost its archive url", normalized)
		}
		log.Warn("record already had an archive url, keeping the stored one",
			zap.String("stored_archive_url", *rec.ArchiveURL))
		archiveURL = *rec.ArchiveURL
	}

	return s.finish(ArchiveResult{Kind: ResultSuccess, URL: normalized, ArchiveURL: archiveURL}), nil
}

func (s *Submitter) finish(res ArchiveResult) ArchiveResult {
	metrics.SubmissionsTotal.WithLabelValues(res.Kind.String()).Inc()
	return res
}
