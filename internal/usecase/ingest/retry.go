package ingest

import (
	"context"

	"surveybridge/internal/ports"
)

// runWithRetry retries op only on transient store conflicts, sleeping
// baseDelay * 2^(n-2) before attempt n. Any other failure propagates
// immediately. Wrapped operations are idempotent (delete-then-recreate,
// not incremental), so re-running a partially applied attempt is safe.
func (s *Service) runWithRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			delay := s.cfg.RetryBaseDelay << (attempt - 2)
			if err := s.sleep(ctx, delay); err != nil {
				return err
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !ports.IsTransientConflict(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
