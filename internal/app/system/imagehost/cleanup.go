// internal/app/system/imagehost/cleanup.go
package imagehost

import (
	"context"
	"errors"

	"github.com/dalemusser/eventportal/internal/app/system/metrics"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Outcome statuses for DeleteAll.
const (
	Deleted = "deleted"
	Failed  = "failed"
	Skipped = "skipped"
)

// Outcome is the result of one cleanup attempt.
type Outcome struct {
	URL      string
	PublicID string
	Status   string
	Err      error
}

// DeleteAll makes one sequential attempt to destroy each URL's asset.
// URLs without a public id are skipped and cause no provider call. An
// asset the provider no longer has counts as deleted. Failures are logged
// and reported per item, never as an overall error.
func DeleteAll(ctx context.Context, h Host, urls []string, logger *zap.Logger) []Outcome {
	out := make([]Outcome, 0, len(urls))
	for _, u := range urls {
		o := Outcome{URL: u}
		if h != nil {
			o.PublicID = h.PublicID(u)
		}
		if o.PublicID == "" {
			o.Status = Skipped
			metrics.ImageDeletes.WithLabelValues(Skipped).Inc()
			out = append(out, o)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, timeouts.Remote())
		err := h.Destroy(callCtx, o.PublicID)
		cancel()

		switch {
		case err == nil, errors.Is(err, ErrNotFound):
			o.Status = Deleted
		default:
			o.Status = Failed
			o.Err = err
			logger.Warn("image cleanup failed",
				zap.String("url", u),
				zap.String("public_id", o.PublicID),
				zap.Error(err))
		}
		metrics.ImageDeletes.WithLabelValues(o.Status).Inc()
		out = append(out, o)
	}
	return out
}

// Summary counts outcomes by status.
func Summary(outcomes []Outcome) (deleted, failed, skipped int) {
	for _, o := range outcomes {
		switch o.Status {
		case Deleted:
			deleted++
		case Failed:
			failed++
		case Skipped:
			skipped++
		}
	}
	return deleted, failed, skipped
}
