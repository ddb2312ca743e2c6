// internal/app/system/imagehost/breaker.go
package imagehost

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("image host temporarily unavailable")

type breakerHost struct {
	next Host
	cb   *gobreaker.CircuitBreaker[Stored]
}

// WithBreaker wraps h so that after five consecutive failures calls fail
// fast with ErrUnavailable for thirty seconds. ErrNotFound from Destroy is
// not counted as a failure.
func WithBreaker(h Host, name string, logger *zap.Logger) Host {
	cb := gobreaker.NewCircuitBreaker[Stored](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("image host breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &breakerHost{next: h, cb: cb}
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}

func (b *breakerHost) Upload(ctx context.Context, obj Object) (Stored, error) {
	s, err := b.cb.Execute(func() (Stored, error) {
		return b.next.Upload(ctx, obj)
	})
	return s, translate(err)
}

func (b *breakerHost) Destroy(ctx context.Context, publicID string) error {
	_, err := b.cb.Execute(func() (Stored, error) {
		return Stored{}, b.next.Destroy(ctx, publicID)
	})
	return translate(err)
}

func (b *breakerHost) PublicID(url string) string {
	return b.next.PublicID(url)
}
