// internal/app/features/errors/recoverer.go
package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Recoverer turns a panic into the generic error page. The panic value and
// stack are logged; the page only shows them in dev.
func Recoverer(logger *zap.Logger, dev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()))

				msg := ""
				if dev {
					msg = fmt.Sprintf("panic: %v", rec)
				}
				RenderServerError(w, r, msg, "/")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
