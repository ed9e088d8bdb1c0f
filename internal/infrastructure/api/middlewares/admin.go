package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/flexipay/wallet-service/internal/errors"
	http2 "github.com/flexipay/wallet-service/internal/infrastructure/api/http"
	"github.com/flexipay/wallet-service/pkg/log"
)

// AdminMiddleware gates the admin surface behind a static token. An empty
// configured token disables the whole surface.
func AdminMiddleware(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(http2.AdminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
				logger := log.GetLogger()
				logger.Warn().Str("path", r.URL.Path).Msg(errors.ErrAdminTokenRequired)
				errors.HandleHTTPError(w, errors.NewNotFoundError("not found"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
