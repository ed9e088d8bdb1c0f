package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flexipay/wallet-service/internal/errors"
	http2 "github.com/flexipay/wallet-service/internal/infrastructure/api/http"
	"github.com/flexipay/wallet-service/internal/usecases/interactor"
	"github.com/flexipay/wallet-service/pkg/log"
)

// UserMiddleware validates the user id and creates the user lazily on first
// interaction, the identity itself being supplied by the front-end.
func UserMiddleware(userInt *interactor.UserInteractor) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.GetLogger()
			raw := chi.URLParam(r, http2.UserIDParam)
			if raw == "" {
				logger.Error().Msg(errors.ErrUserIDRequired)
				errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrUserIDRequired))
				return
			}

			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				logger.Error().Str("user_id", raw).Msg(errors.ErrInvalidUserID)
				errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidUserID))
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := userInt.Ensure(ctx, userID, r.Header.Get(http2.UsernameHeader), r.Header.Get(http2.FirstNameHeader)); err != nil {
				logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to ensure user")
				errors.HandleHTTPError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ParseUserID extracts the validated user id from the route.
func ParseUserID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, http2.UserIDParam), 10, 64)
	return id
}
