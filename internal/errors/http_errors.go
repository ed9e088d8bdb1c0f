package errors

import (
	"encoding/json"
	"net/http"
)

type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HandleHTTPError maps application errors onto HTTP responses. Constraint
// violations surface as client errors, never as 500s.
func HandleHTTPError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	switch e := err.(type) {
	case *BadRequestError:
		httpErr = &HTTPError{
			Code:    http.StatusBadRequest,
			Message: e.Error(),
		}
	case *InsufficientFundsError:
		httpErr = &HTTPError{
			Code:    http.StatusBadRequest,
			Message: e.Error(),
		}
	case *BelowMinimumError:
		httpErr = &HTTPError{
			Code:    http.StatusBadRequest,
			Message: e.Error(),
		}
	case *AlreadyProcessedError:
		httpErr = &HTTPError{
			Code:    http.StatusConflict,
			Message: e.Error(),
		}
	case *NotFoundError:
		httpErr = &HTTPError{
			Code:    http.StatusNotFound,
			Message: e.Error(),
		}
	case *GatewayError:
		httpErr = &HTTPError{
			Code:    http.StatusBadGateway,
			Message: e.Error(),
		}
	default:
		httpErr = &HTTPError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Code)
	json.NewEncoder(w).Encode(httpErr)
}
