package account

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/validator"
	"github.com/ftarena/authcore/svc/auth"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest      = errors.New("malformed request body")
	errTooManyRequests = errors.New("too many requests")
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type sessionResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func newSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, ExpiresAt: s.ExpiresAt}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads one JSON object into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errBadRequest
	}
	return nil
}

func statusOf(kind auth.Kind) int {
	switch kind {
	case auth.KindValidation:
		return http.StatusBadRequest
	case auth.KindConflict:
		return http.StatusConflict
	case auth.KindUnauthorized:
		return http.StatusUnauthorized
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Messages come from a fixed set so wrapped
// store or driver errors never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{Code: "bad_request", Message: err.Error()}})
		return
	case errors.Is(err, errTooManyRequests):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{Code: "rate_limited", Message: err.Error()}})
		return
	}

	kind := auth.KindOf(err)
	detail := errorDetail{Code: kind.String(), Message: err.Error()}

	switch kind {
	case auth.KindValidation:
		detail.Message = validationMessage(err)
		if ve := validator.ExtractValidationErrors(err); ve != nil {
			detail.Details = ve.Fields()
		}
	case auth.KindUnauthorized:
		detail.Message = unauthorizedMessage(err)
	case auth.KindBadGateway:
		log.WarnContext(r.Context(), "upstream failure", logger.Error(err))
		detail.Message = badGatewayMessage(err)
	case auth.KindInternal:
		log.ErrorContext(r.Context(), "request failed", logger.Error(err))
		detail.Message = "internal server error"
	}

	writeJSON(w, statusOf(kind), errorBody{Error: detail})
}

func validationMessage(err error) string {
	for _, known := range []error{
		auth.ErrTwoFactorNotPending,
		auth.ErrTwoFactorNotEnabled,
		auth.ErrNoCredential,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "validation failed"
}

func unauthorizedMessage(err error) string {
	for _, known := range []error{
		auth.ErrInvalidCredentials,
		auth.ErrExpiredSession,
		auth.ErrInvalidTOTPCode,
		auth.ErrInvalidState,
		auth.ErrInvalidCode,
		auth.ErrNoPrimaryEmail,
		auth.ErrUnverifiedEmail,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "unauthorized"
}

func badGatewayMessage(err error) string {
	if errors.Is(err, auth.ErrProfileUnavailable) {
		return auth.ErrProfileUnavailable.Error()
	}
	return auth.ErrProviderUnavailable.Error()
}
