package errs

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ErrResponse is the JSON body written by HTTPErrorResponse.
type ErrResponse struct {
	Error ServiceError `json:"error"`
}

type ServiceError struct {
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTPErrorResponse logs the error and writes a JSON error response with a
// status code derived from the error kind. Messages of internal errors are
// never sent to the caller.
func HTTPErrorResponse(w http.ResponseWriter, lgr zerolog.Logger, err error) {
	if err == nil {
		lgr.Error().Msg("nil error passed to HTTPErrorResponse")
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	se, status := ToServiceError(err)

	lgr.Error().
		Err(err).
		Int("http_statuscode", status).
		Str("kind", se.Kind).
		Str("parameter", se.Param).
		Strs("stack", OpStack(err)).
		Msg("error response sent to client")

	writeError(w, lgr, status, se)
}

// ToServiceError describes err the way it may be shown to a caller, and
// returns the matching HTTP status.
func ToServiceError(err error) (ServiceError, int) {
	var e *Error
	if !errors.As(err, &e) {
		return ServiceError{Kind: Internal.String()}, http.StatusInternalServerError
	}

	kind := KindOf(err)
	status := statusFromKind(kind)

	se := ServiceError{
		Kind:  kind.String(),
		Code:  string(e.Code),
		Param: string(e.Param),
	}

	if status < http.StatusInternalServerError {
		se.Message = e.Error()
	}

	return se, status
}

func writeError(w http.ResponseWriter, lgr zerolog.Logger, status int, se ServiceError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(ErrResponse{Error: se})
	if err != nil {
		lgr.Error().Err(err).Msg("encoding error response")
	}
}

func statusFromKind(kind Kind) int {
	switch kind {
	case Invalid, Validation, InvalidRequest:
		return http.StatusBadRequest
	case NotExist:
		return http.StatusNotFound
	case Exist:
		return http.StatusConflict
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
