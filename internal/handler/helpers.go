package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookora/internal/domain"
	"bookora/internal/httputil"
)

// handleError converts domain errors to HTTP responses. A SyncError is checked
// first: the mutation was applied in memory, so the caller gets 202.
func handleError(w http.ResponseWriter, err error) {
	var (
		syncErr      *domain.SyncError
		conflictErr  *domain.ConflictError
		transportErr *domain.TransportError
		serialErr    *domain.SerializationError
		tooLarge     *http.MaxBytesError
	)

	switch {
	case errors.As(err, &syncErr):
		httputil.RespondAccepted(w, nil, syncErr)
	case errors.Is(err, domain.ErrNotConfigured):
		httputil.RespondError(w, http.StatusServiceUnavailable, "document store is not configured")
	case errors.As(err, &transportErr):
		httputil.RespondError(w, http.StatusBadGateway, transportErr.Error())
	case errors.As(err, &serialErr):
		httputil.RespondError(w, http.StatusBadGateway, serialErr.Error())
	case errors.As(err, &tooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]interface{}{
			"resourceType": conflictErr.ResourceType,
			"resourceId":   conflictErr.ResourceID,
		})
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respond writes data with status on success. A SyncError still returns the
// optimistic resource, with 202 and the X-Sync-Error header.
func respond(w http.ResponseWriter, status int, data interface{}, err error) {
	var syncErr *domain.SyncError
	switch {
	case errors.As(err, &syncErr):
		httputil.RespondAccepted(w, data, syncErr)
	case err != nil:
		handleError(w, err)
	case status == http.StatusNoContent:
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.RespondJSON(w, status, data)
	}
}

// pathIndex parses an integer path value
func pathIndex(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, &domain.ValidationError{Message: name + " must be an integer"}
	}
	return n, nil
}

// parseBody decodes JSON and reports a malformed body as a validation error
func parseBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, err)
			return false
		}
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
