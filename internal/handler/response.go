package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-user-directory/internal/model"
	"go-user-directory/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a JSON request body into dst, reporting malformed input as a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return apierror.Validation("invalid JSON body", "")
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := classify(err)
	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
	}

	writeJSON(w, apiErr.HTTPStatus, model.ErrorResponse{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}

func classify(err error) *apierror.APIError {
	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("User not found", "")
	case errors.Is(err, model.ErrUserAlreadyExists):
		return apierror.Conflict("Username or email already exists", "")
	case errors.Is(err, model.ErrInvalidCredentials):
		return apierror.Authentication(apierror.CodeUnauthorized, "Invalid credentials")
	case errors.Is(err, model.ErrInvalidInput):
		return apierror.Validation("Invalid input", "")
	default:
		return apierror.Internal()
	}
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.NotFound("route not found", r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.New(apierror.CodeBadRequest, "method not allowed", r.Method, http.StatusMethodNotAllowed))
}
