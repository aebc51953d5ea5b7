package web

// errors.go maps engine and transport failures to JSON error responses.
// Technical detail is logged server-side with the request id; clients
// see a stable code and a human-readable message.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkforge/fulfillment/internal/importer"
	"github.com/inkforge/fulfillment/internal/logging"
	"github.com/inkforge/fulfillment/internal/web/middleware"
)

// ErrTargetSellerNotFound is returned when an admin commit names an
// unknown target seller.
var ErrTargetSellerNotFound = errors.New("target seller not found")

// UserMessage is the client-facing rendering of an error.
type UserMessage struct {
	Code    string
	Message string
	Status  int
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// MapError translates an error into its user-facing form.
func MapError(err error) UserMessage {
	switch {
	case errors.Is(err, middleware.ErrUnauthenticated):
		return UserMessage{
			Code:    "UNAUTHENTICATED",
			Message: "Authentication required.",
			Status:  http.StatusUnauthorized,
		}
	case errors.Is(err, importer.ErrEmptyFile):
		return UserMessage{
			Code:    "EMPTY_FILE",
			Message: "The uploaded file is empty.",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, importer.ErrNoHeader):
		return UserMessage{
			Code:    "NO_DATA_ROWS",
			Message: "The uploaded file has no data rows after the header.",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, ErrTargetSellerNotFound):
		return UserMessage{
			Code:    "TARGET_SELLER_NOT_FOUND",
			Message: "The target seller does not exist.",
			Status:  http.StatusNotFound,
		}
	case errors.Is(err, importer.ErrCommitAborted):
		return UserMessage{
			Code:    "COMMIT_ABORTED",
			Message: "The import could not be committed. No orders were created; please try again.",
			Status:  http.StatusInternalServerError,
		}
	default:
		return UserMessage{
			Code:    "INTERNAL_ERROR",
			Message: "Something went wrong processing the request.",
			Status:  http.StatusInternalServerError,
		}
	}
}

// respondError logs the technical error and writes the mapped JSON
// response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", msg.Status,
		"error", err.Error(),
		"code", msg.Code,
	)

	respondJSON(w, msg.Status, ErrorResponse{
		Success: false,
		Error:   msg.Message,
		Code:    msg.Code,
	})
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
