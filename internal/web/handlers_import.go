package web

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/inkforge/fulfillment/internal/importer"
	"github.com/inkforge/fulfillment/internal/web/middleware"
)

// handleDryRun parses an uploaded tabular file and returns the
// per-order validity report. The response is HTTP 200 even when every
// order is invalid; only malformed input or a backend failure is an
// error.
func (s *Server) handleDryRun(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		s.respondError(w, r, middleware.ErrUnauthenticated)
		return
	}

	data, err := readUploadFile(r, s.cfg.Import.MaxFileSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.engine.DryRun(r.Context(), session.SellerID, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// commitRequest is the JSON body of a commit call: the caller-approved
// subset of previously dry-run orders, plus an optional admin-only
// target seller override.
type commitRequest struct {
	Orders         []importer.ParsedOrder `json:"orders"`
	TargetSellerID string                 `json:"targetSellerId,omitempty"`
}

type commitResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ImportedCount int    `json:"importedCount"`
}

// handleCommit atomically persists the approved orders. Any failure
// leaves nothing committed and the caller must resubmit.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		s.respondError(w, r, middleware.ErrUnauthenticated)
		return
	}

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_PAYLOAD",
		})
		return
	}

	sellerID := session.SellerID
	// Only admin sessions may commit on behalf of another seller; the
	// override is ignored for everyone else.
	if req.TargetSellerID != "" && session.Admin {
		exists, err := s.sellers.SellerExists(r.Context(), req.TargetSellerID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if !exists {
			s.respondError(w, r, ErrTargetSellerNotFound)
			return
		}
		sellerID = req.TargetSellerID
	}

	count, err := s.engine.Commit(r.Context(), sellerID, req.Orders)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, commitResponse{
		Success:       true,
		Message:       fmt.Sprintf("Imported %d order(s)", count),
		ImportedCount: count,
	})
}

// readUploadFile extracts the uploaded file bytes: the "file" part of a
// multipart form, or the raw request body for direct uploads.
func readUploadFile(r *http.Request, maxSize int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("read form file: %w", err)
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return data, nil
}
