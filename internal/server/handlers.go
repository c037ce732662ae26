package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"accentscope/internal/acquire"
	"accentscope/internal/api"
	"accentscope/internal/logging"
	"accentscope/internal/preflight"
	"accentscope/internal/services"
)

const (
	// multipartSlack covers form boundaries and the url field on top of the
	// file itself.
	multipartSlack   = 1 << 20
	multipartMemory  = 8 << 20
	maxJSONBodyBytes = 64 << 10
)

// statusForCategory maps error categories to HTTP status codes.
func statusForCategory(category services.Category) int {
	switch category {
	case services.CategoryValidation, services.CategoryFormat:
		return http.StatusBadRequest
	case services.CategorySizeLimit:
		return http.StatusRequestEntityTooLarge
	case services.CategoryAcquisition:
		return http.StatusUnprocessableEntity
	case services.CategoryService:
		return http.StatusBadGateway
	case services.CategoryConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, requestID := withRequestID(r.Context())
	req, cleanup, err := s.readRequest(w, r)
	defer cleanup()
	if err != nil {
		s.writeFailure(w, err, requestID)
		return
	}

	report, err := s.analyzer.Analyze(ctx, req, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.writeFailure(w, err, requestID)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromReport(report))
}

func (s *Server) handleAccents(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.AccentTable(s.analyzer.Classifier().Policy()))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromPreflight(preflight.Collect(s.cfg), s.cfg))
}

// readRequest turns a multipart or JSON body into an acquisition request.
// cleanup releases any spooled multipart files and is always non-nil.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (acquire.Request, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var body api.StreamRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
		if err := dec.Decode(&body); err != nil {
			return acquire.Request{}, noop, services.Wrap(services.ErrValidation, "validate", "request", "malformed JSON body", err)
		}
		return acquire.Request{URL: strings.TrimSpace(body.URL)}, noop, nil
	}
	if mediaType != "multipart/form-data" {
		return acquire.Request{}, noop, services.Wrap(services.ErrValidation, "validate", "request",
			"expected multipart/form-data with a url or file field", nil)
	}

	limit := s.cfg.MaxUploadBytes()
	if r.ContentLength > limit+multipartSlack {
		return acquire.Request{}, noop, services.Wrap(services.ErrSizeLimit, "validate", "upload",
			"request body exceeds the upload limit", nil)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return acquire.Request{}, noop, services.Wrap(services.ErrSizeLimit, "validate", "upload",
				"request body exceeds the upload limit", err)
		}
		return acquire.Request{}, noop, services.Wrap(services.ErrValidation, "validate", "request", "malformed multipart body", err)
	}

	var file multipart.File
	cleanup := func() {
		if file != nil {
			_ = file.Close()
		}
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	req := acquire.Request{URL: strings.TrimSpace(r.FormValue("url"))}
	if headers := r.MultipartForm.File["file"]; len(headers) > 0 && headers[0].Filename != "" {
		header := headers[0]
		opened, err := header.Open()
		if err != nil {
			return acquire.Request{}, cleanup, services.Wrap(services.ErrAcquisition, "acquire", "upload", "read uploaded file", err)
		}
		file = opened
		req.Upload = &acquire.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}
	return req, cleanup, nil
}

func withRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := services.RequestIDFromContext(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return services.WithRequestID(ctx, id), id
}

func (s *Server) writeFailure(w http.ResponseWriter, err error, requestID string) {
	dto := api.FromError(err, requestID)
	status := statusForCategory(services.Category(dto.Category))
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", logging.String(logging.FieldCorrelationID, requestID), logging.Error(err))
	}
	s.writeJSON(w, status, dto)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
