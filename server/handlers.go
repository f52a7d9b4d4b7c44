package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/tsawler/gleaner/export"
	"github.com/tsawler/gleaner/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Schema())
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	out, err := export.ParseFormat(r.URL.Query().Get("output"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartSlack)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart/form-data body: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" field`)
		return
	}
	defer file.Close()

	result, err := s.ex.ExtractUpload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if result == nil {
		s.logger.Error("extraction returned no result", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	w.Header().Set("Content-Type", out.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline",
		map[string]string{"filename": export.FileName(header.Filename, out)}))
	w.WriteHeader(statusFor(err))
	if err := export.Write(w, result, out); err != nil {
		s.logger.Warn("write response", "file", header.Filename, "error", err)
	}
}

// statusFor maps an extraction error to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrMalformedInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrDependencyUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
