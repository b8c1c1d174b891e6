// Package http exposes the planner over HTTP.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"ai-travel-planner/internal/app"
	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/models"
)

const (
	maxPlanBodyBytes  = 64 << 10
	multipartOverhead = 1 << 20
	audioField        = "audio"
)

type handlers struct {
	app *app.Application
}

type planResponse struct {
	Plan string `json:"plan"`
}

type asrResponse struct {
	Text  string `json:"text"`
	Empty bool   `json:"empty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *handlers) plan(w http.ResponseWriter, r *http.Request) {
	var in models.PlanInput
	body := http.MaxBytesReader(w, r.Body, maxPlanBodyBytes)
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		writeError(w, r, failure.New(failure.KindInvalidRequest, "decode plan", err))
		return
	}

	req, err := h.app.Validator.Plan(in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	text, err := h.app.Planner.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: text})
}

func (h *handlers) asr(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		writeError(w, r, failure.Newf(failure.KindInvalidRequest, "asr", "expected multipart/form-data"))
		return
	}

	if limit := h.app.Cfg.ASR.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, failure.New(failure.KindInvalidRequest, "asr", err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(w, r, failure.New(failure.KindInvalidRequest, "asr", err))
			return
		}
		if part.FormName() != audioField {
			_ = part.Close()
			continue
		}

		text, err := h.app.Transcriber.TranscribeUpload(r.Context(), part, part.FileName())
		_ = part.Close()
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, asrResponse{Text: text, Empty: text == ""})
		return
	}

	writeError(w, r, failure.Newf(failure.KindInvalidRequest, "asr", "missing %q file field", audioField))
}

// statusFor maps a failure kind to the HTTP status returned to clients.
func statusFor(err error) int {
	switch failure.KindOf(err) {
	case failure.KindInvalidRequest:
		return http.StatusBadRequest
	case failure.KindTranscode:
		return http.StatusUnprocessableEntity
	case failure.KindTransport, failure.KindEmptyResult:
		return http.StatusBadGateway
	case failure.KindCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch failure.KindOf(err) {
	case failure.KindInvalidRequest:
		return "invalid request"
	case failure.KindConfig:
		return "generation service is not configured"
	case failure.KindTransport:
		return "generation service call failed"
	case failure.KindEmptyResult:
		return "generation produced no content"
	case failure.KindTranscode:
		return "audio could not be converted"
	case failure.KindRecognition:
		return "speech recognition failed"
	case failure.KindCancelled:
		return "request cancelled"
	default:
		return "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	hlog.FromRequest(r).Warn().Err(err).Int("status", status).Msg("Request failed")
	writeJSON(w, status, errorResponse{Error: messageFor(err), Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
