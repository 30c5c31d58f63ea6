// Package server exposes the reflection session over an HTTP API for the
// web frontend, including the audio transcription proxy.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MoXuan9X/GoodSleep/pkg/logger"
	"github.com/MoXuan9X/GoodSleep/pkg/providers"
	"github.com/MoXuan9X/GoodSleep/pkg/reflection"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// maxAudioUploadBytes caps voice note uploads at 25 MB.
const maxAudioUploadBytes = 25 << 20

// SessionController is the slice of the lifecycle controller the HTTP
// surface needs.
type SessionController interface {
	State(ctx context.Context) (session.State, error)
	RunTurn(ctx context.Context, userText string) (session.State, error)
	Reset(ctx context.Context) (session.State, error)
}

// Handler serves the session API.
type Handler struct {
	controller  SessionController
	transcriber *providers.Transcriber
	model       string
}

// NewHandler builds the API handler. transcriber may be nil when no
// transcription key is configured; the endpoint then reports the missing
// key instead of failing at startup.
func NewHandler(controller SessionController, transcriber *providers.Transcriber, transcribeModel string) *Handler {
	return &Handler{controller: controller, transcriber: transcriber, model: transcribeModel}
}

// RegisterRoutes mounts the API on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Post("/session/messages", h.PostMessage)
		r.Post("/session/reset", h.ResetSession)
		r.Post("/transcribe", h.Transcribe)
	})
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// GetSession returns the canonical session state, initializing the slot on
// first access.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.controller.State(r.Context())
	if err != nil {
		logger.ErrorCF("server", "Failed to load session", map[string]interface{}{"error": err.Error()})
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	JSON(w, http.StatusOK, state)
}

type postMessageRequest struct {
	Message string `json:"message"`
}

// PostMessage runs one conversation turn. A failed turn leaves the session
// untouched and tells the client to retry.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is empty")
		return
	}

	state, err := h.controller.RunTurn(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, reflection.ErrTurnInFlight) {
			Error(w, http.StatusConflict, "a turn is already in flight")
			return
		}
		logger.WarnCF("server", "Turn failed", map[string]interface{}{"error": err.Error()})
		JSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":     reflection.TurnFailureNotice,
			"retryable": true,
		})
		return
	}

	JSON(w, http.StatusOK, state)
}

// ResetSession discards the session and returns the freshly greeted one.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.controller.Reset(r.Context())
	if err != nil {
		logger.ErrorCF("server", "Failed to reset session", map[string]interface{}{"error": err.Error()})
		Error(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	JSON(w, http.StatusOK, state)
}

// Transcribe proxies a recorded voice note to the speech recognition
// service so the browser never sees the API key.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "缺少音频文件，请重新录制后再试。")
		return
	}
	defer file.Close()

	if h.transcriber == nil {
		Error(w, http.StatusInternalServerError, "服务器缺少语音识别密钥，请联系管理员配置。")
		return
	}

	model := strings.TrimSpace(r.FormValue("model"))
	if model == "" {
		model = h.model
	}

	result, err := h.transcriber.Transcribe(r.Context(), header.Filename, file, model)
	if err != nil {
		var svcErr *providers.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode > 0 {
			logger.WarnCF("server", "Transcription service error", map[string]interface{}{
				"status": svcErr.StatusCode,
				"error":  svcErr.Message,
			})
			JSON(w, svcErr.StatusCode, map[string]interface{}{
				"error":   "语音识别服务失败，请稍后再试。",
				"status":  svcErr.StatusCode,
				"details": svcErr.Message,
			})
			return
		}
		logger.ErrorCF("server", "Transcription proxy error", map[string]interface{}{"error": err.Error()})
		Error(w, http.StatusInternalServerError, "服务器处理语音识别时出现问题，请稍后再试。")
		return
	}

	JSON(w, http.StatusOK, result)
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the session slot is reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.controller.State(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
