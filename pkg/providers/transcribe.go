package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MoXuan9X/GoodSleep/pkg/config"
)

const transcribeTimeout = 90 * time.Second

// Transcriber proxies audio to the provider's speech-to-text endpoint.
type Transcriber struct {
	providerName string
	apiBase      string
	defaultModel string
	auth         AuthStrategy
	httpClient   *http.Client
}

// NewTranscriber builds a transcription client against the active
// provider's credentials. Only SiliconFlow exposes the audio endpoint, so
// the SiliconFlow key is used regardless of the chat provider.
func NewTranscriber(cfg *config.Config) (*Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	apiKey := strings.TrimSpace(cfg.Providers.SiliconFlow.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("SiliconFlow API key is required for transcription")
	}
	apiBase := strings.TrimSpace(cfg.Providers.SiliconFlow.APIBase)
	if apiBase == "" {
		apiBase = defaultSiliconFlowAPIBase
	}

	return &Transcriber{
		providerName: ProviderSiliconFlow,
		apiBase:      strings.TrimRight(apiBase, "/"),
		defaultModel: strings.TrimSpace(cfg.Transcribe.Model),
		auth:         NewBearerAuth(NewStaticTokenSource(apiKey, "providers.siliconflow.api_key")),
		httpClient:   &http.Client{Timeout: transcribeTimeout},
	}, nil
}

// TranscriptionResult is the parsed speech-to-text payload.
type TranscriptionResult struct {
	Text string `json:"text"`
}

// Transcribe uploads one audio file and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader, model string) (*TranscriptionResult, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = t.defaultModel
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	endpoint := t.apiBase + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := t.auth.Apply(ctx, req); err != nil {
		return nil, fmt.Errorf("apply transcription auth: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Provider: t.providerName, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Provider: t.providerName, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ServiceError{
			Provider:   t.providerName,
			StatusCode: resp.StatusCode,
			Message:    extractAPIError(respBody),
		}
	}

	var result TranscriptionResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse transcription response: %w", err)
	}
	return &result, nil
}
