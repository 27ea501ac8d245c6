package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"dreamsnap-booth/internal/media"
)

const defaultImageModel = "gemini-2.5-flash-image"

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// EditImage streams a restyled version of req.Photo back from the model.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (media.Image, error) {
	if c.apiKey == "" {
		return media.Image{}, ErrNotConfigured
	}
	if req.Photo.Empty() {
		return media.Image{}, errors.New("photo is empty")
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: buildParts(req)}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
	if req.AspectRatio != "" {
		payload.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio}
	}

	img, err := c.streamGenerateContent(ctx, payload)
	if err != nil && payload.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		c.logger.Warn("imageConfig rejected, retrying without it", "model", c.model)
		payload.GenerationConfig.ImageConfig = nil
		return c.streamGenerateContent(ctx, payload)
	}
	return img, err
}

func buildParts(req EditRequest) []part {
	prompt := strings.TrimSpace(req.Prompt)
	parts := []part{
		{Text: prompt},
		{InlineData: &blob{Data: req.Photo.Base64(), MimeType: req.Photo.Mime()}},
	}
	if !req.Reference.Empty() {
		parts = append(parts, part{InlineData: &blob{Data: req.Reference.Base64(), MimeType: req.Reference.Mime()}})
	}
	return parts
}

func (c *Client) streamGenerateContent(ctx context.Context, payload generateContentRequest) (media.Image, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return media.Image{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.apiVersion, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return media.Image{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return media.Image{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		rawBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64*1024))
		return media.Image{}, newAPIError(httpResp.StatusCode, rawBody)
	}

	var acc Accumulator
	chunks := 0
	err = readSSE(httpResp.Body, func(data []byte) (bool, error) {
		chunk, err := decodeChunk(data)
		if err != nil {
			return true, err
		}
		chunks++
		return acc.Add(chunk)
	})
	if err != nil {
		return media.Image{}, err
	}

	img, err := acc.Finish()
	c.logger.Debug("gemini stream finished", "model", c.model, "chunks", chunks, "image_bytes", len(img.Data))
	return img, err
}

func newAPIError(status int, raw []byte) *APIError {
	msg := strings.TrimSpace(string(raw))
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		msg = env.Error.Message
	}
	return &APIError{Status: status, Message: msg}
}

func isUnknownFieldError(err error, field string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		return false
	}
	return strings.Contains(apiErr.Message, "Unknown name") && strings.Contains(apiErr.Message, field)
}
