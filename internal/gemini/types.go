package gemini

import (
	"errors"
	"fmt"
	"strings"

	"dreamsnap-booth/internal/media"
)

var (
	ErrNotConfigured = errors.New("gemini API key not configured")
	ErrNoImage       = errors.New("no image produced")
)

// EditRequest asks the model to restyle Photo. Reference, when present, is
// sent after the photo as a style guide.
type EditRequest struct {
	Prompt      string
	Photo       media.Image
	Reference   media.Image
	AspectRatio string
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API %d: %s", e.Status, e.Message)
}

func (e *APIError) StatusCode() int {
	return e.Status
}

const (
	MsgAuth       = "Invalid API key or authentication failed"
	MsgRateLimit  = "Rate limit exceeded. Please try again later"
	MsgPermission = "API access forbidden. Check your API key permissions"
)

// UserMessage maps a generation failure to the text shown on the kiosk.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	status := 0
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Status
	}
	text := err.Error()
	lower := strings.ToLower(text)

	switch {
	case errors.Is(err, ErrNotConfigured) || status == 401 || strings.Contains(text, "API key"):
		return MsgAuth
	case status == 429 || strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return MsgRateLimit
	case status == 403 || strings.Contains(lower, "permission"):
		return MsgPermission
	}
	return "Failed to generate image: " + text
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64      `json:"temperature,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiStatus  `json:"error,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type errorEnvelope struct {
	Error apiStatus `json:"error"`
}
