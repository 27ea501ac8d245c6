package gemini

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"dreamsnap-booth/internal/media"
)

type StreamState int

const (
	StreamPending StreamState = iota
	StreamImageFound
	StreamEndedWithoutImage
)

// Accumulator folds streamed chunks into a single outcome. The first chunk
// carrying inline image bytes wins; later chunks are ignored.
type Accumulator struct {
	state StreamState
	image media.Image
	text  strings.Builder
}

func (a *Accumulator) State() StreamState {
	return a.state
}

// Add consumes one chunk and reports whether an image has been found.
func (a *Accumulator) Add(chunk generateContentResponse) (bool, error) {
	if a.state != StreamPending {
		return a.state == StreamImageFound, nil
	}

	for _, cand := range chunk.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				a.text.WriteString(p.Text)
			}
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return false, fmt.Errorf("decode inline image: %w", err)
			}
			mime := strings.TrimSpace(p.InlineData.MimeType)
			if mime == "" {
				mime = media.DefaultMIME
			}
			a.image = media.Image{Data: data, MimeType: mime}
			a.state = StreamImageFound
			return true, nil
		}
	}
	return false, nil
}

// Finish closes the stream and returns the image or ErrNoImage.
func (a *Accumulator) Finish() (media.Image, error) {
	if a.state == StreamImageFound {
		return a.image, nil
	}
	a.state = StreamEndedWithoutImage
	if text := strings.TrimSpace(a.text.String()); text != "" {
		return media.Image{}, fmt.Errorf("%w: model replied %q", ErrNoImage, truncate(text, 200))
	}
	return media.Image{}, ErrNoImage
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

const maxEventBytes = 64 << 20

// readSSE feeds every "data:" event of an SSE body to fn until fn asks to stop
// or the body ends.
func readSSE(r io.Reader, fn func(payload []byte) (stop bool, err error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)

	var event bytes.Buffer
	flush := func() (bool, error) {
		if event.Len() == 0 {
			return false, nil
		}
		payload := bytes.TrimSpace(event.Bytes())
		event.Reset()
		if len(payload) == 0 || bytes.Equal(payload, []byte("[DONE]")) {
			return false, nil
		}
		return fn(payload)
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			stop, err := flush()
			if err != nil || stop {
				return err
			}
			continue
		}
		if bytes.HasPrefix(line, []byte("data:")) {
			event.Write(bytes.TrimPrefix(line, []byte("data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	_, err := flush()
	return err
}

func decodeChunk(payload []byte) (generateContentResponse, error) {
	var chunk generateContentResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return chunk, fmt.Errorf("decode chunk: %w", err)
	}
	if chunk.Error != nil {
		return chunk, &APIError{Status: chunk.Error.Code, Message: chunk.Error.Message}
	}
	return chunk, nil
}
