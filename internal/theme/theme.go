package theme

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTheme  = errors.New("unknown theme")
	ErrThemeDisabled = errors.New("theme is disabled")
)

// FacePolicy decides how strictly the generated portrait keeps the subject's
// face.
type FacePolicy int

const (
	// FaceStrict keeps facial structure identical; only lighting may change.
	FaceStrict FacePolicy = iota
	// FaceIdentity is strict and also pins ethnicity and skin tone, and allows
	// two subjects to be rendered together.
	FaceIdentity
	// FaceStylized redraws the subject in an art style while keeping a
	// recognizable resemblance.
	FaceStylized
)

type Theme struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PreviewImage   string `json:"previewImage"`
	ReferenceImage string `json:"referenceImage,omitempty"`
	ThemeImage     string `json:"themeImage,omitempty"`
	Category       string `json:"category,omitempty"`
	Disabled       bool   `json:"disabled,omitempty"`

	Face    FacePolicy `json:"-"`
	Subject string     `json:"-"`
	Attire  []string   `json:"-"`
	Scene   []string   `json:"-"`
	Style   []string   `json:"-"`
}

// Summary is the catalog entry without prompt internals.
type Summary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PreviewImage string `json:"previewImage"`
	ThemeImage   string `json:"themeImage,omitempty"`
	Category     string `json:"category,omitempty"`
	Disabled     bool   `json:"disabled,omitempty"`
}

func (t Theme) Summary() Summary {
	return Summary{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		PreviewImage: t.PreviewImage,
		ThemeImage:   t.ThemeImage,
		Category:     t.Category,
		Disabled:     t.Disabled,
	}
}

// All returns a copy of the catalog in display order.
func All() []Theme {
	out := make([]Theme, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, clone(t))
	}
	return out
}

func Summaries() []Summary {
	out := make([]Summary, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t.Summary())
	}
	return out
}

func ByID(id string) (Theme, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, t := range catalog {
		if t.ID == id {
			return clone(t), true
		}
	}
	return Theme{}, false
}

// Selectable resolves id for the theme picker.
func Selectable(id string) (Theme, error) {
	t, ok := ByID(id)
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, id)
	}
	if t.Disabled {
		return Theme{}, fmt.Errorf("%w: %q", ErrThemeDisabled, id)
	}
	return t, nil
}

func clone(t Theme) Theme {
	t.Attire = append([]string(nil), t.Attire...)
	t.Scene = append([]string(nil), t.Scene...)
	t.Style = append([]string(nil), t.Style...)
	return t
}
