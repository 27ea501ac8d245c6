package lead

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Form is what the kiosk posts. Country code is the dial prefix ("+1").
type Form struct {
	FullName           string `json:"fullName" validate:"required,min=2,max=120"`
	InstagramHandle1   string `json:"instagramHandle1" validate:"omitempty,max=31"`
	InstagramHandle2   string `json:"instagramHandle2" validate:"omitempty,max=31"`
	PhoneNumber        string `json:"phoneNumber"`
	CountryCode        string `json:"countryCode"`
	ConsentGiven       bool   `json:"consentGiven"`
	WouldPayForProduct *bool  `json:"wouldPayForProduct,omitempty"`
}

// Lead is a validated, normalized contact record ready to persist.
type Lead struct {
	ID                 uuid.UUID `json:"id"`
	FullName           string    `json:"fullName"`
	InstagramHandle1   string    `json:"instagramHandle1,omitempty"`
	InstagramHandle2   string    `json:"instagramHandle2,omitempty"`
	PhoneNumber        string    `json:"phoneNumber"`
	CountryCode        string    `json:"countryCode"`
	ConsentGiven       bool      `json:"consentGiven"`
	ThemeSelected      string    `json:"themeSelected"`
	EventID            string    `json:"eventId"`
	WouldPayForProduct *bool     `json:"wouldPayForProduct,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (l Lead) Handles() []string {
	var out []string
	for _, h := range []string{l.InstagramHandle1, l.InstagramHandle2} {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func (l Lead) FullPhone() string {
	return l.CountryCode + l.PhoneNumber
}

// NormalizeHandle trims the input and makes sure it carries exactly one
// leading "@". Blank input stays blank.
func NormalizeHandle(handle string) string {
	h := strings.TrimLeft(strings.TrimSpace(handle), "@")
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	return "@" + h
}

func digitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

// Build turns a valid form into a Lead. The caller must have checked
// Validate first.
func Build(form Form, themeName, eventID string, now time.Time) Lead {
	theme := strings.TrimSpace(themeName)
	if theme == "" {
		theme = "Unknown"
	}
	return Lead{
		ID:                 uuid.New(),
		FullName:           strings.TrimSpace(form.FullName),
		InstagramHandle1:   NormalizeHandle(form.InstagramHandle1),
		InstagramHandle2:   NormalizeHandle(form.InstagramHandle2),
		PhoneNumber:        digitsOnly(form.PhoneNumber),
		CountryCode:        normalizeCountryCode(form.CountryCode),
		ConsentGiven:       form.ConsentGiven,
		ThemeSelected:      theme,
		EventID:            eventID,
		WouldPayForProduct: form.WouldPayForProduct,
		CreatedAt:          now.UTC(),
	}
}

func normalizeCountryCode(code string) string {
	digits := digitsOnly(code)
	if digits == "" {
		return ""
	}
	return "+" + digits
}
