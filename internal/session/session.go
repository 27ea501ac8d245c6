package session

import (
	"errors"
	"fmt"
	"time"

	"dreamsnap-booth/internal/lead"
	"dreamsnap-booth/internal/media"
)

// BurstSize is the number of frames one capture produces.
const BurstSize = 5

type Step string

const (
	StepCapture  Step = "capture"
	StepSelect   Step = "select"
	StepTheme    Step = "theme"
	StepGenerate Step = "generate"
	StepPreview  Step = "preview"
	StepForm     Step = "form"
	StepSuccess  Step = "success"
)

type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid step transition")
	ErrPhotoNotInSession = errors.New("photo is not part of this session")
	ErrIncompleteBurst   = errors.New("capture burst is incomplete")
	ErrNoSelection       = errors.New("no photo selected")
	ErrNoTheme           = errors.New("no theme selected")
	ErrNoFinalImage      = errors.New("no final image")
	ErrWrongStep         = errors.New("operation not allowed in current step")
)

type Photo struct {
	Index      int         `json:"index"`
	Image      media.Image `json:"-"`
	CapturedAt time.Time   `json:"capturedAt"`
}

// Submission is the kiosk-facing summary of a finished submission.
type Submission struct {
	LeadID      string            `json:"leadId,omitempty"`
	LeadSaved   bool              `json:"leadSaved"`
	DownloadURL string            `json:"downloadUrl,omitempty"`
	GalleryURL  string            `json:"galleryUrl,omitempty"`
	Outcomes    map[string]string `json:"outcomes,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type Session struct {
	ID    string `json:"id"`
	Epoch int    `json:"epoch"`
	Step  Step   `json:"step"`

	Photos    []Photo `json:"photos"`
	Selected  int     `json:"selected"`
	ThemeID   string  `json:"themeId,omitempty"`
	ThemeName string  `json:"themeName,omitempty"`

	Generated media.Image `json:"-"`
	Final     media.Image `json:"-"`

	Lead       *lead.Lead  `json:"lead,omitempty"`
	Submission *Submission `json:"submission,omitempty"`

	Facing      Facing `json:"facing"`
	Portrait    bool   `json:"portrait"`
	Capturing   bool   `json:"capturing"`
	Countdown   int    `json:"countdown"`
	CameraError string `json:"cameraError,omitempty"`

	Generating bool   `json:"generating"`
	Progress   int    `json:"progress"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`

	Submitting bool `json:"submitting"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Step:      StepCapture,
		Selected:  -1,
		Facing:    FacingUser,
		Portrait:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) HasGenerated() bool { return !s.Generated.Empty() }
func (s Session) HasFinal() bool     { return !s.Final.Empty() }

// SelectedPhoto returns the chosen photo, if any.
func (s Session) SelectedPhoto() (Photo, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Photos) {
		return Photo{}, false
	}
	return s.Photos[s.Selected], true
}

// SelectPhoto sets the selection. Indices outside the captured burst are
// rejected and leave the selection untouched.
func (s *Session) SelectPhoto(index int) error {
	if s.Step != StepSelect {
		return fmt.Errorf("%w: select photo in %s", ErrWrongStep, s.Step)
	}
	if index < 0 || index >= len(s.Photos) {
		return fmt.Errorf("%w: index %d", ErrPhotoNotInSession, index)
	}
	s.Selected = index
	return nil
}

func (s *Session) SetTheme(id, name string) error {
	if s.Step != StepTheme {
		return fmt.Errorf("%w: select theme in %s", ErrWrongStep, s.Step)
	}
	s.ThemeID = id
	s.ThemeName = name
	return nil
}

type edge struct {
	from, to Step
}

var transitions = map[edge]func(*Session) error{
	{StepCapture, StepSelect}: func(s *Session) error {
		if len(s.Photos) != BurstSize {
			return ErrIncompleteBurst
		}
		return nil
	},
	{StepSelect, StepCapture}: nil,
	{StepSelect, StepTheme}: func(s *Session) error {
		if _, ok := s.SelectedPhoto(); !ok {
			return ErrNoSelection
		}
		return nil
	},
	{StepTheme, StepSelect}: nil,
	{StepTheme, StepGenerate}: func(s *Session) error {
		if _, ok := s.SelectedPhoto(); !ok {
			return ErrNoSelection
		}
		if s.ThemeID == "" {
			return ErrNoTheme
		}
		return nil
	},
	{StepGenerate, StepPreview}: func(s *Session) error {
		if !s.HasFinal() {
			return ErrNoFinalImage
		}
		return nil
	},
	{StepGenerate, StepTheme}: nil,
	{StepPreview, StepForm}: func(s *Session) error {
		if !s.HasFinal() {
			return ErrNoFinalImage
		}
		return nil
	},
	{StepPreview, StepTheme}: nil,
	{StepForm, StepPreview}:  nil,
	{StepForm, StepSuccess}: func(s *Session) error {
		if !s.HasFinal() {
			return ErrNoFinalImage
		}
		return nil
	},
}

// CanGoto reports whether the edge exists and its guard passes.
func (s Session) CanGoto(to Step) error {
	guard, ok := transitions[edge{s.Step, to}]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Step, to)
	}
	if guard != nil {
		if err := guard(&s); err != nil {
			return err
		}
	}
	return nil
}

// Goto moves to another step and applies the entry side effects of the
// back-edges: going back to capture drops the burst, going back to theme
// drops any generated result.
func (s *Session) Goto(to Step) error {
	if err := s.CanGoto(to); err != nil {
		return err
	}

	switch {
	case to == StepCapture:
		s.clearBurst()
	case to == StepTheme && (s.Step == StepGenerate || s.Step == StepPreview):
		s.Generated = media.Image{}
		s.Final = media.Image{}
		s.Progress = 0
		s.Status = ""
	}

	s.Error = ""
	s.Step = to
	return nil
}

func (s *Session) clearBurst() {
	s.Photos = nil
	s.Selected = -1
	s.Countdown = 0
}

// Reset starts over. Device state survives, everything else is dropped and
// the epoch moves on so in-flight work can tell it is stale.
func (s *Session) Reset() {
	fresh := newSession(s.ID, s.CreatedAt)
	fresh.Epoch = s.Epoch + 1
	fresh.Facing = s.Facing
	fresh.Portrait = s.Portrait
	fresh.CameraError = s.CameraError
	*s = fresh
}

func (s Session) clone() Session {
	out := s
	out.Photos = append([]Photo(nil), s.Photos...)
	if s.Lead != nil {
		l := *s.Lead
		out.Lead = &l
	}
	if s.Submission != nil {
		sub := *s.Submission
		if s.Submission.Outcomes != nil {
			sub.Outcomes = make(map[string]string, len(s.Submission.Outcomes))
			for k, v := range s.Submission.Outcomes {
				sub.Outcomes[k] = v
			}
		}
		out.Submission = &sub
	}
	return out
}
