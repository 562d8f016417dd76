package nav

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the top-level menu selection.
type Mode string

const (
	ModeSearch Mode = "search"
	ModeBrowse Mode = "browse"
)

// Screen is what a render pass shows.
type Screen string

const (
	ScreenSearch Screen = "search"
	ScreenBrowse Screen = "browse"
	ScreenDetail Screen = "detail"
)

var (
	// ErrDetailActive is returned when the menu is used while the detail screen is showing.
	ErrDetailActive = errors.New("detail view is active")
	// ErrInvalidMovieID is returned for non-positive movie ids.
	ErrInvalidMovieID = errors.New("invalid movie id")
	// ErrUnknownMode is returned for unrecognised menu selections.
	ErrUnknownMode = errors.New("unknown navigation mode")
)

// State is one session's navigation position. It is a plain value: every
// transition returns the next state and leaves the receiver untouched.
type State struct {
	Mode    Mode `json:"mode"`
	MovieID int  `json:"movieId,omitempty"`
	Detail  bool `json:"detail,omitempty"`
}

// New returns the initial state.
func New() State {
	return State{Mode: ModeSearch}
}

// ParseMode accepts "search" or "browse".
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeSearch:
		return ModeSearch, nil
	case ModeBrowse:
		return ModeBrowse, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

// Screen reports the active screen. Detail takes precedence over the mode.
func (s State) Screen() Screen {
	if s.Detail {
		return ScreenDetail
	}
	if s.Mode == ModeBrowse {
		return ScreenBrowse
	}
	return ScreenSearch
}

// SelectMode switches the top-level mode.
func (s State) SelectMode(m Mode) (State, error) {
	if m != ModeSearch && m != ModeBrowse {
		return s, fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	if s.Detail {
		return s, ErrDetailActive
	}
	s.Mode = m
	return s, nil
}

// ShowDetails opens the detail screen for movieID. The current mode is kept
// so Back can return to it.
func (s State) ShowDetails(movieID int) (State, error) {
	if movieID <= 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidMovieID, movieID)
	}
	s.MovieID = movieID
	s.Detail = true
	return s, nil
}

// Back leaves the detail screen. Outside detail it changes nothing.
func (s State) Back() State {
	s.MovieID = 0
	s.Detail = false
	return s
}

// Normalize repairs states decoded from untrusted storage.
func (s State) Normalize() State {
	if s.Mode != ModeSearch && s.Mode != ModeBrowse {
		s.Mode = ModeSearch
	}
	if !s.Detail || s.MovieID <= 0 {
		s.Detail = false
		s.MovieID = 0
	}
	return s
}
