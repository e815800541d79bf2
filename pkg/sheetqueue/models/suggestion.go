// Package models defines the entities persisted in worksheets.
package models

import (
	"errors"
	"net/url"
	"time"
)

// MovieSuggestion is a movie submitted to the queue.
// TheMovieDbID is the unique key: resubmitting the same id updates the stored row.
type MovieSuggestion struct {
	// URL is the absolute link the suggestion was made with.
	URL URL `cell:"URL,nonempty" json:"url" yaml:"url"`
	// TheMovieDbID is the external TMDB id.
	TheMovieDbID string `cell:"TMDB ID,nonempty" json:"theMovieDbId" yaml:"theMovieDbId"`
	// Title is the movie title.
	Title string `cell:"Title,nonempty" json:"title" yaml:"title"`
	// Year is the release year as displayed (may be empty).
	Year string `cell:"Year" json:"year" yaml:"year"`
	// SentAt is when the suggestion was submitted.
	SentAt time.Time `cell:"Submitted At" json:"sentAt" yaml:"sentAt"`
	// SentBy is the submitter's user id.
	SentBy string `cell:"Submitted By,nonempty" json:"sentBy" yaml:"sentBy"`
}

// ErrRelativeURL indicates a URL without scheme or host.
var ErrRelativeURL = errors.New("URL must be absolute")

// URL is an absolute URL that encodes to and from its string form.
type URL struct {
	url.URL
}

// ParseURL parses raw and requires it to be absolute with a host.
func ParseURL(raw string) (URL, error) {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return URL{}, err
	}
	parsed := URL{URL: *u}
	if err := parsed.Validate(); err != nil {
		return URL{}, err
	}
	return parsed, nil
}

// MustParseURL is like ParseURL but panics on error. Intended for tests and constants.
func MustParseURL(raw string) URL {
	u, err := ParseURL(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// IsZero reports whether the URL is unset.
func (u URL) IsZero() bool {
	return u.URL == (url.URL{})
}

// Validate checks the URL is absolute.
func (u URL) Validate() error {
	if !u.IsAbs() || u.Host == "" {
		return ErrRelativeURL
	}
	return nil
}

// String returns the URL in its absolute string form.
func (u URL) String() string {
	return u.URL.String()
}

// MarshalText implements encoding.TextMarshaler.
func (u URL) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *URL) UnmarshalText(text []byte) error {
	parsed, err := ParseURL(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
