package app

import (
	"errors"

	"moviedb/pkg/query"
)

var (
	// ErrTermRequired is returned when a title, actor or director search has no text.
	ErrTermRequired = errors.New("search term required")
	// ErrGenreRequired is returned for genre searches without a selected genre.
	ErrGenreRequired = errors.New("genre required")
	// ErrYearRequired is returned for year searches without a selected year.
	ErrYearRequired = errors.New("year required")
	// ErrInvalidRating is returned for minimum ratings outside 0-100.
	ErrInvalidRating = errors.New("minimum rating must be between 0 and 100")
	// ErrUnknownKind is returned for unsupported browse targets.
	ErrUnknownKind = errors.New("unknown browse kind")
	// ErrMovieNotFound is returned when a movie id has no row.
	ErrMovieNotFound = errors.New("movie not found")
)

// IsValidation reports whether err was caused by bad user input rather than
// the data store.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTermRequired) ||
		errors.Is(err, ErrGenreRequired) ||
		errors.Is(err, ErrYearRequired) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, query.ErrUnknownMode) ||
		errors.Is(err, query.ErrUnknownTable)
}
