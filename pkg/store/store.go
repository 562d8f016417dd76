package store

import (
	"context"

	"moviedb/pkg/domain"
	"moviedb/pkg/query"
)

// Store defines read access to the movie catalog plus raw statement execution.
type Store interface {
	// raw access
	Execute(ctx context.Context, sql string, args ...any) (Result, error)
	TableRows(ctx context.Context, table query.Table) ([]Row, error)

	// search
	SearchMovies(ctx context.Context, c query.Criteria) ([]domain.Movie, error)

	// browse
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	ListActors(ctx context.Context) ([]domain.Actor, error)
	ListDirectors(ctx context.Context) ([]domain.Director, error)
	ListGenres(ctx context.Context) ([]domain.Genre, error)

	// detail
	GetMovie(ctx context.Context, id int) (domain.Movie, bool, error)
	MovieReviews(ctx context.Context, movieID int) ([]domain.MovieReview, error)
	MovieCast(ctx context.Context, movieID int) ([]domain.Actor, error)
	MovieDirectors(ctx context.Context, movieID int) ([]domain.Director, error)
	MovieGenres(ctx context.Context, movieID int) ([]domain.Genre, error)

	Ping(ctx context.Context) error
	Close() error
}

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the outcome of Execute. SELECT statements fill Rows; anything
// else is committed and reports RowsAffected.
type Result struct {
	Rows         []Row
	Committed    bool
	RowsAffected int64
}
