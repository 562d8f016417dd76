package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"moviedb/pkg/domain"
	"moviedb/pkg/query"
	"moviedb/pkg/store"
)

// RatingOptions are the minimum-rating choices offered by the search screen.
var RatingOptions = []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}

// App implements the search, browse and detail use cases on top of a Store.
type App struct {
	store store.Store
}

// New constructs the application core.
func New(s store.Store) *App {
	return &App{store: s}
}

// Ping checks the underlying store.
func (a *App) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// FilterOptions holds the values for the search screen's filter controls.
type FilterOptions struct {
	Ratings []int    `json:"ratings"`
	Genres  []string `json:"genres"`
	Years   []int    `json:"years"`
}

// FilterOptions loads every genre category and the distinct release years.
// Ratings are always present even when the lookups fail.
func (a *App) FilterOptions(ctx context.Context) (FilterOptions, error) {
	opts := FilterOptions{
		Ratings: append([]int(nil), RatingOptions...),
		Genres:  []string{},
		Years:   []int{},
	}
	genres, err := a.store.ListGenres(ctx)
	if err != nil {
		return opts, err
	}
	seenGenre := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if _, ok := seenGenre[g.Category]; ok {
			continue
		}
		seenGenre[g.Category] = struct{}{}
		opts.Genres = append(opts.Genres, g.Category)
	}

	movies, err := a.store.ListMovies(ctx)
	if err != nil {
		return opts, err
	}
	seenYear := make(map[int]struct{}, len(movies))
	for _, m := range movies {
		if _, ok := seenYear[m.ReleaseYear]; ok {
			continue
		}
		seenYear[m.ReleaseYear] = struct{}{}
		opts.Years = append(opts.Years, m.ReleaseYear)
	}
	sort.Ints(opts.Years)
	return opts, nil
}

// SearchRequest is the state of the search form. Genre and Year are the
// dropdown filters; in genre and year mode they also supply the primary value.
type SearchRequest struct {
	Mode      query.Mode
	Term      string
	MinRating int
	Genre     string
	Year      int
}

// Criteria validates the request and converts it to query criteria.
func (r SearchRequest) Criteria() (query.Criteria, error) {
	if r.MinRating < 0 || r.MinRating > 100 {
		return query.Criteria{}, fmt.Errorf("%w: %d", ErrInvalidRating, r.MinRating)
	}
	mode := r.Mode
	if mode == "" {
		mode = query.ModeTitle
	}
	term := strings.TrimSpace(r.Term)
	genre := strings.TrimSpace(r.Genre)
	c := query.Criteria{
		Mode:    mode,
		Filters: query.Filters{MinRating: r.MinRating, Genre: genre, Year: r.Year},
	}
	switch mode {
	case query.ModeTitle, query.ModeActor, query.ModeDirector:
		if term == "" {
			return query.Criteria{}, ErrTermRequired
		}
		c.Term = term
	case query.ModeGenre:
		if genre == "" {
			return query.Criteria{}, ErrGenreRequired
		}
		c.Term = genre
		c.Filters.Genre = ""
	case query.ModeYear:
		if r.Year == 0 {
			return query.Criteria{}, ErrYearRequired
		}
		c.Year = r.Year
		c.Filters.Year = 0
	default:
		return query.Criteria{}, fmt.Errorf("%w: %q", query.ErrUnknownMode, mode)
	}
	return c, nil
}

// Search runs a validated search.
func (a *App) Search(ctx context.Context, req SearchRequest) ([]domain.Movie, error) {
	c, err := req.Criteria()
	if err != nil {
		return nil, err
	}
	return a.store.SearchMovies(ctx, c)
}

// Kind selects what the browse screen lists.
type Kind string

const (
	KindMovies    Kind = "movies"
	KindActors    Kind = "actors"
	KindDirectors Kind = "directors"
	KindGenres    Kind = "genres"
)

// Kinds lists browse targets in menu order.
var Kinds = []Kind{KindMovies, KindActors, KindDirectors, KindGenres}

// ParseKind accepts a browse kind name; blank means movies.
func ParseKind(raw string) (Kind, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return KindMovies, nil
	}
	for _, k := range Kinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Label is the heading used for the kind, e.g. "All Movies".
func (k Kind) Label() string {
	switch k {
	case KindActors:
		return "All Actors"
	case KindDirectors:
		return "All Directors"
	case KindGenres:
		return "All Genres"
	default:
		return "All Movies"
	}
}

// EmptyMessage is shown when the listed table has no rows.
func (k Kind) EmptyMessage() string {
	switch k {
	case KindActors:
		return "No actors found"
	case KindDirectors:
		return "No directors found"
	case KindGenres:
		return "No genres found"
	default:
		return "No movies found"
	}
}

// BrowseResult holds one table listing; only the slice matching Kind is set.
type BrowseResult struct {
	Kind      Kind              `json:"kind"`
	Movies    []domain.Movie    `json:"movies,omitempty"`
	Actors    []domain.Actor    `json:"actors,omitempty"`
	Directors []domain.Director `json:"directors,omitempty"`
	Genres    []domain.Genre    `json:"genres,omitempty"`
}

// Count returns the number of listed rows.
func (b BrowseResult) Count() int {
	switch b.Kind {
	case KindActors:
		return len(b.Actors)
	case KindDirectors:
		return len(b.Directors)
	case KindGenres:
		return len(b.Genres)
	default:
		return len(b.Movies)
	}
}

// Browse lists a whole table.
func (a *App) Browse(ctx context.Context, kind Kind) (BrowseResult, error) {
	res := BrowseResult{Kind: kind}
	var err error
	switch kind {
	case KindMovies:
		res.Movies, err = a.store.ListMovies(ctx)
	case KindActors:
		res.Actors, err = a.store.ListActors(ctx)
	case KindDirectors:
		res.Directors, err = a.store.ListDirectors(ctx)
	case KindGenres:
		res.Genres, err = a.store.ListGenres(ctx)
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return res, err
}

// Section is one independently loaded part of the detail page.
type Section[T any] struct {
	Items []T
	Err   error
}

// DetailPage is the detail screen's data. Each section is loaded even when an
// earlier one failed, so the page can show partial results.
type DetailPage struct {
	Movie     domain.Movie
	Reviews   Section[domain.MovieReview]
	Cast      Section[domain.Actor]
	Directors Section[domain.Director]
	Genres    Section[domain.Genre]
}

// DetailPage looks up the movie and then its reviews, cast, directors and
// genres, one call at a time.
func (a *App) DetailPage(ctx context.Context, movieID int) (DetailPage, error) {
	var page DetailPage
	movie, ok, err := a.store.GetMovie(ctx, movieID)
	if err != nil {
		return page, err
	}
	if !ok {
		return page, fmt.Errorf("%w: %d", ErrMovieNotFound, movieID)
	}
	page.Movie = movie
	page.Reviews.Items, page.Reviews.Err = a.store.MovieReviews(ctx, movieID)
	page.Cast.Items, page.Cast.Err = a.store.MovieCast(ctx, movieID)
	page.Directors.Items, page.Directors.Err = a.store.MovieDirectors(ctx, movieID)
	page.Genres.Items, page.Genres.Err = a.store.MovieGenres(ctx, movieID)
	return page, nil
}

// MovieDetail is the all-or-nothing form of DetailPage.
func (a *App) MovieDetail(ctx context.Context, movieID int) (domain.MovieDetail, error) {
	page, err := a.DetailPage(ctx, movieID)
	if err != nil {
		return domain.MovieDetail{}, err
	}
	for _, sectionErr := range []error{page.Reviews.Err, page.Cast.Err, page.Directors.Err, page.Genres.Err} {
		if sectionErr != nil {
			return domain.MovieDetail{}, sectionErr
		}
	}
	return domain.MovieDetail{
		Movie:     page.Movie,
		Reviews:   nonNil(page.Reviews.Items),
		Cast:      nonNil(page.Cast.Items),
		Directors: nonNil(page.Directors.Items),
		Genres:    nonNil(page.Genres.Items),
	}, nil
}

// TableRows returns every row of a schema table by name, keyed by column.
func (a *App) TableRows(ctx context.Context, name string) (query.Table, []store.Row, error) {
	table, err := query.ParseTable(name)
	if err != nil {
		return "", nil, err
	}
	rows, err := a.store.TableRows(ctx, table)
	if err != nil {
		return table, nil, err
	}
	return table, nonNil(rows), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
