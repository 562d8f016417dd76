package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"moviedb/pkg/domain"
	"moviedb/pkg/query"
)

// Catalog is a full copy of the movie schema held in memory.
type Catalog struct {
	Movies     []domain.Movie      `yaml:"movies"`
	Actors     []domain.Actor      `yaml:"actors"`
	Directors  []domain.Director   `yaml:"directors"`
	Genres     []domain.Genre      `yaml:"genres"`
	Reviews    []domain.Review     `yaml:"reviews"`
	Users      []domain.User       `yaml:"users"`
	ActsIn     []domain.ActsIn     `yaml:"actsIn"`
	DirectedBy []domain.DirectedBy `yaml:"directedBy"`
	BelongsTo  []domain.BelongsTo  `yaml:"belongsTo"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	var c Catalog
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read catalog: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

var errStoreClosed = errors.New("memory store closed")

// MemoryStore serves a Catalog in-process with the same search semantics as
// the SQL statements in package query.
type MemoryStore struct {
	mu     sync.RWMutex
	cat    Catalog
	closed bool
}

// NewMemoryStore wraps a catalog.
func NewMemoryStore(c Catalog) *MemoryStore {
	return &MemoryStore{cat: c}
}

// Execute cannot interpret raw SQL.
func (m *MemoryStore) Execute(ctx context.Context, sqlText string, args ...any) (Result, error) {
	if err := m.check(ctx); err != nil {
		return Result{}, classify("execute", err)
	}
	return Result{}, classify("execute", fmt.Errorf("%w: raw sql on memory store", errors.ErrUnsupported))
}

// TableRows returns a table as column-keyed rows.
func (m *MemoryStore) TableRows(ctx context.Context, table query.Table) ([]Row, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("table rows", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []Row
	switch table {
	case query.TableMovie:
		for _, v := range m.cat.Movies {
			rows = append(rows, Row{"Movie_id": v.ID, "Title": v.Title, "Release_year": v.ReleaseYear})
		}
	case query.TableActor:
		for _, v := range m.cat.Actors {
			rows = append(rows, Row{"Actor_id": v.ID, "First_name": v.FirstName, "Last_name": v.LastName})
		}
	case query.TableDirector:
		for _, v := range m.cat.Directors {
			rows = append(rows, Row{"Director_id": v.ID, "First_name": v.FirstName, "Last_name": v.LastName})
		}
	case query.TableGenre:
		for _, v := range m.cat.Genres {
			rows = append(rows, Row{"Genre_id": v.ID, "Category": v.Category})
		}
	case query.TableReview:
		for _, v := range m.cat.Reviews {
			rows = append(rows, Row{"Review_id": v.ID, "Rating": v.Rating, "Movie_Movie_id": v.MovieID})
		}
	case query.TableUser:
		for _, v := range m.cat.Users {
			rows = append(rows, Row{"User_id": v.ID, "email": v.Email, "Review_Review_id": v.ReviewID})
		}
	case query.TableActsIn:
		for _, v := range m.cat.ActsIn {
			rows = append(rows, Row{"Actor_Actor_id": v.ActorID, "Movie_Movie_id": v.MovieID})
		}
	case query.TableDirectedBy:
		for _, v := range m.cat.DirectedBy {
			rows = append(rows, Row{"Director_Director_id": v.DirectorID, "Movie_Movie_id": v.MovieID})
		}
	case query.TableBelongsTo:
		for _, v := range m.cat.BelongsTo {
			rows = append(rows, Row{"Genre_Genre_id": v.GenreID, "Movie_Movie_id": v.MovieID})
		}
	default:
		return nil, fmt.Errorf("table rows: %w: %w", ErrQuery, query.ErrUnknownTable)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// SearchMovies evaluates c against the catalog.
func (m *MemoryStore) SearchMovies(ctx context.Context, c query.Criteria) ([]domain.Movie, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("search movies", err)
	}
	if _, err := c.Statement(); err != nil {
		return nil, fmt.Errorf("search movies: %w: %w", ErrQuery, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int]struct{})
	res := make([]domain.Movie, 0)
	for _, mv := range m.cat.Movies {
		if _, dup := seen[mv.ID]; dup {
			continue
		}
		if !m.matches(mv, c) {
			continue
		}
		seen[mv.ID] = struct{}{}
		res = append(res, mv)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Title != res[j].Title {
			return res[i].Title < res[j].Title
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (m *MemoryStore) matches(mv domain.Movie, c query.Criteria) bool {
	f := c.Filters
	switch c.Mode {
	case query.ModeTitle:
		if !containsFold(mv.Title, c.Term) {
			return false
		}
	case query.ModeActor:
		if !m.hasActorNamed(mv.ID, c.Term) {
			return false
		}
	case query.ModeDirector:
		if !m.hasDirectorNamed(mv.ID, c.Term) {
			return false
		}
	case query.ModeGenre:
		if !m.inGenre(mv.ID, c.Term) {
			return false
		}
		f.Genre = ""
	case query.ModeYear:
		if mv.ReleaseYear != c.Year {
			return false
		}
		f.Year = 0
	}
	if f.MinRating > 0 && !m.hasRatingAtLeast(mv.ID, f.MinRating) {
		return false
	}
	if strings.TrimSpace(f.Genre) != "" && !m.inGenre(mv.ID, f.Genre) {
		return false
	}
	if f.Year != 0 && mv.ReleaseYear != f.Year {
		return false
	}
	return true
}

func (m *MemoryStore) hasActorNamed(movieID int, term string) bool {
	for _, link := range m.cat.ActsIn {
		if link.MovieID != movieID {
			continue
		}
		for _, a := range m.cat.Actors {
			if a.ID == link.ActorID && containsFold(a.FirstName+" "+a.LastName, term) {
				return true
			}
		}
	}
	return false
}

func (m *MemoryStore) hasDirectorNamed(movieID int, term string) bool {
	for _, link := range m.cat.DirectedBy {
		if link.MovieID != movieID {
			continue
		}
		for _, d := range m.cat.Directors {
			if d.ID == link.DirectorID && containsFold(d.FirstName+" "+d.LastName, term) {
				return true
			}
		}
	}
	return false
}

func (m *MemoryStore) inGenre(movieID int, genre string) bool {
	for _, link := range m.cat.BelongsTo {
		if link.MovieID != movieID {
			continue
		}
		for _, g := range m.cat.Genres {
			if g.ID == link.GenreID && containsFold(g.Category, genre) {
				return true
			}
		}
	}
	return false
}

func (m *MemoryStore) hasRatingAtLeast(movieID, threshold int) bool {
	for _, r := range m.cat.Reviews {
		if r.MovieID == movieID && r.Rating >= threshold {
			return true
		}
	}
	return false
}

// ListMovies returns all movies.
func (m *MemoryStore) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("list movies", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Movie{}, m.cat.Movies...), nil
}

// ListActors returns all actors.
func (m *MemoryStore) ListActors(ctx context.Context) ([]domain.Actor, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("list actors", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Actor{}, m.cat.Actors...), nil
}

// ListDirectors returns all directors.
func (m *MemoryStore) ListDirectors(ctx context.Context) ([]domain.Director, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("list directors", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Director{}, m.cat.Directors...), nil
}

// ListGenres returns all genres.
func (m *MemoryStore) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("list genres", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Genre{}, m.cat.Genres...), nil
}

// GetMovie looks up a movie by ID.
func (m *MemoryStore) GetMovie(ctx context.Context, id int) (domain.Movie, bool, error) {
	if err := m.check(ctx); err != nil {
		return domain.Movie{}, false, classify("get movie", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mv := range m.cat.Movies {
		if mv.ID == id {
			return mv, true, nil
		}
	}
	return domain.Movie{}, false, nil
}

// MovieReviews returns reviews joined to the users that wrote them.
func (m *MemoryStore) MovieReviews(ctx context.Context, movieID int) ([]domain.MovieReview, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("movie reviews", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.MovieReview, 0)
	for _, r := range m.cat.Reviews {
		if r.MovieID != movieID {
			continue
		}
		for _, u := range m.cat.Users {
			if u.ReviewID == r.ID {
				res = append(res, domain.MovieReview{Rating: r.Rating, UserID: u.ID, Email: u.Email})
			}
		}
	}
	return res, nil
}

// MovieCast returns the movie's actors.
func (m *MemoryStore) MovieCast(ctx context.Context, movieID int) ([]domain.Actor, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("movie cast", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Actor, 0)
	for _, link := range m.cat.ActsIn {
		if link.MovieID != movieID {
			continue
		}
		for _, a := range m.cat.Actors {
			if a.ID == link.ActorID {
				res = append(res, a)
			}
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// MovieDirectors returns the movie's directors.
func (m *MemoryStore) MovieDirectors(ctx context.Context, movieID int) ([]domain.Director, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("movie directors", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Director, 0)
	for _, link := range m.cat.DirectedBy {
		if link.MovieID != movieID {
			continue
		}
		for _, d := range m.cat.Directors {
			if d.ID == link.DirectorID {
				res = append(res, d)
			}
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// MovieGenres returns the movie's genres.
func (m *MemoryStore) MovieGenres(ctx context.Context, movieID int) ([]domain.Genre, error) {
	if err := m.check(ctx); err != nil {
		return nil, classify("movie genres", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Genre, 0)
	for _, link := range m.cat.BelongsTo {
		if link.MovieID != movieID {
			continue
		}
		for _, g := range m.cat.Genres {
			if g.ID == link.GenreID {
				res = append(res, g)
			}
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// Ping fails once the store is closed.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return classify("ping", m.check(ctx))
}

// Close marks the store unusable; later calls fail with ErrConnection.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("%w: %w", ErrConnection, errStoreClosed)
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
