package view

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"moviedb/internal/app"
	"moviedb/internal/nav"
	"moviedb/internal/util"
	"moviedb/pkg/domain"
	"moviedb/pkg/query"
	"moviedb/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Inline messages shown in place of a section that failed to load.
const (
	MsgDatabaseUnavailable = "Database unavailable"
	MsgQueryFailed         = "Query failed"
)

// Input carries the controls of the current request into a render pass.
type Input struct {
	Search    app.SearchRequest
	Submitted bool
	Kind      app.Kind
	Notice    string
}

// Renderer draws one full page per call.
type Renderer struct {
	app  *app.App
	tmpl *template.Template
}

// New parses the embedded templates.
func New(a *app.App) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{app: a, tmpl: tmpl}, nil
}

// ErrorMessage names the class of a data access failure for display.
func ErrorMessage(err error) string {
	if store.IsConnection(err) {
		return MsgDatabaseUnavailable
	}
	return MsgQueryFailed
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type resultLine struct {
	ID       int
	Title    string
	Year     int
	ShowYear bool
}

type searchView struct {
	Ratings      []option
	Genres       []option
	Years        []option
	Modes        []option
	OptionsError string
	TermLabel    string
	Term         string
	Info         string
	Error        string
	Ran          bool
	Results      []resultLine
}

type browseView struct {
	Kinds     []option
	Heading   string
	Empty     string
	Count     int
	Error     string
	Movies    []domain.Movie
	Actors    []domain.Actor
	Directors []domain.Director
	Genres    []domain.Genre
}

type detailView struct {
	Error          string
	NotFound       bool
	Movie          domain.Movie
	Reviews        []domain.MovieReview
	ReviewsError   string
	Cast           []domain.Actor
	CastError      string
	Directors      []domain.Director
	DirectorsError string
	Genres         []domain.Genre
	GenresError    string
}

type pageView struct {
	Screen nav.Screen
	Notice string
	Search *searchView
	Browse *browseView
	Detail *detailView
}

// Render performs one render pass. The detail screen is checked first and,
// when active, is the only thing drawn. Data access failures never abort the
// pass; they become inline messages. The returned error is only for template
// or write failures.
func (r *Renderer) Render(ctx context.Context, w io.Writer, st nav.State, in Input) error {
	p := pageView{Screen: st.Screen(), Notice: in.Notice}
	switch p.Screen {
	case nav.ScreenDetail:
		p.Detail = r.detail(ctx, st.MovieID)
	case nav.ScreenBrowse:
		p.Browse = r.browse(ctx, in.Kind)
	default:
		p.Search = r.search(ctx, in)
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", p); err != nil {
		return fmt.Errorf("render %s: %w", p.Screen, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) search(ctx context.Context, in Input) *searchView {
	req := in.Search
	if req.Mode == "" {
		req.Mode = query.ModeTitle
	}
	v := &searchView{Term: req.Term}

	opts, err := r.app.FilterOptions(ctx)
	if err != nil {
		logFailure(ctx, "filter options", err)
		v.OptionsError = ErrorMessage(err)
	}
	for _, n := range opts.Ratings {
		v.Ratings = append(v.Ratings, option{Value: strconv.Itoa(n), Label: strconv.Itoa(n), Selected: n == req.MinRating})
	}
	for _, g := range opts.Genres {
		v.Genres = append(v.Genres, option{Value: g, Label: g, Selected: g == req.Genre})
	}
	for _, y := range opts.Years {
		v.Years = append(v.Years, option{Value: strconv.Itoa(y), Label: strconv.Itoa(y), Selected: y == req.Year})
	}
	for _, m := range query.Modes {
		v.Modes = append(v.Modes, option{Value: string(m), Label: m.Label(), Selected: m == req.Mode})
	}

	switch req.Mode {
	case query.ModeTitle:
		v.TermLabel = "Enter movie title"
	case query.ModeActor:
		v.TermLabel = "Enter actor name"
	case query.ModeDirector:
		v.TermLabel = "Enter director name"
	}

	_, err = req.Criteria()
	switch {
	case errors.Is(err, app.ErrGenreRequired):
		v.Info = "Please select a genre from the dropdown filter above"
		return v
	case errors.Is(err, app.ErrYearRequired):
		v.Info = "Please select a year from the dropdown filter above"
		return v
	case errors.Is(err, app.ErrTermRequired):
		return v
	case err != nil:
		v.Error = err.Error()
		return v
	}
	if !in.Submitted {
		return v
	}

	movies, err := r.app.Search(ctx, req)
	if err != nil {
		logFailure(ctx, "search", err)
		v.Error = ErrorMessage(err)
		return v
	}
	v.Ran = true
	for _, m := range movies {
		v.Results = append(v.Results, resultLine{
			ID:       m.ID,
			Title:    m.Title,
			Year:     m.ReleaseYear,
			ShowYear: req.Mode != query.ModeYear,
		})
	}
	return v
}

func (r *Renderer) browse(ctx context.Context, kind app.Kind) *browseView {
	if kind == "" {
		kind = app.KindMovies
	}
	v := &browseView{Heading: kind.Label(), Empty: kind.EmptyMessage()}
	for _, k := range app.Kinds {
		v.Kinds = append(v.Kinds, option{Value: string(k), Label: k.Label(), Selected: k == kind})
	}
	res, err := r.app.Browse(ctx, kind)
	if err != nil {
		logFailure(ctx, "browse "+string(kind), err)
		v.Error = ErrorMessage(err)
		return v
	}
	v.Count = res.Count()
	v.Movies = res.Movies
	v.Actors = res.Actors
	v.Directors = res.Directors
	v.Genres = res.Genres
	return v
}

func (r *Renderer) detail(ctx context.Context, movieID int) *detailView {
	v := &detailView{}
	page, err := r.app.DetailPage(ctx, movieID)
	if errors.Is(err, app.ErrMovieNotFound) {
		v.NotFound = true
		return v
	}
	if err != nil {
		logFailure(ctx, "movie", err)
		v.Error = ErrorMessage(err)
		return v
	}
	v.Movie = page.Movie
	v.Reviews, v.ReviewsError = page.Reviews.Items, sectionError(ctx, "reviews", page.Reviews.Err)
	v.Cast, v.CastError = page.Cast.Items, sectionError(ctx, "cast", page.Cast.Err)
	v.Directors, v.DirectorsError = page.Directors.Items, sectionError(ctx, "directors", page.Directors.Err)
	v.Genres, v.GenresError = page.Genres.Items, sectionError(ctx, "genres", page.Genres.Err)
	return v
}

func sectionError(ctx context.Context, op string, err error) string {
	if err == nil {
		return ""
	}
	logFailure(ctx, op, err)
	return ErrorMessage(err)
}

func logFailure(ctx context.Context, op string, err error) {
	util.LoggerFromContext(ctx).Warn("data access failed", "op", op, "err", err)
}
