package view

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"moviedb/internal/app"
	"moviedb/internal/nav"
	"moviedb/pkg/domain"
	"moviedb/pkg/query"
	"moviedb/pkg/store"
)

func testCatalog() store.Catalog {
	return store.Catalog{
		Movies: []domain.Movie{
			{ID: 1, Title: "The Matrix", ReleaseYear: 1999},
			{ID: 2, Title: "Matrix <Bootleg>", ReleaseYear: 2001},
			{ID: 3, Title: "Quiet Film", ReleaseYear: 2001},
		},
		Actors:    []domain.Actor{{ID: 10, FirstName: "Keanu", LastName: "Reeves"}},
		Directors: []domain.Director{{ID: 20, FirstName: "Lana", LastName: "Wachowski"}},
		Genres:    []domain.Genre{{ID: 30, Category: "Sci-Fi"}},
		Reviews:   []domain.Review{{ID: 40, Rating: 92, MovieID: 1}},
		Users:     []domain.User{{ID: 7, Email: "neo@example.com", ReviewID: 40}},
		ActsIn:    []domain.ActsIn{{ActorID: 10, MovieID: 1}},
		DirectedBy: []domain.DirectedBy{
			{DirectorID: 20, MovieID: 1},
		},
		BelongsTo: []domain.BelongsTo{{GenreID: 30, MovieID: 1}},
	}
}

func newRenderer(t *testing.T, s store.Store) *Renderer {
	t.Helper()
	r, err := New(app.New(s))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func render(t *testing.T, r *Renderer, st nav.State, in Input) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Render(context.Background(), &buf, st, in); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func mustContain(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Fatalf("expected %q in output:\n%s", p, body)
		}
	}
}

func mustNotContain(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if strings.Contains(body, p) {
			t.Fatalf("did not expect %q in output:\n%s", p, body)
		}
	}
}

func TestRenderDetailSuppressesMenu(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	st, _ := nav.New().ShowDetails(1)
	body := render(t, r, st, Input{})

	mustContain(t, body,
		"Movie Details",
		"The Matrix",
		"Rating: 92/100 by 7 (neo@example.com)",
		"Actor: Keanu Reeves",
		"Director: Lana Wachowski",
		"Genre: Sci-Fi",
		`action="/back"`,
	)
	mustNotContain(t, body, "Search Movies", "Browse Data")
}

func TestRenderDetailEmptySections(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	st, _ := nav.New().ShowDetails(3)
	body := render(t, r, st, Input{})
	mustContain(t, body, "No reviews yet", "No cast information", "No director information", "No genre information")
}

func TestRenderDetailMissingMovie(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	st, _ := nav.New().ShowDetails(404)
	body := render(t, r, st, Input{})
	mustContain(t, body, "Movie not found", "Back")
}

func TestRenderSearchRunsOnlyOnSubmit(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	req := app.SearchRequest{Mode: query.ModeTitle, Term: "matrix", MinRating: 80, Genre: "Sci-Fi"}

	body := render(t, r, nav.New(), Input{Search: req})
	mustNotContain(t, body, "Results:")
	mustContain(t, body, "Search Movies", "Enter movie title", `<option value="Sci-Fi" selected>`)

	body = render(t, r, nav.New(), Input{Search: req, Submitted: true})
	mustContain(t, body, "Results: 1", "The Matrix</strong> (1999)")
	mustNotContain(t, body, "Bootleg")
}

func TestRenderSearchEscapesTitles(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	body := render(t, r, nav.New(), Input{Search: app.SearchRequest{Mode: query.ModeTitle, Term: "bootleg"}, Submitted: true})
	mustContain(t, body, "Matrix &lt;Bootleg&gt;")
	mustNotContain(t, body, "<Bootleg>")
}

func TestRenderSearchNoResults(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	body := render(t, r, nav.New(), Input{Search: app.SearchRequest{Mode: query.ModeActor, Term: "nobody"}, Submitted: true})
	mustContain(t, body, "No results found")
}

func TestRenderSearchPromptsForDropdowns(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	body := render(t, r, nav.New(), Input{Search: app.SearchRequest{Mode: query.ModeGenre}, Submitted: true})
	mustContain(t, body, "Please select a genre from the dropdown filter above")
	body = render(t, r, nav.New(), Input{Search: app.SearchRequest{Mode: query.ModeYear}, Submitted: true})
	mustContain(t, body, "Please select a year from the dropdown filter above")
}

func TestRenderYearSearchShowsTitlesOnly(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	body := render(t, r, nav.New(), Input{Search: app.SearchRequest{Mode: query.ModeYear, Year: 2001}, Submitted: true})
	mustContain(t, body, "Results: 2", "Quiet Film</strong>")
	mustNotContain(t, body, "Quiet Film</strong> (2001)")
}

func TestRenderBrowse(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	st, _ := nav.New().SelectMode(nav.ModeBrowse)

	body := render(t, r, st, Input{Kind: app.KindMovies})
	mustContain(t, body, "Browse Database", "All Movies (3)", "Year: 1999", `name="movie_id" value="1"`)

	body = render(t, r, st, Input{Kind: app.KindActors})
	mustContain(t, body, "All Actors (1)", "Actor: Keanu Reeves")
}

func TestRenderBrowseEmptyTable(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(store.Catalog{}))
	st, _ := nav.New().SelectMode(nav.ModeBrowse)
	body := render(t, r, st, Input{Kind: app.KindGenres})
	mustContain(t, body, "No genres found")
	mustNotContain(t, body, "All Genres (0)")
}

func TestRenderInlineErrorsWhenStoreIsDown(t *testing.T) {
	s := store.NewMemoryStore(testCatalog())
	_ = s.Close()
	r := newRenderer(t, s)

	browse, _ := nav.New().SelectMode(nav.ModeBrowse)
	mustContain(t, render(t, r, browse, Input{}), MsgDatabaseUnavailable)

	detail, _ := nav.New().ShowDetails(1)
	mustContain(t, render(t, r, detail, Input{}), MsgDatabaseUnavailable, "Back")

	body := render(t, r, nav.New(), Input{Search: app.SearchRequest{Term: "matrix"}, Submitted: true})
	mustContain(t, body, MsgDatabaseUnavailable, `<option value="90">`)
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(store.ErrQuery); got != MsgQueryFailed {
		t.Fatalf("query error message: %q", got)
	}
	if got := ErrorMessage(store.ErrConnection); got != MsgDatabaseUnavailable {
		t.Fatalf("connection error message: %q", got)
	}
}

func TestRenderSearchDefaultButtonRunsSearch(t *testing.T) {
	r := newRenderer(t, store.NewMemoryStore(testCatalog()))
	for _, mode := range query.Modes {
		body := render(t, r, nav.New(), Input{Search: app.SearchRequest{Mode: mode}})
		// Implicit submission (Enter in a text field) uses the form's first submit button.
		i := strings.Index(body, `<button type="submit"`)
		if i < 0 {
			t.Fatalf("%s: no submit button in:\n%s", mode, body)
		}
		first := body[i : i+strings.Index(body[i:], ">")+1]
		if first != `<button type="submit" name="submit" value="1">` {
			t.Fatalf("%s: first submit button is %q", mode, first)
		}
	}
}
