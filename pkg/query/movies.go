package query

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the primary search predicate.
type Mode string

const (
	ModeTitle    Mode = "title"
	ModeActor    Mode = "actor"
	ModeDirector Mode = "director"
	ModeGenre    Mode = "genre"
	ModeYear     Mode = "year"
)

// Modes lists search modes in the order the UI offers them.
var Modes = []Mode{ModeTitle, ModeActor, ModeDirector, ModeGenre, ModeYear}

var ErrUnknownMode = errors.New("unknown search mode")

// Label is the human-facing name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeTitle:
		return "Title"
	case ModeActor:
		return "Actor"
	case ModeDirector:
		return "Director"
	case ModeGenre:
		return "Genre"
	case ModeYear:
		return "Year"
	default:
		return string(m)
	}
}

// ParseMode accepts a mode name case-insensitively. Blank means title.
func ParseMode(raw string) (Mode, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ModeTitle, nil
	}
	for _, m := range Modes {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

// Filters are the optional restrictions shared by all modes. Zero values
// mean "no filter".
type Filters struct {
	MinRating int
	Genre     string
	Year      int
}

// Criteria is one complete search request. Term is the primary search
// text; Year is the primary value for ModeYear.
type Criteria struct {
	Mode    Mode
	Term    string
	Year    int
	Filters Filters
}

// Statement builds the SQL for the criteria's mode.
func (c Criteria) Statement() (Statement, error) {
	switch c.Mode {
	case ModeTitle:
		return ByTitle(c.Term, c.Filters), nil
	case ModeActor:
		return ByActor(c.Term, c.Filters), nil
	case ModeDirector:
		return ByDirector(c.Term, c.Filters), nil
	case ModeGenre:
		return ByGenre(c.Term, c.Filters.MinRating, c.Filters.Year), nil
	case ModeYear:
		return ByYear(c.Year, c.Filters.MinRating, c.Filters.Genre), nil
	default:
		return Statement{}, fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
}

var movieColumns = []string{"m.Movie_id", "m.Title", "m.Release_year"}

func movieSearch() *Builder {
	return Select("Movie m", movieColumns...).
		Distinct().
		OrderBy("m.Title", "m.Movie_id")
}

// ByTitle matches movies whose title contains term.
func ByTitle(term string, f Filters) Statement {
	return movieSearch().
		Where(TitleContains(term), MinRating(f.MinRating), InGenre(f.Genre), ReleasedIn(f.Year)).
		Build()
}

// ByActor matches movies with a cast member whose full name contains term.
func ByActor(term string, f Filters) Statement {
	return movieSearch().
		Where(ActorNameContains(term), MinRating(f.MinRating), InGenre(f.Genre), ReleasedIn(f.Year)).
		Build()
}

// ByDirector matches movies with a director whose full name contains term.
func ByDirector(term string, f Filters) Statement {
	return movieSearch().
		Where(DirectorNameContains(term), MinRating(f.MinRating), InGenre(f.Genre), ReleasedIn(f.Year)).
		Build()
}

// ByGenre matches movies linked to a genre whose category contains genre.
// The genre itself is the primary predicate, so there is no genre sub-filter.
func ByGenre(genre string, minRating, year int) Statement {
	return movieSearch().
		Where(GenreContains(genre), MinRating(minRating), ReleasedIn(year)).
		Build()
}

// ByYear matches movies released in year. There is no year sub-filter.
func ByYear(year, minRating int, genre string) Statement {
	return movieSearch().
		Where(releasedEquals(year), MinRating(minRating), InGenre(genre)).
		Build()
}

// TitleContains is the title-mode primary predicate.
func TitleContains(term string) Fragment {
	return Fragment{
		Where: "LOWER(m.Title) LIKE ?",
		Args:  []any{containsPattern(term)},
	}
}

// ActorNameContains is the actor-mode primary predicate.
func ActorNameContains(term string) Fragment {
	return Fragment{
		Joins: []string{
			"JOIN Acts_in ai ON m.Movie_id = ai.Movie_Movie_id",
			"JOIN Actor a ON ai.Actor_Actor_id = a.Actor_id",
		},
		Where: "LOWER(CONCAT(a.First_name, ' ', a.Last_name)) LIKE ?",
		Args:  []any{containsPattern(term)},
	}
}

// DirectorNameContains is the director-mode primary predicate.
func DirectorNameContains(term string) Fragment {
	return Fragment{
		Joins: []string{
			"JOIN Directed_by db ON m.Movie_id = db.Movie_Movie_id",
			"JOIN Director d ON db.Director_Director_id = d.Director_id",
		},
		Where: "LOWER(CONCAT(d.First_name, ' ', d.Last_name)) LIKE ?",
		Args:  []any{containsPattern(term)},
	}
}

// GenreContains is the genre-mode primary predicate.
func GenreContains(genre string) Fragment {
	return Fragment{
		Joins: []string{
			"JOIN Belongs_to bt ON m.Movie_id = bt.Movie_Movie_id",
			"JOIN Genre g ON bt.Genre_Genre_id = g.Genre_id",
		},
		Where: "LOWER(g.Category) LIKE ?",
		Args:  []any{containsPattern(genre)},
	}
}

// MinRating keeps movies with at least one review rated >= threshold.
// A threshold of zero or less is no filter.
func MinRating(threshold int) Fragment {
	if threshold <= 0 {
		return Fragment{}
	}
	return Fragment{
		Where: "m.Movie_id IN (SELECT r.Movie_Movie_id FROM Review r WHERE r.Rating >= ?)",
		Args:  []any{threshold},
	}
}

// InGenre keeps movies linked to a genre whose category contains genre.
// A blank genre is no filter.
func InGenre(genre string) Fragment {
	if strings.TrimSpace(genre) == "" {
		return Fragment{}
	}
	return Fragment{
		Where: "m.Movie_id IN (SELECT bt2.Movie_Movie_id FROM Belongs_to bt2 " +
			"JOIN Genre g2 ON bt2.Genre_Genre_id = g2.Genre_id WHERE LOWER(g2.Category) LIKE ?)",
		Args: []any{containsPattern(genre)},
	}
}

// ReleasedIn keeps movies released in year. Zero is no filter.
func ReleasedIn(year int) Fragment {
	if year == 0 {
		return Fragment{}
	}
	return releasedEquals(year)
}

func releasedEquals(year int) Fragment {
	return Fragment{
		Where: "m.Release_year = ?",
		Args:  []any{year},
	}
}
