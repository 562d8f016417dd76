package query

import (
	"errors"
	"fmt"
	"strings"
)

// Table is one of the known schema tables. Only these names are ever
// interpolated into SQL text.
type Table string

const (
	TableMovie      Table = "Movie"
	TableActor      Table = "Actor"
	TableDirector   Table = "Director"
	TableGenre      Table = "Genre"
	TableReview     Table = "Review"
	TableUser       Table = "User"
	TableActsIn     Table = "Acts_in"
	TableDirectedBy Table = "Directed_by"
	TableBelongsTo  Table = "Belongs_to"
)

var Tables = []Table{
	TableMovie, TableActor, TableDirector, TableGenre, TableReview, TableUser,
	TableActsIn, TableDirectedBy, TableBelongsTo,
}

var ErrUnknownTable = errors.New("unknown table")

// ParseTable resolves a table name case-insensitively.
func ParseTable(raw string) (Table, error) {
	raw = strings.TrimSpace(raw)
	for _, t := range Tables {
		if strings.EqualFold(string(t), raw) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, raw)
}

// Valid reports whether t is a known table.
func (t Table) Valid() bool {
	for _, known := range Tables {
		if t == known {
			return true
		}
	}
	return false
}

// AllRows fetches a whole table unfiltered.
func AllRows(t Table) (Statement, error) {
	if !t.Valid() {
		return Statement{}, fmt.Errorf("%w: %q", ErrUnknownTable, t)
	}
	return Statement{SQL: "SELECT * FROM `" + string(t) + "`"}, nil
}

// MovieByID looks up one movie.
func MovieByID(id int) Statement {
	return Select("Movie m", movieColumns...).
		Where(Fragment{Where: "m.Movie_id = ?", Args: []any{id}}).
		Build()
}

// ReviewsForMovie joins a movie's reviews to their authors.
func ReviewsForMovie(movieID int) Statement {
	return Select("Review r", "r.Rating", "u.User_id", "u.email").
		Where(Fragment{
			Joins: []string{"JOIN `User` u ON r.Review_id = u.Review_Review_id"},
			Where: "r.Movie_Movie_id = ?",
			Args:  []any{movieID},
		}).
		OrderBy("r.Review_id").
		Build()
}

// CastForMovie lists actors linked through Acts_in.
func CastForMovie(movieID int) Statement {
	return Select("Actor a", "a.Actor_id", "a.First_name", "a.Last_name").
		Where(Fragment{
			Joins: []string{"JOIN Acts_in ai ON a.Actor_id = ai.Actor_Actor_id"},
			Where: "ai.Movie_Movie_id = ?",
			Args:  []any{movieID},
		}).
		OrderBy("a.Actor_id").
		Build()
}

// DirectorsForMovie lists directors linked through Directed_by.
func DirectorsForMovie(movieID int) Statement {
	return Select("Director d", "d.Director_id", "d.First_name", "d.Last_name").
		Where(Fragment{
			Joins: []string{"JOIN Directed_by db ON d.Director_id = db.Director_Director_id"},
			Where: "db.Movie_Movie_id = ?",
			Args:  []any{movieID},
		}).
		OrderBy("d.Director_id").
		Build()
}

// GenresForMovie lists genres linked through Belongs_to.
func GenresForMovie(movieID int) Statement {
	return Select("Genre g", "g.Genre_id", "g.Category").
		Where(Fragment{
			Joins: []string{"JOIN Belongs_to bt ON g.Genre_id = bt.Genre_Genre_id"},
			Where: "bt.Movie_Movie_id = ?",
			Args:  []any{movieID},
		}).
		OrderBy("g.Genre_id").
		Build()
}
