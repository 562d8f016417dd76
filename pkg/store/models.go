package store

import "moviedb/pkg/domain"

// GORM models mapping the MySQL column names onto typed fields. The schema is
// owned by the database; these are never migrated.
type MovieModel struct {
	ID          int    `gorm:"column:Movie_id;primaryKey"`
	Title       string `gorm:"column:Title"`
	ReleaseYear int    `gorm:"column:Release_year"`
}

func (MovieModel) TableName() string { return "Movie" }

type ActorModel struct {
	ID        int    `gorm:"column:Actor_id;primaryKey"`
	FirstName string `gorm:"column:First_name"`
	LastName  string `gorm:"column:Last_name"`
}

func (ActorModel) TableName() string { return "Actor" }

type DirectorModel struct {
	ID        int    `gorm:"column:Director_id;primaryKey"`
	FirstName string `gorm:"column:First_name"`
	LastName  string `gorm:"column:Last_name"`
}

func (DirectorModel) TableName() string { return "Director" }

type GenreModel struct {
	ID       int    `gorm:"column:Genre_id;primaryKey"`
	Category string `gorm:"column:Category"`
}

func (GenreModel) TableName() string { return "Genre" }

// MovieReviewModel is the row shape of query.ReviewsForMovie.
type MovieReviewModel struct {
	Rating int    `gorm:"column:Rating"`
	UserID int    `gorm:"column:User_id"`
	Email  string `gorm:"column:email"`
}

func movieFromModel(m MovieModel) domain.Movie {
	return domain.Movie{ID: m.ID, Title: m.Title, ReleaseYear: m.ReleaseYear}
}

func actorFromModel(m ActorModel) domain.Actor {
	return domain.Actor{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName}
}

func directorFromModel(m DirectorModel) domain.Director {
	return domain.Director{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName}
}

func genreFromModel(m GenreModel) domain.Genre {
	return domain.Genre{ID: m.ID, Category: m.Category}
}

func reviewFromModel(m MovieReviewModel) domain.MovieReview {
	return domain.MovieReview{Rating: m.Rating, UserID: m.UserID, Email: m.Email}
}

func convertAll[M any, D any](models []M, fn func(M) D) []D {
	res := make([]D, 0, len(models))
	for _, m := range models {
		res = append(res, fn(m))
	}
	return res
}
