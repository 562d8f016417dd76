package domain

import "strings"

type Movie struct {
	ID          int    `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	ReleaseYear int    `json:"releaseYear" yaml:"releaseYear"`
}

type Actor struct {
	ID        int    `json:"id" yaml:"id"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
}

// FullName joins first and last name the same way name searches match them.
func (a Actor) FullName() string {
	return fullName(a.FirstName, a.LastName)
}

type Director struct {
	ID        int    `json:"id" yaml:"id"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
}

// FullName joins first and last name the same way name searches match them.
func (d Director) FullName() string {
	return fullName(d.FirstName, d.LastName)
}

type Genre struct {
	ID       int    `json:"id" yaml:"id"`
	Category string `json:"category" yaml:"category"`
}

// Review ratings are on a 0-100 scale.
type Review struct {
	ID      int `json:"id" yaml:"id"`
	Rating  int `json:"rating" yaml:"rating"`
	MovieID int `json:"movieId" yaml:"movieId"`
}

type User struct {
	ID       int    `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	ReviewID int    `json:"reviewId" yaml:"reviewId"`
}

// Junction records. They only link identifiers.
type ActsIn struct {
	ActorID int `json:"actorId" yaml:"actorId"`
	MovieID int `json:"movieId" yaml:"movieId"`
}

type DirectedBy struct {
	DirectorID int `json:"directorId" yaml:"directorId"`
	MovieID    int `json:"movieId" yaml:"movieId"`
}

type BelongsTo struct {
	GenreID int `json:"genreId" yaml:"genreId"`
	MovieID int `json:"movieId" yaml:"movieId"`
}

// MovieReview is a review joined to the user who wrote it.
type MovieReview struct {
	Rating int    `json:"rating"`
	UserID int    `json:"userId"`
	Email  string `json:"email"`
}

// MovieDetail aggregates everything shown on the detail screen.
type MovieDetail struct {
	Movie     Movie         `json:"movie"`
	Reviews   []MovieReview `json:"reviews"`
	Cast      []Actor       `json:"cast"`
	Directors []Director    `json:"directors"`
	Genres    []Genre       `json:"genres"`
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
