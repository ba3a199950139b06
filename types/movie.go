package types

import "time"

// Movie represents a title in the catalog. Movies are read-only through the
// HTTP API; they are provisioned out-of-band via the ingest pipeline.
type Movie struct {
	// ID is the unique identifier of the movie.
	ID int `json:"id" db:"id"`

	// Title is the human-readable name of the movie. Unique by convention.
	Title string `json:"title" db:"title"`

	// Description contains the plot summary.
	Description string `json:"description" db:"description"`

	// Genre is the embedded genre record. Stored inline with the movie;
	// genres are never queried independently of a movie.
	Genre Genre `json:"genre" db:"genre"`

	// Director is the embedded director record.
	Director Director `json:"director" db:"director"`

	// ImagePath is the object storage key of the poster image, if any.
	ImagePath string `json:"image_path,omitempty" db:"image_path"`

	// Featured marks the movie for front-page promotion.
	Featured bool `json:"featured" db:"featured"`

	// CreatedAt is the timestamp at which the movie entered the catalog.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the movie.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Genre is a value object embedded in a Movie.
type Genre struct {
	// Name is the genre name (e.g. "Thriller").
	Name string `json:"name" db:"name"`

	// Description explains the genre.
	Description string `json:"description" db:"description"`
}

// Director is a value object embedded in a Movie.
type Director struct {
	// Name is the director's full name.
	Name string `json:"name" db:"name"`

	// Bio is a short biography.
	Bio string `json:"bio" db:"bio"`

	// BirthYear is the director's year of birth, if known.
	BirthYear *int `json:"birth_year,omitempty" db:"birth_year"`

	// DeathYear is the director's year of death, if applicable.
	DeathYear *int `json:"death_year,omitempty" db:"death_year"`
}
