package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/myflix/apiserver/types"
)

// MovieRepository handles persistence for catalog movies. Genre and director
// are embedded value objects serialized into JSON columns.
type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

const movieColumns = `id, title, description, genre, director, image_path, featured, created_at, updated_at`

func (r *MovieRepository) List(ctx context.Context) ([]types.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]types.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *MovieRepository) GetByTitle(ctx context.Context, title string) (types.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE title = $1`
	return scanMovie(r.db.QueryRowContext(ctx, query, title))
}

// GetByGenreName returns the first movie whose embedded genre matches name.
func (r *MovieRepository) GetByGenreName(ctx context.Context, name string) (types.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE genre->>'name' = $1 ORDER BY id LIMIT 1`
	return scanMovie(r.db.QueryRowContext(ctx, query, name))
}

// GetByDirectorName returns the first movie whose embedded director matches name.
func (r *MovieRepository) GetByDirectorName(ctx context.Context, name string) (types.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE director->>'name' = $1 ORDER BY id LIMIT 1`
	return scanMovie(r.db.QueryRowContext(ctx, query, name))
}

// Upsert inserts the movie or, when a movie with the same title already
// exists, replaces its catalog fields. Used by the ingest pipeline; the HTTP
// API never writes movies.
func (r *MovieRepository) Upsert(ctx context.Context, movie types.Movie) (types.Movie, error) {
	now := time.Now()
	movie.CreatedAt = now
	movie.UpdatedAt = now

	genreJSON, err := json.Marshal(movie.Genre)
	if err != nil {
		return types.Movie{}, err
	}
	directorJSON, err := json.Marshal(movie.Director)
	if err != nil {
		return types.Movie{}, err
	}

	const query = `
		INSERT INTO movies (title, description, genre, director, image_path, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (title) DO UPDATE
		SET description = EXCLUDED.description,
			genre = EXCLUDED.genre,
			director = EXCLUDED.director,
			image_path = EXCLUDED.image_path,
			featured = EXCLUDED.featured,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		movie.Title,
		movie.Description,
		genreJSON,
		directorJSON,
		movie.ImagePath,
		movie.Featured,
		movie.CreatedAt,
		movie.UpdatedAt,
	).Scan(&movie.ID, &movie.CreatedAt); err != nil {
		return types.Movie{}, err
	}
	return movie, nil
}

func scanMovie(row rowScanner) (types.Movie, error) {
	var movie types.Movie
	var genreJSON, directorJSON []byte
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&genreJSON,
		&directorJSON,
		&movie.ImagePath,
		&movie.Featured,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Movie{}, ErrNotFound
		}
		return types.Movie{}, err
	}

	_ = json.Unmarshal(genreJSON, &movie.Genre)
	_ = json.Unmarshal(directorJSON, &movie.Director)
	return movie, nil
}
