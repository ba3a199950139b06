package services

import (
	"context"
	"testing"

	"github.com/myflix/apiserver/internal/store"
	"github.com/myflix/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memMovieRepo implements MovieRepository for service tests.
type memMovieRepo struct {
	nextID int
	movies map[int]types.Movie
}

func newMemMovieRepo() *memMovieRepo {
	return &memMovieRepo{nextID: 1, movies: make(map[int]types.Movie)}
}

func (m *memMovieRepo) List(_ context.Context) ([]types.Movie, error) {
	movies := make([]types.Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		movies = append(movies, movie)
	}
	return movies, nil
}

func (m *memMovieRepo) GetByTitle(_ context.Context, title string) (types.Movie, error) {
	for _, movie := range m.movies {
		if movie.Title == title {
			return movie, nil
		}
	}
	return types.Movie{}, store.ErrNotFound
}

func (m *memMovieRepo) GetByGenreName(_ context.Context, name string) (types.Movie, error) {
	for _, movie := range m.movies {
		if movie.Genre.Name == name {
			return movie, nil
		}
	}
	return types.Movie{}, store.ErrNotFound
}

func (m *memMovieRepo) GetByDirectorName(_ context.Context, name string) (types.Movie, error) {
	for _, movie := range m.movies {
		if movie.Director.Name == name {
			return movie, nil
		}
	}
	return types.Movie{}, store.ErrNotFound
}

func (m *memMovieRepo) Upsert(_ context.Context, movie types.Movie) (types.Movie, error) {
	for id, existing := range m.movies {
		if existing.Title == movie.Title {
			movie.ID = id
			m.movies[id] = movie
			return movie, nil
		}
	}
	movie.ID = m.nextID
	m.nextID++
	m.movies[movie.ID] = movie
	return movie, nil
}

func validDocument() MovieDocument {
	return MovieDocument{
		Title:       "The Silence of the Lambs",
		Description: "A young FBI cadet seeks the advice of an imprisoned killer.",
		Genre: GenreDoc{
			Name:        "Thriller",
			Description: "Suspense-driven stories.",
		},
		Director: DirectorDoc{
			Name: "Jonathan Demme",
			Bio:  "American director.",
		},
	}
}

func TestIngestDocumentUpserts(t *testing.T) {
	repo := newMemMovieRepo()
	svc := NewMovieService(repo, nil)

	movie, err := svc.IngestDocument(context.Background(), validDocument())
	require.NoError(t, err)
	assert.NotZero(t, movie.ID)
	assert.Equal(t, "Thriller", movie.Genre.Name)
	assert.Equal(t, "Jonathan Demme", movie.Director.Name)
}

func TestIngestDocumentIsIdempotentByTitle(t *testing.T) {
	repo := newMemMovieRepo()
	svc := NewMovieService(repo, nil)

	first, err := svc.IngestDocument(context.Background(), validDocument())
	require.NoError(t, err)

	doc := validDocument()
	doc.Description = "Updated description."
	second, err := svc.IngestDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.movies, 1)
	assert.Equal(t, "Updated description.", repo.movies[first.ID].Description)
}

func TestIngestDocumentValidation(t *testing.T) {
	svc := NewMovieService(newMemMovieRepo(), nil)

	doc := validDocument()
	doc.Title = ""
	doc.Genre.Name = ""

	_, err := svc.IngestDocument(context.Background(), doc)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fields := make([]string, 0, len(validationErr.Violations))
	for _, v := range validationErr.Violations {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "name")
}

func TestIngestDocumentRejectsPosterWithoutStorage(t *testing.T) {
	svc := NewMovieService(newMemMovieRepo(), nil)

	doc := validDocument()
	doc.PosterBase64 = "aGVsbG8="
	doc.PosterContentType = "image/png"

	_, err := svc.IngestDocument(context.Background(), doc)
	assert.Error(t, err)
}

func TestGenreAndDirectorLookups(t *testing.T) {
	repo := newMemMovieRepo()
	svc := NewMovieService(repo, nil)

	_, err := svc.IngestDocument(context.Background(), validDocument())
	require.NoError(t, err)

	genre, err := svc.GenreByName(context.Background(), "Thriller")
	require.NoError(t, err)
	assert.Equal(t, "Thriller", genre.Name)

	director, err := svc.DirectorByName(context.Background(), "Jonathan Demme")
	require.NoError(t, err)
	assert.Equal(t, "American director.", director.Bio)

	_, err = svc.GenreByName(context.Background(), "Nonexistent")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
