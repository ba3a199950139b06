package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/myflix/apiserver/internal/storage"
	"github.com/myflix/apiserver/internal/store"
	"github.com/myflix/apiserver/types"
)

// MovieRepository defines persistence operations for catalog movies.
type MovieRepository interface {
	List(ctx context.Context) ([]types.Movie, error)
	GetByTitle(ctx context.Context, title string) (types.Movie, error)
	GetByGenreName(ctx context.Context, name string) (types.Movie, error)
	GetByDirectorName(ctx context.Context, name string) (types.Movie, error)
	Upsert(ctx context.Context, movie types.Movie) (types.Movie, error)
}

// MovieDocument is a catalog document received on the ingest channel. A
// poster image may be inlined as base64; it is uploaded to object storage
// under a content-addressed key before the movie is persisted.
type MovieDocument struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Genre       GenreDoc    `json:"genre"`
	Director    DirectorDoc `json:"director"`
	Featured    bool        `json:"featured"`

	PosterBase64      string `json:"poster_base64,omitempty"`
	PosterContentType string `json:"poster_content_type,omitempty"`
}

type GenreDoc struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type DirectorDoc struct {
	Name      string `json:"name" validate:"required"`
	Bio       string `json:"bio" validate:"required"`
	BirthYear *int   `json:"birth_year,omitempty"`
	DeathYear *int   `json:"death_year,omitempty"`
}

// MovieService encapsulates catalog use-cases.
type MovieService struct {
	repo    MovieRepository
	storage *storage.Storage
}

func NewMovieService(repo MovieRepository, posterStorage *storage.Storage) *MovieService {
	return &MovieService{repo: repo, storage: posterStorage}
}

func (s *MovieService) List(ctx context.Context) ([]types.Movie, error) {
	return s.repo.List(ctx)
}

func (s *MovieService) GetByTitle(ctx context.Context, title string) (types.Movie, error) {
	return s.repo.GetByTitle(ctx, title)
}

// GenreByName returns the embedded genre record of the first matching movie.
func (s *MovieService) GenreByName(ctx context.Context, name string) (types.Genre, error) {
	movie, err := s.repo.GetByGenreName(ctx, name)
	if err != nil {
		return types.Genre{}, err
	}
	return movie.Genre, nil
}

// DirectorByName returns the embedded director record of the first matching movie.
func (s *MovieService) DirectorByName(ctx context.Context, name string) (types.Director, error) {
	movie, err := s.repo.GetByDirectorName(ctx, name)
	if err != nil {
		return types.Director{}, err
	}
	return movie.Director, nil
}

// Poster opens the movie's poster image in object storage. A movie without a
// poster reports store.ErrNotFound, the same as a missing movie.
func (s *MovieService) Poster(ctx context.Context, title string) (io.ReadCloser, string, error) {
	movie, err := s.repo.GetByTitle(ctx, title)
	if err != nil {
		return nil, "", err
	}
	if movie.ImagePath == "" || s.storage == nil {
		return nil, "", store.ErrNotFound
	}
	reader, err := s.storage.Get(ctx, movie.ImagePath)
	if err != nil {
		return nil, "", err
	}
	return reader, movie.ImagePath, nil
}

// IngestDocument validates a catalog document, uploads any inlined poster,
// and upserts the movie by title.
func (s *MovieService) IngestDocument(ctx context.Context, doc MovieDocument) (types.Movie, error) {
	if err := validateStruct(doc); err != nil {
		return types.Movie{}, err
	}

	movie := types.Movie{
		Title:       doc.Title,
		Description: doc.Description,
		Genre: types.Genre{
			Name:        doc.Genre.Name,
			Description: doc.Genre.Description,
		},
		Director: types.Director{
			Name:      doc.Director.Name,
			Bio:       doc.Director.Bio,
			BirthYear: doc.Director.BirthYear,
			DeathYear: doc.Director.DeathYear,
		},
		Featured: doc.Featured,
	}

	if doc.PosterBase64 != "" {
		key, err := s.savePoster(ctx, doc.PosterBase64, doc.PosterContentType)
		if err != nil {
			return types.Movie{}, err
		}
		movie.ImagePath = key
	}

	return s.repo.Upsert(ctx, movie)
}

func (s *MovieService) savePoster(ctx context.Context, encoded, contentType string) (string, error) {
	if s.storage == nil {
		return "", errors.New("poster storage is not configured")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.New("invalid poster encoding")
	}
	if len(data) == 0 {
		return "", errors.New("empty poster data")
	}

	// Content-addressed key: re-ingesting the same poster overwrites the
	// same object.
	key := fmt.Sprintf("posters/%x%s", sha256.Sum256(data), posterExtension(contentType))
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return key, nil
}

func posterExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
