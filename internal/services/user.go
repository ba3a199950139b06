package services

import (
	"context"
	"errors"
	"time"

	"github.com/myflix/apiserver/internal/store"
	"github.com/myflix/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login fails. It is deliberately the
// same error for an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
	AddFavorite(ctx context.Context, userID, movieID int) error
	RemoveFavorite(ctx context.Context, userID, movieID int) error
}

// RegisterInput is the validated payload for user registration.
type RegisterInput struct {
	Username string     `validate:"required,min=5,alphanum"`
	Password string     `validate:"required"`
	Email    string     `validate:"required,email"`
	Birthday *time.Time `validate:"-"`
}

// UpdateInput is the validated payload for a profile update. Nil fields are
// left unchanged (merge/patch semantics, not full replacement).
type UpdateInput struct {
	Username *string    `validate:"omitempty,min=5,alphanum"`
	Password *string    `validate:"omitempty,min=1"`
	Email    *string    `validate:"omitempty,email"`
	Birthday *time.Time `validate:"-"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

// Register validates the input, hashes the password, and creates the user.
// A taken username yields store.ErrDuplicate; the pre-insert lookup gives the
// common case a clean error while the unique constraint closes the
// check-then-create race.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	if err := validateStruct(in); err != nil {
		return types.User{}, err
	}

	if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
		return types.User{}, store.ErrDuplicate
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		Birthday:     in.Birthday,
		PasswordHash: string(hashed),
	})
}

// Authenticate verifies a username/password pair against the stored hash.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateByUsername applies a partial field set to the named user. A supplied
// password is re-hashed before persisting.
func (s *UserService) UpdateByUsername(ctx context.Context, username string, in UpdateInput) (types.User, error) {
	if err := validateStruct(in); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return types.User{}, err
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Birthday != nil {
		user.Birthday = in.Birthday
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = string(hashed)
	}

	return s.repo.Update(ctx, user)
}

// DeleteByUsername removes the named user. Favorites rows cascade in the store.
func (s *UserService) DeleteByUsername(ctx context.Context, username string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, user.ID)
}

// AddFavorite idempotently adds the movie reference to the user's favorite
// set and returns the updated user. The user-existence check precedes the
// mutation so a missing target is reported, never silently succeeded.
func (s *UserService) AddFavorite(ctx context.Context, username string, movieID int) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return types.User{}, err
	}
	if err := s.repo.AddFavorite(ctx, user.ID, movieID); err != nil {
		return types.User{}, err
	}
	return s.repo.GetByUsername(ctx, username)
}

// RemoveFavorite idempotently removes the movie reference from the user's
// favorite set and returns the updated user.
func (s *UserService) RemoveFavorite(ctx context.Context, username string, movieID int) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return types.User{}, err
	}
	if err := s.repo.RemoveFavorite(ctx, user.ID, movieID); err != nil {
		return types.User{}, err
	}
	return s.repo.GetByUsername(ctx, username)
}
