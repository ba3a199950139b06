package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/myflix/apiserver/types"
)

// UserRepository handles persistence for users and their favorite sets.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.username, u.email, u.birthday, u.password_hash, u.created_at, u.updated_at,
	COALESCE(array_agg(f.movie_id) FILTER (WHERE f.movie_id IS NOT NULL), '{}')`

const userJoin = `
	FROM users u
	LEFT JOIN user_favorites f ON f.user_id = u.id`

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT` + userColumns + userJoin + `
		WHERE u.id = $1
		GROUP BY u.id`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	query := `SELECT` + userColumns + userJoin + `
		WHERE u.username = $1
		GROUP BY u.id`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	query := `SELECT` + userColumns + userJoin + `
		GROUP BY u.id
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (username, email, birthday, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Birthday,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	if user.FavoriteMovies == nil {
		user.FavoriteMovies = []int{}
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET username = $1,
			email = $2,
			birthday = $3,
			password_hash = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Birthday,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFavorite inserts the movie reference into the user's favorite set.
// Adding a reference that is already present is a no-op.
func (r *UserRepository) AddFavorite(ctx context.Context, userID, movieID int) error {
	const query = `
		INSERT INTO user_favorites (user_id, movie_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, movie_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, movieID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// RemoveFavorite deletes the movie reference from the user's favorite set.
// Removing a reference that is not present is a no-op.
func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, movieID int) error {
	const query = `DELETE FROM user_favorites WHERE user_id = $1 AND movie_id = $2`
	_, err := r.db.ExecContext(ctx, query, userID, movieID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanOne(row rowScanner) (types.User, error) {
	var user types.User
	var birthday sql.NullTime
	var favorites []int64
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&birthday,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		pq.Array(&favorites),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if birthday.Valid {
		user.Birthday = &birthday.Time
	}
	user.FavoriteMovies = make([]int, 0, len(favorites))
	for _, id := range favorites {
		user.FavoriteMovies = append(user.FavoriteMovies, int(id))
	}
	return user, nil
}
