package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/myflix/apiserver/internal/store"
	"github.com/myflix/apiserver/types"
)

// fakeUserRepo is an in-memory stand-in for the Postgres user repository. It
// mirrors the store's semantics: unique usernames, idempotent favorite
// membership, and not-found reporting.
type fakeUserRepo struct {
	mu        sync.Mutex
	nextID    int
	users     map[int]types.User
	favorites map[int]map[int]bool
	movieIDs  map[int]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:    1,
		users:     make(map[int]types.User),
		favorites: make(map[int]map[int]bool),
		movieIDs:  make(map[int]bool),
	}
}

func (f *fakeUserRepo) addMovie(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movieIDs[id] = true
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return f.withFavorites(user), nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			return f.withFavorites(user), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	users := make([]types.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, f.withFavorites(f.users[id]))
	}
	return users, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	now := time.Now()
	user.ID = f.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	user.FavoriteMovies = []int{}
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for id, existing := range f.users {
		if id != user.ID && existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	f.users[user.ID] = user
	return f.withFavorites(user), nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	delete(f.favorites, id)
	return nil
}

func (f *fakeUserRepo) AddFavorite(ctx context.Context, userID, movieID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.movieIDs[movieID] {
		return store.ErrNotFound
	}
	if f.favorites[userID] == nil {
		f.favorites[userID] = make(map[int]bool)
	}
	f.favorites[userID][movieID] = true
	return nil
}

func (f *fakeUserRepo) RemoveFavorite(ctx context.Context, userID, movieID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.favorites[userID], movieID)
	return nil
}

func (f *fakeUserRepo) withFavorites(user types.User) types.User {
	ids := make([]int, 0, len(f.favorites[user.ID]))
	for id := range f.favorites[user.ID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	user.FavoriteMovies = ids
	return user
}

// fakeMovieRepo is an in-memory stand-in for the movie repository.
type fakeMovieRepo struct {
	mu     sync.Mutex
	nextID int
	movies map[int]types.Movie
}

func newFakeMovieRepo() *fakeMovieRepo {
	return &fakeMovieRepo{
		nextID: 1,
		movies: make(map[int]types.Movie),
	}
}

func (f *fakeMovieRepo) add(movie types.Movie) types.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	movie.ID = f.nextID
	f.nextID++
	f.movies[movie.ID] = movie
	return movie
}

func (f *fakeMovieRepo) List(ctx context.Context) ([]types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.movies))
	for id := range f.movies {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	movies := make([]types.Movie, 0, len(ids))
	for _, id := range ids {
		movies = append(movies, f.movies[id])
	}
	return movies, nil
}

func (f *fakeMovieRepo) GetByTitle(ctx context.Context, title string) (types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, movie := range f.movies {
		if movie.Title == title {
			return movie, nil
		}
	}
	return types.Movie{}, store.ErrNotFound
}

func (f *fakeMovieRepo) GetByGenreName(ctx context.Context, name string) (types.Movie, error) {
	return f.first(func(m types.Movie) bool { return m.Genre.Name == name })
}

func (f *fakeMovieRepo) GetByDirectorName(ctx context.Context, name string) (types.Movie, error) {
	return f.first(func(m types.Movie) bool { return m.Director.Name == name })
}

func (f *fakeMovieRepo) Upsert(ctx context.Context, movie types.Movie) (types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.movies {
		if existing.Title == movie.Title {
			movie.ID = id
			f.movies[id] = movie
			return movie, nil
		}
	}
	movie.ID = f.nextID
	f.nextID++
	f.movies[movie.ID] = movie
	return movie, nil
}

func (f *fakeMovieRepo) first(match func(types.Movie) bool) (types.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.movies))
	for id := range f.movies {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if match(f.movies[id]) {
			return f.movies[id], nil
		}
	}
	return types.Movie{}, store.ErrNotFound
}
