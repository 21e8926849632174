// Package memstore provides in-memory stand-ins for the MySQL repositories.
// They follow the same contracts (sentinel errors, ordering, cascade) and
// are used by handler, middleware, router and CLI tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/bookletify-api/internal/model"
	"github.com/iliyamo/bookletify-api/internal/repository"
	"github.com/iliyamo/bookletify-api/internal/utils"
)

// Store holds users, reviews and favorites behind one lock.  Use the
// Users, Reviews, Favorites and Admin views to get repository-shaped APIs
// over the shared state.
type Store struct {
	mu        sync.RWMutex
	nextID    uint64
	now       func() time.Time
	users     map[uint64]model.User
	reviews   map[uint64]model.Review
	favorites map[uint64]model.Favorite
}

// New returns an empty Store.  Timestamps advance by one millisecond per
// write so newest-first ordering is deterministic.
func New() *Store {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	return &Store{
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Millisecond)
		},
		users:     map[uint64]model.User{},
		reviews:   map[uint64]model.Review{},
		favorites: map[uint64]model.Favorite{},
	}
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

// Users returns the credential store view.
func (s *Store) Users() *Users { return &Users{s} }

// Reviews returns the review store view.
func (s *Store) Reviews() *Reviews { return &Reviews{s} }

// Favorites returns the favorite store view.
func (s *Store) Favorites() *Favorites { return &Favorites{s} }

// Admin returns the moderation view.
func (s *Store) Admin() *Admin { return &Admin{s} }

// Users mirrors repository.UserRepo.
type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, username, email, password string, cost int) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == email || existing.Username == username {
			return model.User{}, repository.ErrUserExists
		}
	}
	now := s.now()
	rec := model.User{
		ID: s.id(), Username: username, Email: email, PasswordHash: hash,
		Role: model.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	s.users[rec.ID] = rec
	return rec, nil
}

func (u *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	rec, ok := u.s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return rec, nil
}

func (u *Users) GetByUsername(_ context.Context, username string) (model.User, error) {
	username = strings.TrimSpace(username)
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, rec := range u.s.users {
		if rec.Username == username {
			return rec, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

// SetRole changes a role directly; tests use it to mint admins.
func (u *Users) SetRole(id uint64, role string) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if rec, ok := u.s.users[id]; ok {
		rec.Role = role
		u.s.users[id] = rec
	}
}

// Reviews mirrors repository.ReviewRepo.
type Reviews struct{ s *Store }

func (r *Reviews) Create(_ context.Context, albumID string, authorID uint64, comment string, rating int) (model.Review, error) {
	if !model.ValidRating(rating) {
		return model.Review{}, repository.ErrInvalidRating
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rev := model.Review{
		ID: s.id(), AlbumID: albumID, AuthorID: authorID, Comment: comment,
		Rating: rating, CreatedAt: s.now(),
	}
	s.reviews[rev.ID] = rev
	rev.Username = s.users[authorID].Username
	return rev, nil
}

func (r *Reviews) ListByAlbum(_ context.Context, albumID string) ([]model.Review, error) {
	return r.s.filterReviews(func(rev model.Review) bool { return rev.AlbumID == albumID }, false), nil
}

func (r *Reviews) ListByAuthor(_ context.Context, authorID uint64) ([]model.Review, error) {
	return r.s.filterReviews(func(rev model.Review) bool { return rev.AuthorID == authorID }, false), nil
}

func (r *Reviews) DeleteByIDAndAuthor(_ context.Context, id, authorID uint64) (model.Review, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok := s.reviews[id]
	if !ok || rev.AuthorID != authorID {
		return model.Review{}, repository.ErrReviewNotFound
	}
	delete(s.reviews, id)
	rev.Username = s.users[authorID].Username
	return rev, nil
}

func (r *Reviews) AverageRating(_ context.Context, albumID string) (*float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum, n := 0, 0
	for _, rev := range r.s.reviews {
		if rev.AlbumID == albumID {
			sum += rev.Rating
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := float64(sum) / float64(n)
	return &avg, nil
}

// filterReviews returns matching reviews newest first with author details.
func (s *Store) filterReviews(keep func(model.Review) bool, withEmail bool) []model.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Review{}
	for _, rev := range s.reviews {
		if !keep(rev) {
			continue
		}
		author := s.users[rev.AuthorID]
		rev.Username = author.Username
		if withEmail {
			rev.Email = author.Email
		}
		out = append(out, rev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Favorites mirrors repository.FavoriteRepo.
type Favorites struct{ s *Store }

func (f *Favorites) Add(_ context.Context, authorID uint64, albumID, title, artist, coverURL string) (model.Favorite, error) {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fav := range s.favorites {
		if fav.AuthorID == authorID && fav.AlbumID == albumID {
			return model.Favorite{}, repository.ErrFavoriteExists
		}
	}
	fav := model.Favorite{
		ID: s.id(), AuthorID: authorID, AlbumID: albumID, Title: title,
		Artist: artist, CoverURL: coverURL, CreatedAt: s.now(),
	}
	s.favorites[fav.ID] = fav
	return fav, nil
}

func (f *Favorites) Remove(_ context.Context, authorID uint64, albumID string) (model.Favorite, error) {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, fav := range s.favorites {
		if fav.AuthorID == authorID && fav.AlbumID == albumID {
			delete(s.favorites, id)
			return fav, nil
		}
	}
	return model.Favorite{}, repository.ErrFavoriteNotFound
}

func (f *Favorites) ListByAuthor(_ context.Context, authorID uint64) ([]model.Favorite, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := []model.Favorite{}
	for _, fav := range f.s.favorites {
		if fav.AuthorID == authorID {
			out = append(out, fav)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Admin mirrors repository.AdminRepo.
type Admin struct{ s *Store }

func (a *Admin) ListUsers(_ context.Context) ([]model.User, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	out := make([]model.User, 0, len(a.s.users))
	for _, u := range a.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Admin) ChangeRole(_ context.Context, id uint64, role string) (model.User, error) {
	if !model.ValidRole(role) {
		return model.User{}, repository.ErrInvalidRole
	}
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = s.now()
	s.users[id] = u
	return u, nil
}

func (a *Admin) DeleteUserCascade(_ context.Context, id uint64) (repository.DeletedUser, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.DeletedUser{}, repository.ErrUserNotFound
	}
	delete(s.users, id)
	out := repository.DeletedUser{UserID: id}
	for rid, rev := range s.reviews {
		if rev.AuthorID == id {
			delete(s.reviews, rid)
			out.ReviewsDeleted++
		}
	}
	for fid, fav := range s.favorites {
		if fav.AuthorID == id {
			delete(s.favorites, fid)
			out.FavoritesDeleted++
		}
	}
	return out, nil
}

func (a *Admin) ListAllReviews(_ context.Context) ([]model.Review, error) {
	return a.s.filterReviews(func(model.Review) bool { return true }, true), nil
}
