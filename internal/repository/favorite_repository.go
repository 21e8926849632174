package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bookletify-api/internal/model"
)

const favoriteSelect = "SELECT id, user_id, album_id, title, artist, cover_url, created_at FROM favorites"

// FavoriteRepo stores album bookmarks.  The table's unique key on
// (user_id, album_id) is what enforces one bookmark per user and album.
type FavoriteRepo struct {
	db *sql.DB
}

// NewFavoriteRepo constructs a FavoriteRepo with the provided DB handle.
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Add bookmarks albumID for authorID together with the display fields
// captured from the catalog.  ErrFavoriteExists signals a duplicate.
func (r *FavoriteRepo) Add(ctx context.Context, authorID uint64, albumID, title, artist, coverURL string) (model.Favorite, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO favorites (user_id, album_id, title, artist, cover_url) VALUES (?, ?, ?, ?, ?)",
		authorID, albumID, title, artist, coverURL)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Favorite{}, ErrFavoriteExists
		}
		return model.Favorite{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Favorite{}, err
	}
	return scanFavorite(r.db.QueryRowContext(ctx, favoriteSelect+" WHERE id = ?", id))
}

// Remove deletes the bookmark and returns it.  ErrFavoriteNotFound is
// returned when there was nothing to delete.
func (r *FavoriteRepo) Remove(ctx context.Context, authorID uint64, albumID string) (model.Favorite, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Favorite{}, err
	}
	defer func() { _ = tx.Rollback() }()

	fav, err := scanFavorite(tx.QueryRowContext(ctx,
		favoriteSelect+" WHERE user_id = ? AND album_id = ? FOR UPDATE", authorID, albumID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Favorite{}, ErrFavoriteNotFound
		}
		return model.Favorite{}, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM favorites WHERE id = ?", fav.ID); err != nil {
		return model.Favorite{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Favorite{}, err
	}
	return fav, nil
}

// ListByAuthor returns authorID's bookmarks, newest first.
func (r *FavoriteRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		favoriteSelect+" WHERE user_id = ? ORDER BY created_at DESC, id DESC", authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Favorite{}
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanFavorite(s rowScanner) (model.Favorite, error) {
	var f model.Favorite
	err := s.Scan(&f.ID, &f.AuthorID, &f.AlbumID, &f.Title, &f.Artist, &f.CoverURL, &f.CreatedAt)
	return f, err
}
