package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bookletify-api/internal/model"
)

// reviewSelect joins the author's public username onto every review.  A
// LEFT JOIN keeps a review visible even if its author row is gone.
const reviewSelect = `SELECT r.id, r.album_id, r.user_id, COALESCE(u.username, ''), r.comment, r.rating, r.created_at
	FROM reviews r LEFT JOIN users u ON u.id = r.user_id`

// ReviewRepo stores album reviews.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo constructs a ReviewRepo with the provided DB handle.
func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// Create inserts a review.  The rating bound is checked here as well as at
// the HTTP boundary; the table carries the same CHECK constraint.  Nothing
// stops a user from reviewing the same album twice.
func (r *ReviewRepo) Create(ctx context.Context, albumID string, authorID uint64, comment string, rating int) (model.Review, error) {
	if !model.ValidRating(rating) {
		return model.Review{}, ErrInvalidRating
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (album_id, user_id, comment, rating) VALUES (?, ?, ?, ?)",
		albumID, authorID, comment, rating)
	if err != nil {
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	rev, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE r.id = ?", id))
	if err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

// ListByAlbum returns every review of albumID, newest first.
func (r *ReviewRepo) ListByAlbum(ctx context.Context, albumID string) ([]model.Review, error) {
	return r.list(ctx, reviewSelect+" WHERE r.album_id = ? ORDER BY r.created_at DESC, r.id DESC", albumID)
}

// ListByAuthor returns every review written by authorID, newest first.
func (r *ReviewRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Review, error) {
	return r.list(ctx, reviewSelect+" WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC", authorID)
}

// DeleteByIDAndAuthor removes a review only when authorID wrote it.  A
// missing review and someone else's review both yield ErrReviewNotFound.
func (r *ReviewRepo) DeleteByIDAndAuthor(ctx context.Context, id, authorID uint64) (model.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Review{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rev, err := scanReview(tx.QueryRowContext(ctx,
		reviewSelect+" WHERE r.id = ? AND r.user_id = ? FOR UPDATE", id, authorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id); err != nil {
		return model.Review{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

// AverageRating returns the mean rating of albumID, or nil when the album
// has no reviews.
func (r *ReviewRepo) AverageRating(ctx context.Context, albumID string) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx,
		"SELECT AVG(rating) FROM reviews WHERE album_id = ?", albumID).Scan(&avg); err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	v := avg.Float64
	return &v, nil
}

func (r *ReviewRepo) list(ctx context.Context, q string, arg any) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanReview(s rowScanner) (model.Review, error) {
	var rev model.Review
	err := s.Scan(&rev.ID, &rev.AlbumID, &rev.AuthorID, &rev.Username, &rev.Comment, &rev.Rating, &rev.CreatedAt)
	return rev, err
}
