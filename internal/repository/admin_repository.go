package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bookletify-api/internal/model"
)

// DeletedUser reports what a cascading user deletion removed.
type DeletedUser struct {
	UserID           uint64 `json:"userId"`
	ReviewsDeleted   int64  `json:"reviewsDeleted"`
	FavoritesDeleted int64  `json:"favoritesDeleted"`
}

// AdminRepo holds the moderation operations that span several tables.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo constructs an AdminRepo with the provided DB handle.
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// ListUsers returns every account in id order.  Callers serialize
// model.User, which never exposes the password hash.
func (r *AdminRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ChangeRole overwrites the user's role and returns the updated record.
// There is no guard against an admin demoting themselves.
func (r *AdminRepo) ChangeRole(ctx context.Context, id uint64, role string) (model.User, error) {
	if !model.ValidRole(role) {
		return model.User{}, ErrInvalidRole
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? FOR UPDATE", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", role, id); err != nil {
		return model.User{}, err
	}
	u, err := scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return model.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// DeleteUserCascade removes a user together with every review and favorite
// they own.  The three deletes share one transaction so a failure part way
// leaves no orphaned rows.  ErrUserNotFound is returned, and nothing is
// deleted, when the user does not exist.
func (r *AdminRepo) DeleteUserCascade(ctx context.Context, id uint64) (DeletedUser, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return DeletedUser{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return DeletedUser{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return DeletedUser{}, err
	}
	if n == 0 {
		return DeletedUser{}, ErrUserNotFound
	}

	out := DeletedUser{UserID: id}
	if res, err = tx.ExecContext(ctx, "DELETE FROM reviews WHERE user_id = ?", id); err != nil {
		return DeletedUser{}, err
	}
	if out.ReviewsDeleted, err = res.RowsAffected(); err != nil {
		return DeletedUser{}, err
	}
	if res, err = tx.ExecContext(ctx, "DELETE FROM favorites WHERE user_id = ?", id); err != nil {
		return DeletedUser{}, err
	}
	if out.FavoritesDeleted, err = res.RowsAffected(); err != nil {
		return DeletedUser{}, err
	}
	if err := tx.Commit(); err != nil {
		return DeletedUser{}, err
	}
	return out, nil
}

// ListAllReviews returns every review with the author's username and email,
// newest first, for moderation.
func (r *AdminRepo) ListAllReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.album_id, r.user_id, COALESCE(u.username, ''), COALESCE(u.email, ''), r.comment, r.rating, r.created_at
		 FROM reviews r LEFT JOIN users u ON u.id = r.user_id
		 ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ID, &rev.AlbumID, &rev.AuthorID, &rev.Username, &rev.Email,
			&rev.Comment, &rev.Rating, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
