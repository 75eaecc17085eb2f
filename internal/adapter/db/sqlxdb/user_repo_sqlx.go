package sqlxdb

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"user-management-api/internal/domain/user"
)

const usersTable = "users"

// UserRepoSQLX implements the user Repository with hand-built parameterized statements.
// Statements are built with squirrel so the placeholder style follows the driver.
type UserRepoSQLX struct {
	db        *sqlx.DB
	log       *zap.Logger
	ph        sq.PlaceholderFormat
	returning bool // driver has no LastInsertId; use INSERT ... RETURNING id
}

// NewUserRepoSQLX creates a repository bound to db. The driver name db was created with
// selects the placeholder format ($n for PostgreSQL, ? otherwise).
func NewUserRepoSQLX(db *sqlx.DB, log *zap.Logger) *UserRepoSQLX {
	r := &UserRepoSQLX{db: db, log: log, ph: sq.Question}
	if sqlx.BindType(db.DriverName()) == sqlx.DOLLAR {
		r.ph = sq.Dollar
		r.returning = true
	}
	return r
}

type userRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

// GetAll runs SELECT id, name, email FROM users.
func (r *UserRepoSQLX) GetAll(ctx context.Context) ([]user.User, error) {
	query, args, err := sq.Select("id", "name", "email").From(usersTable).PlaceholderFormat(r.ph).ToSql()
	if err != nil {
		return nil, err
	}

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.Error("failed to list users in db", zap.Error(err))
		return nil, err
	}

	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = user.User{ID: row.ID, Name: row.Name, Email: row.Email}
	}
	return users, nil
}

// Create runs INSERT INTO users (name, email) VALUES (?, ?) and stores the new key in u.ID.
func (r *UserRepoSQLX) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	builder := sq.Insert(usersTable).
		Columns("name", "email").
		Values(u.Name, u.Email).
		PlaceholderFormat(r.ph)

	if r.returning {
		query, args, err := builder.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&u.ID); err != nil {
			r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
			return 0, err
		}
		r.log.Info("user created in db", zap.Int64("id", u.ID))
		return 1, nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	r.log.Info("user created in db", zap.Int64("id", u.ID), zap.Int64("rows", rows))
	return rows, nil
}

// Update runs UPDATE users SET name = ?, email = ? WHERE id = ?.
func (r *UserRepoSQLX) Update(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	query, args, err := sq.Update(usersTable).
		Set("name", u.Name).
		Set("email", u.Email).
		Where(sq.Eq{"id": u.ID}).
		PlaceholderFormat(r.ph).
		ToSql()
	if err != nil {
		return 0, err
	}

	rows, err := r.exec(ctx, query, args)
	if err != nil {
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", u.ID))
		return 0, err
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID), zap.Int64("rows", rows))
	return rows, nil
}

// Delete runs DELETE FROM users WHERE id = ?.
func (r *UserRepoSQLX) Delete(ctx context.Context, id int64) (int64, error) {
	query, args, err := sq.Delete(usersTable).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(r.ph).
		ToSql()
	if err != nil {
		return 0, err
	}

	rows, err := r.exec(ctx, query, args)
	if err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return 0, err
	}

	r.log.Info("user deleted in db", zap.Int64("id", id), zap.Int64("rows", rows))
	return rows, nil
}

func (r *UserRepoSQLX) exec(ctx context.Context, query string, args []any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
