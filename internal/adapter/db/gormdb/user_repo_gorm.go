package gormdb

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-api/internal/domain/user"
)

// UserRepoGorm implements the user Repository on top of GORM.
// It works with any dialector GORM is opened with (MySQL, PostgreSQL, SQLite).
type UserRepoGorm struct {
	db  *gorm.DB    // GORM handle backed by the shared connection pool
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoGorm creates a new instance of UserRepoGorm.
func NewUserRepoGorm(db *gorm.DB, log *zap.Logger) *UserRepoGorm {
	return &UserRepoGorm{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// GetAll returns every user in the table's natural order.
func (r *UserRepoGorm) GetAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		r.log.Error("failed to list users in db", zap.Error(err))
		return nil, err
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = user.User{
			ID:    model.ID,
			Name:  model.Name,
			Email: model.Email,
		}
	}
	return users, nil
}

// Create inserts u and stores the generated key in u.ID.
func (r *UserRepoGorm) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		r.log.Error("failed to create user in db", zap.Error(result.Error), zap.String("email", u.Email))
		return 0, result.Error
	}

	u.ID = model.ID
	r.log.Info("user created in db", zap.Int64("id", model.ID), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

// Update overwrites name and email of the row matching u.ID.
func (r *UserRepoGorm) Update(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	result := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{"name": u.Name, "email": u.Email})
	if result.Error != nil {
		r.log.Error("failed to update user in db", zap.Error(result.Error), zap.Int64("id", u.ID))
		return 0, result.Error
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

// Delete removes the row matching id.
func (r *UserRepoGorm) Delete(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if result.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(result.Error), zap.Int64("id", id))
		return 0, result.Error
	}

	r.log.Info("user deleted in db", zap.Int64("id", id), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}
