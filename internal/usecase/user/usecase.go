package user

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-management-api/internal/domain/user"
	pkgerrors "user-management-api/pkg/errors"
)

// Client-facing messages.
const (
	MsgNameRequired  = "El nombre es obligatorio"
	MsgEmailRequired = "El email es obligatorio"
	MsgUserNotFound  = "Usuario no encontrado"
)

// fieldMessages maps a required DTO field to the message returned when it is missing.
var fieldMessages = map[string]string{
	"Name":  MsgNameRequired,
	"Email": MsgEmailRequired,
}

// Repository defines the interface for user data access operations.
// Write methods return the number of rows the statement affected.
type Repository interface {
	GetAll(ctx context.Context) ([]domain.User, error)         // Every row in scan order
	Create(ctx context.Context, u *domain.User) (int64, error) // Insert; sets u.ID
	Update(ctx context.Context, u *domain.User) (int64, error) // Overwrite name and email by ID
	Delete(ctx context.Context, id int64) (int64, error)       // Remove by ID
}

// Service implements the business logic for user management operations.
type Service struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for required fields
}

var _ Usecase = (*Service)(nil)

// New creates a new instance of Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts the first validator failure into a client-facing ValidationError.
// Fields are checked in declaration order, so Name is reported before Email.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	first := validationErrors[0]
	msg, ok := fieldMessages[first.Field()]
	if !ok {
		msg = first.Field() + " es obligatorio"
	}
	return pkgerrors.NewValidationError(first.Field(), msg)
}

// ListUsers returns every stored user.
func (s *Service) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	domainUsers, err := s.repo.GetAll(ctx)
	if err != nil {
		s.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = User{
			ID:    du.ID,
			Name:  du.Name,
			Email: du.Email,
		}
	}

	s.log.Debug("listed users", zap.Int("count", len(users)))
	return &ListUsersResponse{Users: users}, nil
}

// CreateUser inserts a new user once both required fields are present.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	s.log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u := &domain.User{
		Name:  in.Name,
		Email: in.Email,
	}
	rows, err := s.repo.Create(ctx, u)
	if err != nil {
		s.log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	if rows != 1 {
		s.log.Warn("unexpected affected rows on insert", zap.Int64("rows", rows))
	}

	return &CreateUserResponse{ID: u.ID, RowsAffected: rows}, nil
}

// UpdateUser overwrites name and email of the user identified by in.ID.
// A statement that matches no row yields a NotFoundError.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	s.log.Info("updating user", zap.Int64("id", in.ID), zap.String("name", in.Name), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	rows, err := s.repo.Update(ctx, &domain.User{
		ID:    in.ID,
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		s.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	if rows == 0 {
		s.log.Warn("user not found for update", zap.Int64("id", in.ID))
		return nil, pkgerrors.NewNotFoundError("user", MsgUserNotFound)
	}

	return &UpdateUserResponse{ID: in.ID, RowsAffected: rows}, nil
}

// DeleteUser removes the user identified by in.ID.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	s.log.Info("deleting user", zap.Int64("id", in.ID))

	rows, err := s.repo.Delete(ctx, in.ID)
	if err != nil {
		s.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	if rows == 0 {
		s.log.Warn("user not found for delete", zap.Int64("id", in.ID))
		return nil, pkgerrors.NewNotFoundError("user", MsgUserNotFound)
	}

	return &DeleteUserResponse{ID: in.ID, RowsAffected: rows}, nil
}
