package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// CreateUserResponse represents the result of creating a user.
// ID is the generated primary key; RowsAffected is what the insert reported.
type CreateUserResponse struct {
	ID           int64
	RowsAffected int64
}

// UpdateUserRequest represents the request payload for overwriting an existing user.
type UpdateUserRequest struct {
	ID    int64
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// UpdateUserResponse represents the result of updating a user.
type UpdateUserResponse struct {
	ID           int64
	RowsAffected int64
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the result of deleting a user.
type DeleteUserResponse struct {
	ID           int64
	RowsAffected int64
}

// ListUsersResponse represents every stored user in database scan order.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID    int64
	Name  string
	Email string
}
