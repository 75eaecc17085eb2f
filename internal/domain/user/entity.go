package user

// User represents a row of the users table.
type User struct {
	ID    int64  // ID is generated by the database on insert
	Name  string // Name is required on create and update
	Email string // Email is required on create and update; format is not checked
}
