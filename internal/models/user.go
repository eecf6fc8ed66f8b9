package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleAdmin      UserRole = "ADMIN"
)

// Valid reports whether the role is one the back office knows about.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateUserRequest is the payload accepted by the user management endpoint.
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=8,bcryptmax"`
	Name     string   `json:"name" validate:"required,min=2,max=120"`
	Role     UserRole `json:"role" validate:"required,oneof=ADMIN SUPER_ADMIN"`
}

// UpdateUserRequest carries the mutable fields of a user. Nil means unchanged.
type UpdateUserRequest struct {
	Email    *string   `json:"email" validate:"omitempty,email,max=255"`
	Password *string   `json:"password" validate:"omitempty,min=8,bcryptmax"`
	Name     *string   `json:"name" validate:"omitempty,min=2,max=120"`
	Role     *UserRole `json:"role" validate:"omitempty,oneof=ADMIN SUPER_ADMIN"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// ListQuery holds the paging and sorting knobs shared by every list endpoint.
type ListQuery struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
