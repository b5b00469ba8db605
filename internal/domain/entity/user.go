package entity

// Roles assignable to a user. Everyone registers as an employee; admins are
// promoted out-of-band (seed tool or SQL).
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is an identity record. Username doubles as the display name and, by
// company convention, the work email address. Password holds a bcrypt hash
// and never leaves the server.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user may access admin views.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
