package entity

type UserRole string

const (
	RoleClient  UserRole = "CLIENT"
	RoleDiviner UserRole = "DIVINER"
)

type User struct {
	Base
	Email        string   `db:"email"`
	PasswordHash string   `db:"password_hash"`
	Name         string   `db:"name"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}
