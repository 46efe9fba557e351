package entities

import "time"

type UserRole string

const (
	UserRoleAdmin       UserRole = "admin"
	UserRoleAuthor      UserRole = "author"
	UserRoleParticipant UserRole = "participant"
)

// roleRank orders roles; unknown roles rank below every known one.
var roleRank = map[UserRole]int{
	UserRoleAdmin:       3,
	UserRoleAuthor:      2,
	UserRoleParticipant: 1,
}

// Rank returns the role's position in the admin > author > participant ordering.
func (r UserRole) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r ranks at or above min.
func (r UserRole) AtLeast(min UserRole) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	return r.Rank() > 0
}

// User is a local teacher account used by the signed-cookie auth policy.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:100" json:"username"`
	PasswordHash string     `gorm:"size:100" json:"-"`
	Role         UserRole   `gorm:"size:20;default:'participant'" json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
