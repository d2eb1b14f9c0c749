package models

import "time"

// Role is the authorization level attached to a user.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleSeller     Role = "SELLER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleSeller:
		return true
	}
	return false
}

// Elevated reports whether r may not be self-assigned at registration.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is a registered account.
type User struct {
	BaseModel
	FullName     string  `gorm:"size:100;not null" json:"fullName"`
	Year         int     `json:"year"`
	Phone        string  `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Email        string  `gorm:"size:255;index" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Role         Role    `gorm:"size:20;not null;default:USER" json:"role"`
	RegionID     uint    `gorm:"index" json:"region_id"`
	Region       *Region `json:"region,omitempty"`
	Photo        string  `json:"photo"`
}

// RefreshToken tracks issued refresh tokens; only the SHA-256 digest is stored.
type RefreshToken struct {
	BaseModel
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    uint      `gorm:"index" json:"user_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
