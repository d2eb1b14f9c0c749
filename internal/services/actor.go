package services

import "github.com/example/bozor/internal/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role models.Role
}

// IsAdmin reports whether the actor has administrative rights.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSuperAdmin
}

// CanAccess reports whether the actor owns ownerID's resource or is an admin.
func (a Actor) CanAccess(ownerID uint) bool {
	return a.ID == ownerID || a.IsAdmin()
}
