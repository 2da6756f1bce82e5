package models

import (
	"errors"

	"gorm.io/gorm"
)

// Permission is a single capability bit. Bits are independent: granting
// ADMIN does not imply USER.
type Permission uint

const (
	PermissionUser Permission = 1 << iota
	PermissionAdmin
)

type Role struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name        string     `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Default     bool       `gorm:"not null;default:false;index" json:"default"`
	Permissions Permission `gorm:"not null;default:0"           json:"permissions"`
	Users       []User     `gorm:"foreignKey:RoleID"            json:"-"`
}

// Has reports whether every bit of p is present.
func (r *Role) Has(p Permission) bool {
	return r.Permissions&p == p
}

func (r *Role) Add(p Permission) {
	r.Permissions |= p
}

func (r *Role) Remove(p Permission) {
	r.Permissions &^= p
}

func (r *Role) ResetPermissions() {
	r.Permissions = 0
}

// InsertRoles seeds the built-in roles. Safe to run repeatedly: existing
// rows are updated in place, permissions are rebuilt from scratch and
// exactly one role ends up flagged as default.
func InsertRoles(db *gorm.DB) error {
	roles := []struct {
		name  string
		perms []Permission
	}{
		{"user", []Permission{PermissionUser}},
		{"admin", []Permission{PermissionUser, PermissionAdmin}},
	}
	defaultRole := "user"

	for _, r := range roles {
		var role Role
		err := db.Where("name = ?", r.name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = Role{Name: r.name}
		} else if err != nil {
			return err
		}
		role.ResetPermissions()
		for _, p := range r.perms {
			role.Add(p)
		}
		role.Default = r.name == defaultRole
		if err := db.Save(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

// DefaultRole returns the role assigned to freshly registered users.
func DefaultRole(db *gorm.DB) (*Role, error) {
	var role Role
	if err := db.Where("\"default\" = ?", true).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
