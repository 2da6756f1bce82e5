package models

import (
	"time"
)

type User struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username       string     `gorm:"size:64;uniqueIndex;not null"  json:"username"`
	Email          string     `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"size:128;not null"             json:"-"`
	LanguageID     uint       `gorm:"not null"                      json:"language_id"`
	Language       Language   `json:"-"`
	RoleID         uint       `gorm:"not null"                      json:"role_id"`
	Role           Role       `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	Token          *string    `gorm:"size:64;uniqueIndex"           json:"-"`
	TokenExpiresAt *time.Time `json:"-"`
	Cars           []*Car     `gorm:"many2many:user_cars"           json:"-"`
}

func (u *User) Can(p Permission) bool {
	return u.Role.Has(p)
}

func (u *User) IsAdministrator() bool {
	return u.Can(PermissionAdmin)
}

// AnonymousUser is the identity of unauthenticated callers. It carries an
// empty role, so every permission check answers false without special-casing
// nil.
func AnonymousUser() *User {
	return &User{}
}
