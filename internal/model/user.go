package model

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Role         Role      `gorm:"size:10;default:user" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserResourceName is the resource label user mutations are recorded under.
// Listings suppress action=create records for it (signup self-logs).
const UserResourceName = "user"

func (u *User) AuditResource() string { return UserResourceName }
func (u *User) AuditObjectID() string { return fmt.Sprintf("%d", u.ID) }

func (u *User) AuditSnapshot() map[string]any {
	return map[string]any{
		"username":   u.Username,
		"role":       string(u.Role),
		"is_active":  u.IsActive,
		"updated_at": u.UpdatedAt,
	}
}

// IsStaff reports whether the user has privileged (staff or admin) access.
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleStaff || u.Role == RoleAdmin)
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
