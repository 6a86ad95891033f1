package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of account roles. Every authorization decision in
// the system keys off these values; unrecognized strings are rejected at the
// boundary instead of defaulting.
type Role string

const (
	RolePatient       Role = "patient"
	RoleDoctor        Role = "doctor"
	RoleClinicManager Role = "clinic_manager"
	RoleAdmin         Role = "admin"

	// RoleSystem is the upload/AI collaborator. It exists only as a token
	// claim so the collaborator can create pending analysis records; no user
	// row ever carries it.
	RoleSystem Role = "system"
)

// ValidAccountRole reports whether r may be stored on a user row.
func ValidAccountRole(r Role) bool {
	switch r {
	case RolePatient, RoleDoctor, RoleClinicManager, RoleAdmin:
		return true
	}
	return false
}

// ParseRole validates a role string from an untrusted boundary. RoleSystem is
// accepted because token claims for the upload collaborator pass through the
// same parser.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if ValidAccountRole(r) || r == RoleSystem {
		return r, true
	}
	return "", false
}

// User represents an account in the system
type User struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	FullName  string    `gorm:"column:full_name;not null" json:"full_name"`
	Email     string    `gorm:"size:255;not null;unique;index;column:email" json:"email"`
	Password  string    `gorm:"size:255;not null;column:password" json:"-"`
	Role      Role      `gorm:"size:20;not null;index;check:role IN ('patient', 'doctor', 'clinic_manager', 'admin');column:role" json:"role"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// SeedUsers inserts the bootstrap accounts into the database. Passwords are
// already hashed by the caller; seeding is idempotent on email.
func SeedUsers(db *gorm.DB, users []User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, user := range users {
			if err := tx.FirstOrCreate(&user, User{Email: user.Email}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
