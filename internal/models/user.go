package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an account in the system
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Name        string    `gorm:"size:150" json:"name"`
	Surname     string    `gorm:"size:150" json:"surname"`
	Email       string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"size:128;not null" json:"-"` // bcrypt hash
	IsActive    bool      `gorm:"not null" json:"is_active"`
	IsStaff     bool      `gorm:"not null" json:"is_staff"`
	IsSuperuser bool      `gorm:"not null" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SetPassword hashes raw and stores the hash on the user
func (u *User) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether raw matches the stored hash
func (u *User) CheckPassword(raw string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil
}

// String mirrors how a user is shown in related fields (author_email, comment user)
func (u *User) String() string {
	return u.Email
}
