package user

import "time"

// User represents the persisted user entity in the system.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`                // auto-increment primary key
	Username     string     `gorm:"size:64;uniqueIndex" json:"username"` // unique login/display name
	Email        string     `gorm:"size:255;uniqueIndex" json:"email"`   // unique login email
	FullName     string     `gorm:"size:128" json:"full_name"`           // optional display name
	PasswordHash string     `gorm:"size:255" json:"-"`                   // bcrypt hash, never serialized
	IsActive     bool       `gorm:"default:true" json:"is_active"`       // soft account switch
	LastLoginAt  *time.Time `json:"last_login_at"`                       // last successful login, nullable
	CreatedAt    time.Time  `json:"created_at"`                          // maintained by gorm
	UpdatedAt    time.Time  `json:"updated_at"`                          // maintained by gorm
}
