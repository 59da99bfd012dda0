package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a dashboard account
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"not null"` // bcrypt hash
	Email     string    `json:"email" gorm:"not null;uniqueIndex"`
	Role      string    `json:"role" gorm:"size:20;not null;default:'user'"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user may use the admin dashboard
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
