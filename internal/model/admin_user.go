package model

import "time"

// AdminUser represents an administrator allowed into the admin panel.
type AdminUser struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;size:255;not null"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for AdminUser.
func (AdminUser) TableName() string {
	return "admin_users"
}
