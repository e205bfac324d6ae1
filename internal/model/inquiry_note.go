package model

import "time"

// InquiryNote is a free-text remark an admin attaches to an inquiry.
type InquiryNote struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	InquiryID uint      `json:"inquiry_id" gorm:"not null;index"`
	Note      string    `json:"note" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for InquiryNote.
func (InquiryNote) TableName() string {
	return "inquiry_notes"
}
