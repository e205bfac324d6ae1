package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	// InquiryStatusPending is the status every new inquiry starts in.
	InquiryStatusPending = "pending"
	// InquiryStatusReviewed marks an inquiry an admin has looked at.
	InquiryStatusReviewed = "reviewed"
	// InquiryStatusClosed marks an inquiry that needs no further action.
	InquiryStatusClosed = "closed"

	// DefaultInquiryType is used when the submitter does not pick a type.
	DefaultInquiryType = "general"
	// DefaultInquirySource is used when the submitter does not name a source.
	DefaultInquirySource = "website"
)

// Inquiry represents one prospective-buyer submission from the web form.
// Status is free text; the constants above are the conventional values.
type Inquiry struct {
	ID              uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string         `json:"name" gorm:"size:255;not null"`
	Email           string         `json:"email" gorm:"size:255;not null;index"`
	Phone           *string        `json:"phone" gorm:"size:64"`
	Company         *string        `json:"company" gorm:"size:255"`
	Country         *string        `json:"country" gorm:"size:128"`
	ProductInterest *string        `json:"product_interest" gorm:"size:255"`
	CustomProduct   *string        `json:"custom_product" gorm:"size:255"`
	Quantity        *string        `json:"quantity" gorm:"size:128"`
	DeliveryPort    *string        `json:"delivery_port" gorm:"size:255"`
	TargetPrice     *string        `json:"target_price" gorm:"size:128"`
	Certifications  Certifications `json:"certifications"`
	Message         *string        `json:"message" gorm:"type:text"`
	InquiryType     string         `json:"inquiry_type" gorm:"size:50;not null;default:'general'"`
	Status          string         `json:"status" gorm:"size:50;not null;default:'pending';index"`
	Source          string         `json:"source" gorm:"size:50;not null;default:'website'"`
	CreatedAt       time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Relations
	Notes []InquiryNote `json:"notes,omitempty" gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Inquiry.
func (Inquiry) TableName() string {
	return "inquiries"
}

// BeforeCreate fills in the defaults for type, status and source.
func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	if i.InquiryType == "" {
		i.InquiryType = DefaultInquiryType
	}
	if i.Status == "" {
		i.Status = InquiryStatusPending
	}
	if i.Source == "" {
		i.Source = DefaultInquirySource
	}
	return nil
}

// Certifications is an ordered list of certification names stored as a
// single text column joined with ", ".
type Certifications []string

const certificationSeparator = ", "

// GormDataType tells GORM to store the list in a text column.
func (Certifications) GormDataType() string {
	return "text"
}

// Value implements driver.Valuer. An empty list is stored as NULL.
func (c Certifications) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return strings.Join(c, certificationSeparator), nil
}

// Scan implements sql.Scanner.
func (c *Certifications) Scan(src interface{}) error {
	var text string
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("certifications: unsupported column type %T", src)
	}
	*c = ParseCertifications(text)
	return nil
}

// UnmarshalJSON accepts either a JSON array of strings or a single
// comma separated string.
func (c *Certifications) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = compact(list)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("certifications must be a string or an array of strings")
	}
	*c = ParseCertifications(text)
	return nil
}

// ParseCertifications splits the stored text form back into a list.
func ParseCertifications(text string) Certifications {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return compact(strings.Split(text, ","))
}

func compact(items []string) Certifications {
	out := make(Certifications, 0, len(items))
	for _, item := range items {
		if t := strings.TrimSpace(item); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
