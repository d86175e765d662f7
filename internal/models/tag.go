package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag labels posts; slug is derived from the name
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeSave derives the slug from the name
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	t.Slug = Slugify(t.Name)
	return nil
}
