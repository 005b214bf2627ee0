package models

import "time"

type Shop struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Slug       string    `gorm:"size:120;uniqueIndex;not null" json:"slug"` // public login path /shops/:slug
	Address    string    `gorm:"size:255" json:"address"`
	Phone      string    `gorm:"size:50" json:"phone"`
	GSTNumber  string    `gorm:"size:20" json:"gst_number"`
	InvoiceTag string    `gorm:"size:10" json:"invoice_tag"` // transaction code prefix, default TXN
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Users []User `json:"-"`
}
