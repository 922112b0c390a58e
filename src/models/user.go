package models

import (
	"stayhub/src/types"
)

type User struct {
	ID             uint    `gorm:"primarykey" json:"id"`
	Email          string  `gorm:"uniqueIndex" json:"email"`
	HashedPassword string  `json:"-"`
	FullName       string  `json:"full_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	IsHost         bool    `json:"is_host"`
	IsActive       bool    `gorm:"default:true" json:"is_active"`

	Listings []Listing `gorm:"foreignKey:host_id" json:"listings,omitempty"`
	Bookings []Booking `gorm:"foreignKey:guest_id" json:"bookings,omitempty"`

	types.Timestamps
}
