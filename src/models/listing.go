package models

import (
	"stayhub/src/types"
)

type Listing struct {
	ID            uint     `gorm:"primarykey" json:"id"`
	HostID        uint     `gorm:"index" json:"host_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	PropertyType  string   `json:"property_type,omitempty"`
	Location      string   `gorm:"index" json:"location"`
	Address       string   `json:"address,omitempty"`
	PricePerNight float64  `json:"price_per_night"`
	MaxGuests     int      `json:"max_guests"`
	Bedrooms      int      `json:"bedrooms,omitempty"`
	Bathrooms     int      `json:"bathrooms,omitempty"`
	Amenities     []string `gorm:"serializer:json" json:"amenities,omitempty"`
	Images        []string `gorm:"serializer:json" json:"images,omitempty"`
	IsActive      bool     `gorm:"default:true" json:"is_active"`

	Host     *User     `gorm:"foreignKey:host_id" json:"host,omitempty"`
	Bookings []Booking `gorm:"foreignKey:listing_id" json:"bookings,omitempty"`
	Reviews  []Review  `gorm:"foreignKey:listing_id" json:"reviews,omitempty"`

	types.Timestamps
}
