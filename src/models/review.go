package models

import (
	"stayhub/src/types"
)

type Review struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	BookingID  uint   `gorm:"index" json:"booking_id"`
	ListingID  uint   `gorm:"uniqueIndex:idx_reviews_listing_reviewer" json:"listing_id"`
	ReviewerID uint   `gorm:"uniqueIndex:idx_reviews_listing_reviewer" json:"reviewer_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`

	Listing  *Listing `gorm:"foreignKey:listing_id" json:"listing,omitempty"`
	Reviewer *User    `gorm:"foreignKey:reviewer_id" json:"reviewer,omitempty"`

	types.Timestamps
}
