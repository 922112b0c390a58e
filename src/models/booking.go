package models

import (
	"stayhub/src/types"
	"time"
)

type Booking struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	ListingID       uint                `gorm:"index" json:"listing_id"`
	GuestID         uint                `gorm:"index" json:"guest_id"`
	CheckIn         time.Time           `json:"check_in"`
	CheckOut        time.Time           `json:"check_out"`
	Guests          int                 `json:"guests"`
	TotalPrice      float64             `json:"total_price"`
	Status          types.BookingStatus `gorm:"default:pending" json:"status"`
	PaymentStatus   types.PaymentStatus `gorm:"default:pending" json:"payment_status"`
	PaymentIntentID *string             `gorm:"index" json:"payment_intent_id,omitempty"`
	PaymentMethod   *string             `json:"payment_method,omitempty"`
	RefundAmount    float64             `json:"refund_amount"`
	SpecialRequests string              `json:"special_requests,omitempty"`

	Listing *Listing `gorm:"foreignKey:listing_id" json:"listing,omitempty"`
	Guest   *User    `gorm:"foreignKey:guest_id" json:"guest,omitempty"`
	Review  *Review  `gorm:"foreignKey:booking_id" json:"review,omitempty"`

	types.Timestamps
}
