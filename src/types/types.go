package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

type PaymentStatus string

const (
	PAYMENT_PENDING    PaymentStatus = "pending"
	PAYMENT_PROCESSING PaymentStatus = "processing"
	PAYMENT_PAID       PaymentStatus = "paid"
	PAYMENT_FAILED     PaymentStatus = "failed"
	PAYMENT_REFUNDED   PaymentStatus = "refunded"
)

// BookingRole is the relationship of an acting user to a booking.
type BookingRole string

const (
	ROLE_GUEST BookingRole = "guest"
	ROLE_HOST  BookingRole = "host"
	ROLE_NONE  BookingRole = "none"
)

type RegisterUserRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	IsHost   bool   `json:"is_host,omitempty"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequestBody struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	IsHost   *bool   `json:"is_host,omitempty"`
}

type CreateListingRequestBody struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description,omitempty"`
	PropertyType  string   `json:"property_type" binding:"required"`
	Location      string   `json:"location" binding:"required"`
	Address       string   `json:"address,omitempty"`
	PricePerNight float64  `json:"price_per_night" binding:"required,gt=0"`
	MaxGuests     int      `json:"max_guests" binding:"required,min=1"`
	Bedrooms      int      `json:"bedrooms,omitempty"`
	Bathrooms     int      `json:"bathrooms,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
}

type UpdateListingRequestBody struct {
	Title         *string  `json:"title,omitempty"`
	Description   *string  `json:"description,omitempty"`
	PropertyType  *string  `json:"property_type,omitempty"`
	Location      *string  `json:"location,omitempty"`
	Address       *string  `json:"address,omitempty"`
	PricePerNight *float64 `json:"price_per_night,omitempty" binding:"omitempty,gt=0"`
	MaxGuests     *int     `json:"max_guests,omitempty" binding:"omitempty,min=1"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *int     `json:"bathrooms,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

type ListingQueryFilters struct {
	Location string   `form:"location"`
	Guests   int      `form:"guests"`
	MinPrice *float64 `form:"min_price"`
	MaxPrice *float64 `form:"max_price"`
	CheckIn  string   `form:"check_in" binding:"omitempty,bookabledate"`
	CheckOut string   `form:"check_out" binding:"omitempty,bookabledate"`
	Skip     int      `form:"skip"`
	Limit    int      `form:"limit"`
}

type CreateBookingRequestBody struct {
	ListingID       uint   `json:"listing_id" binding:"required"`
	CheckIn         string `json:"check_in" binding:"required,bookabledate" time_format:"2006-01-02"`
	CheckOut        string `json:"check_out" binding:"required,bookabledate,gtdate=CheckIn" time_format:"2006-01-02"`
	Guests          int    `json:"guests" binding:"required,min=1"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type UpdateBookingStatusRequestBody struct {
	Status BookingStatus `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}

type CreatePaymentIntentRequestBody struct {
	BookingID uint `json:"booking_id" binding:"required"`
}

type ConfirmPaymentRequestBody struct {
	BookingID       uint   `json:"booking_id" binding:"required"`
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

type RefundRequestBody struct {
	BookingID uint     `json:"booking_id" binding:"required"`
	Amount    *float64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
	Reason    string   `json:"reason,omitempty"`
}

type CreateReviewRequestBody struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty"`
}

type UploadListingImageRequestBody struct {
	Data        string `json:"data" binding:"required"`
	ContentType string `json:"content_type,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type Claims struct {
	Username string `json:"username"`
	IsHost   bool   `json:"is_host"`
	jwt.RegisteredClaims
}
