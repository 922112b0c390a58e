package common

import (
	"errors"
	"fmt"
	"log"
	"stayhub/src/config"
	"stayhub/src/db"
	"stayhub/src/models"
	"stayhub/src/types"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate takes a row lock where the dialect supports one. sqlite
// serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// RoleOf resolves the acting user's relationship to a booking. The
// booking must have its Listing loaded.
func RoleOf(userID uint, booking *models.Booking) types.BookingRole {
	if booking.GuestID == userID {
		return types.ROLE_GUEST
	}
	if booking.Listing != nil && booking.Listing.HostID == userID {
		return types.ROLE_HOST
	}
	return types.ROLE_NONE
}

// allowedTransitions lists the target states each role may move a
// booking to. Hosts manage the full lifecycle; guests may only cancel.
var allowedTransitions = map[types.BookingRole][]types.BookingStatus{
	types.ROLE_HOST: {
		types.BOOKING_PENDING,
		types.BOOKING_CONFIRMED,
		types.BOOKING_CANCELLED,
		types.BOOKING_COMPLETED,
	},
	types.ROLE_GUEST: {
		types.BOOKING_CANCELLED,
	},
}

func transitionAllowed(role types.BookingRole, to types.BookingStatus) bool {
	for _, s := range allowedTransitions[role] {
		if s == to {
			return true
		}
	}
	return false
}

func CreateBooking(guestID uint, params *types.CreateBookingRequestBody) (*models.Booking, error) {
	checkIn, err := time.Parse(config.DATE_PARSE_FORMAT, params.CheckIn)
	if err != nil {
		return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "check_in must be a valid date")
	}
	checkOut, err := time.Parse(config.DATE_PARSE_FORMAT, params.CheckOut)
	if err != nil {
		return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "check_out must be a valid date")
	}
	checkIn = truncateToDay(checkIn)
	checkOut = truncateToDay(checkOut)
	if !checkOut.After(checkIn) {
		return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "check_out must be after check_in")
	}
	if checkIn.Before(truncateToDay(time.Now().UTC())) {
		return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "check_in cannot be in the past")
	}

	var booking *models.Booking
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		if err := lockForUpdate(tx).
			Where(&models.Listing{ID: params.ListingID}).
			First(&listing).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewAPIError(types.ERROR_NOT_FOUND, "Listing not found")
			}
			return err
		}
		if !listing.IsActive {
			return types.NewAPIError(types.ERROR_INVALID_STATE, "Listing is not active")
		}
		if listing.HostID == guestID {
			return types.NewAPIError(types.ERROR_FORBIDDEN, "You cannot book your own listing")
		}
		if params.Guests > listing.MaxGuests {
			return types.NewAPIError(types.ERROR_INVALID_INPUT, fmt.Sprintf("Listing accommodates at most %d guests", listing.MaxGuests))
		}
		conflict, err := FindConflict(tx, listing.ID, checkIn, checkOut, 0)
		if err != nil {
			return err
		}
		if conflict != nil {
			return types.NewAPIError(types.ERROR_CONFLICT, "Listing is not available for the selected dates")
		}
		b := models.Booking{
			ListingID:       listing.ID,
			GuestID:         guestID,
			CheckIn:         checkIn,
			CheckOut:        checkOut,
			Guests:          params.Guests,
			TotalPrice:      TotalPrice(listing.PricePerNight, checkIn, checkOut),
			Status:          types.BOOKING_PENDING,
			PaymentStatus:   types.PAYMENT_PENDING,
			SpecialRequests: params.SpecialRequests,
		}
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		b.Listing = &listing
		booking = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	go NotifyBookingCreated(booking)
	return booking, nil
}

// GetBooking loads a booking for one of its participants.
func GetBooking(userID uint, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	db := db.GetDb()
	if err := db.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: bookingID}).
		Preload("Listing").
		Preload("Review").
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
		}
		return nil, err
	}
	if RoleOf(userID, &booking) == types.ROLE_NONE {
		return nil, types.NewAPIError(types.ERROR_FORBIDDEN, "Not authorized to view this booking")
	}
	return &booking, nil
}

func ListGuestBookings(guestID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	db := db.GetDb()
	err := db.
		Model(&models.Booking{}).
		Where(&models.Booking{GuestID: guestID}).
		Preload("Listing").
		Order("created_at DESC").
		Find(&bookings).
		Error
	return bookings, err
}

// ListHostBookings returns the bookings placed on any of the host's
// listings.
func ListHostBookings(hostID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	db := db.GetDb()
	err := db.
		Model(&models.Booking{}).
		Joins("JOIN listings ON listings.id = bookings.listing_id").
		Where("listings.host_id = ?", hostID).
		Preload("Listing").
		Preload("Guest").
		Order("bookings.created_at DESC").
		Find(&bookings).
		Error
	return bookings, err
}

func UpdateBookingStatus(userID uint, bookingID uint, newStatus types.BookingStatus) (*models.Booking, error) {
	var booking models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where(&models.Booking{ID: bookingID}).
			Preload("Listing").
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
			}
			return err
		}
		role := RoleOf(userID, &booking)
		if role == types.ROLE_NONE {
			return types.NewAPIError(types.ERROR_FORBIDDEN, "Not authorized to update this booking")
		}
		if !transitionAllowed(role, newStatus) {
			return types.NewAPIError(types.ERROR_FORBIDDEN, fmt.Sprintf("Not allowed to set booking status to %s", newStatus))
		}
		if booking.Status == newStatus {
			return types.NewAPIError(types.ERROR_INVALID_STATE, fmt.Sprintf("Booking is already %s", newStatus))
		}
		// Guests may only back out of an upcoming stay. Hosts keep the
		// full table so they can correct records.
		if role == types.ROLE_GUEST &&
			booking.Status != types.BOOKING_PENDING &&
			booking.Status != types.BOOKING_CONFIRMED {
			return types.NewAPIError(types.ERROR_INVALID_STATE, fmt.Sprintf("Cannot cancel a %s booking", booking.Status))
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", newStatus).
			Error; err != nil {
			return err
		}
		booking.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	go NotifyBookingStatusChanged(&booking)
	return &booking, nil
}

// CancelBooking is the guest-facing cancel. Hosts go through
// UpdateBookingStatus.
func CancelBooking(guestID uint, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where(&models.Booking{ID: bookingID}).
			Preload("Listing").
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
			}
			return err
		}
		if booking.GuestID != guestID {
			return types.NewAPIError(types.ERROR_FORBIDDEN, "Not authorized to cancel this booking")
		}
		if booking.CheckIn.Before(truncateToDay(time.Now().UTC())) {
			return types.NewAPIError(types.ERROR_INVALID_STATE, "Cannot cancel a booking after check-in")
		}
		if booking.Status != types.BOOKING_PENDING && booking.Status != types.BOOKING_CONFIRMED {
			return types.NewAPIError(types.ERROR_INVALID_STATE, fmt.Sprintf("Cannot cancel a %s booking", booking.Status))
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", types.BOOKING_CANCELLED).
			Error; err != nil {
			return err
		}
		booking.Status = types.BOOKING_CANCELLED
		return nil
	})
	if err != nil {
		log.Printf("CancelBooking failed for booking [%d]: %s\n", bookingID, err.Error())
		return nil, err
	}
	go NotifyBookingStatusChanged(&booking)
	return &booking, nil
}
