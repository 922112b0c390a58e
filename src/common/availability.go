package common

import (
	"errors"
	"stayhub/src/models"
	"stayhub/src/types"
	"time"

	"gorm.io/gorm"
)

// Overlaps reports whether two half-open [start, end) stay windows
// intersect. Back-to-back stays sharing a turnover day do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// blockingStatuses are the booking states that hold dates. Cancelled and
// completed bookings release their window.
var blockingStatuses = []types.BookingStatus{
	types.BOOKING_PENDING,
	types.BOOKING_CONFIRMED,
}

// FindConflict returns the first booking that blocks the [checkIn,
// checkOut) window on a listing, or nil when the window is free.
// excludeID skips one booking, for re-checks against itself.
func FindConflict(tx *gorm.DB, listingID uint, checkIn, checkOut time.Time, excludeID uint) (*models.Booking, error) {
	var conflict models.Booking
	q := tx.
		Model(&models.Booking{}).
		Where("listing_id = ?", listingID).
		Where("status IN (?)", blockingStatuses).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.First(&conflict).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conflict, nil
}

func IsAvailable(tx *gorm.DB, listingID uint, checkIn, checkOut time.Time) (bool, error) {
	conflict, err := FindConflict(tx, listingID, checkIn, checkOut, 0)
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}
