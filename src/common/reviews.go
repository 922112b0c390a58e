package common

import (
	"errors"
	"stayhub/src/db"
	"stayhub/src/models"
	"stayhub/src/types"

	"gorm.io/gorm"
)

func CreateReview(userID uint, params *types.CreateReviewRequestBody) (*models.Review, error) {
	var review models.Review
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: params.BookingID}).
			Preload("Listing").
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
			}
			return err
		}
		if booking.GuestID != userID {
			return types.NewAPIError(types.ERROR_FORBIDDEN, "Only the guest can review their stay")
		}
		if booking.Status != types.BOOKING_COMPLETED {
			return types.NewAPIError(types.ERROR_INVALID_STATE, "Only completed stays can be reviewed")
		}
		// One review per reviewer per listing, no matter how many stays.
		var count int64
		if err := tx.
			Model(&models.Review{}).
			Where(&models.Review{ListingID: booking.ListingID, ReviewerID: userID}).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return types.NewAPIError(types.ERROR_CONFLICT, "You have already reviewed this listing")
		}
		review = models.Review{
			BookingID:  booking.ID,
			ListingID:  booking.ListingID,
			ReviewerID: userID,
			Rating:     params.Rating,
			Comment:    params.Comment,
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		review.Listing = booking.Listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	go NotifyReviewReceived(&review)
	return &review, nil
}

// ListingReviews returns the reviews for a listing plus its average
// rating, zero when unreviewed.
func ListingReviews(listingID uint) ([]models.Review, float64, error) {
	var reviews []models.Review
	d := db.GetDb()
	if err := d.
		Model(&models.Review{}).
		Where(&models.Review{ListingID: listingID}).
		Preload("Reviewer").
		Order("created_at DESC").
		Find(&reviews).
		Error; err != nil {
		return nil, 0, err
	}
	if len(reviews) == 0 {
		return reviews, 0, nil
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return reviews, avg, nil
}

func ListUserReviews(userID uint) ([]models.Review, error) {
	var reviews []models.Review
	d := db.GetDb()
	err := d.
		Model(&models.Review{}).
		Where(&models.Review{ReviewerID: userID}).
		Preload("Listing").
		Order("created_at DESC").
		Find(&reviews).
		Error
	return reviews, err
}
