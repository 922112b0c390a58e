package common

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"stayhub/src/config"
	"stayhub/src/db"
	awslib "stayhub/src/lib/aws"
	"stayhub/src/models"
	"stayhub/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func CreateListing(hostID uint, params *types.CreateListingRequestBody) (*models.Listing, error) {
	var listing models.Listing
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		var host models.User
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{ID: hostID}).
			First(&host).
			Error; err != nil {
			return err
		}
		if !host.IsHost {
			return types.NewAPIError(types.ERROR_FORBIDDEN, "Only hosts can create listings")
		}
		listing = models.Listing{
			HostID:        hostID,
			Title:         params.Title,
			Description:   params.Description,
			PropertyType:  params.PropertyType,
			Location:      params.Location,
			Address:       params.Address,
			PricePerNight: params.PricePerNight,
			MaxGuests:     params.MaxGuests,
			Bedrooms:      params.Bedrooms,
			Bathrooms:     params.Bathrooms,
			Amenities:     params.Amenities,
			IsActive:      true,
		}
		if err := tx.Create(&listing).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ownedListing loads a listing and checks the acting user owns it.
func ownedListing(tx *gorm.DB, userID uint, listingID uint) (*models.Listing, error) {
	var listing models.Listing
	if err := tx.
		Where(&models.Listing{ID: listingID}).
		First(&listing).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAPIError(types.ERROR_NOT_FOUND, "Listing not found")
		}
		return nil, err
	}
	if listing.HostID != userID {
		return nil, types.NewAPIError(types.ERROR_FORBIDDEN, "Not authorized to manage this listing")
	}
	return &listing, nil
}

func UpdateListing(userID uint, listingID uint, params *types.UpdateListingRequestBody) (*models.Listing, error) {
	var listing *models.Listing
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		var err error
		listing, err = ownedListing(tx, userID, listingID)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if params.Title != nil {
			updates["title"] = *params.Title
		}
		if params.Description != nil {
			updates["description"] = *params.Description
		}
		if params.PropertyType != nil {
			updates["property_type"] = *params.PropertyType
		}
		if params.Location != nil {
			updates["location"] = *params.Location
		}
		if params.Address != nil {
			updates["address"] = *params.Address
		}
		if params.PricePerNight != nil {
			updates["price_per_night"] = *params.PricePerNight
		}
		if params.MaxGuests != nil {
			updates["max_guests"] = *params.MaxGuests
		}
		if params.Bedrooms != nil {
			updates["bedrooms"] = *params.Bedrooms
		}
		if params.Bathrooms != nil {
			updates["bathrooms"] = *params.Bathrooms
		}
		if params.IsActive != nil {
			updates["is_active"] = *params.IsActive
		}
		if params.Amenities != nil {
			listing.Amenities = params.Amenities
			if err := tx.Model(listing).Update("amenities", listing.Amenities).Error; err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(listing).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where(&models.Listing{ID: listingID}).First(listing).Error
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// DeactivateListing takes a listing off the market. Existing bookings
// are left untouched.
func DeactivateListing(userID uint, listingID uint) error {
	d := db.GetDb()
	return d.Transaction(func(tx *gorm.DB) error {
		listing, err := ownedListing(tx, userID, listingID)
		if err != nil {
			return err
		}
		return tx.
			Model(&models.Listing{}).
			Where("id = ?", listing.ID).
			Update("is_active", false).
			Error
	})
}

func GetListing(listingID uint) (*models.Listing, float64, error) {
	var listing models.Listing
	d := db.GetDb()
	if err := d.
		Model(&models.Listing{}).
		Where("id = ? AND is_active = ?", listingID, true).
		Preload("Host").
		Preload("Reviews").
		First(&listing).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, types.NewAPIError(types.ERROR_NOT_FOUND, "Listing not found")
		}
		return nil, 0, err
	}
	var avg float64
	if len(listing.Reviews) > 0 {
		var sum int
		for _, r := range listing.Reviews {
			sum += r.Rating
		}
		avg = float64(sum) / float64(len(listing.Reviews))
	}
	return &listing, avg, nil
}

func ListHostListings(hostID uint) ([]models.Listing, error) {
	var listings []models.Listing
	d := db.GetDb()
	err := d.
		Model(&models.Listing{}).
		Where(&models.Listing{HostID: hostID}).
		Order("created_at DESC").
		Find(&listings).
		Error
	return listings, err
}

const maxSearchLimit = 100

// SearchListings filters active listings. When a stay window is given,
// listings with a blocking booking in that window are excluded.
func SearchListings(filters *types.ListingQueryFilters) ([]models.Listing, error) {
	d := db.GetDb()
	q := d.Model(&models.Listing{}).Where("is_active = ?", true)
	if filters.Location != "" {
		q = q.Where("location LIKE ?", "%"+filters.Location+"%")
	}
	if filters.Guests > 0 {
		q = q.Where("max_guests >= ?", filters.Guests)
	}
	if filters.MinPrice != nil {
		q = q.Where("price_per_night >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("price_per_night <= ?", *filters.MaxPrice)
	}
	if filters.CheckIn != "" && filters.CheckOut != "" {
		checkIn, err := time.Parse(config.DATE_PARSE_FORMAT, filters.CheckIn)
		if err != nil {
			return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "check_in must be a valid date")
		}
		checkOut, err := time.Parse(config.DATE_PARSE_FORMAT, filters.CheckOut)
		if err != nil {
			return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "check_out must be a valid date")
		}
		if !checkOut.After(checkIn) {
			return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "check_out must be after check_in")
		}
		q = q.Where(
			"NOT EXISTS (SELECT 1 FROM bookings b WHERE b.listing_id = listings.id AND b.status IN (?) AND b.check_in < ? AND b.check_out > ?)",
			blockingStatuses, checkOut, checkIn,
		)
	}
	limit := filters.Limit
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	var listings []models.Listing
	err := q.
		Order("created_at DESC").
		Offset(filters.Skip).
		Limit(limit).
		Find(&listings).
		Error
	return listings, err
}

// AddListingImage uploads a base64 image payload to S3 and records its
// public URL on the listing.
func AddListingImage(userID uint, listingID uint, params *types.UploadListingImageRequestBody) (*models.Listing, error) {
	data, err := base64.StdEncoding.DecodeString(params.Data)
	if err != nil {
		return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "Image data must be base64 encoded")
	}
	var listing *models.Listing
	d := db.GetDb()
	err = d.Transaction(func(tx *gorm.DB) error {
		listing, err = ownedListing(tx, userID, listingID)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("listings/%d/%s", listing.ID, uuid.NewString())
		url, err := awslib.S3UploadListingImage(key, data, params.ContentType)
		if err != nil {
			log.Printf("Error uploading image for listing [%d]: %s\n", listing.ID, err.Error())
			return types.NewAPIError(types.ERROR_EXTERNAL, "Could not store listing image")
		}
		listing.Images = append(listing.Images, *url)
		return tx.Model(listing).Update("images", listing.Images).Error
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}
