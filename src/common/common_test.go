package common

import (
	"fmt"
	"stayhub/src/config"
	"stayhub/src/db"
	"stayhub/src/models"
	"stayhub/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a named in-memory database and installs it as the
// package connection. The shared cache keeps every pooled connection on
// the same database.
func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	err = d.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Booking{},
		&models.Review{},
	)
	require.NoError(t, err)
	db.NewDB(d)
	return d
}

func createTestUser(t *testing.T, d *gorm.DB, email string, isHost bool) *models.User {
	t.Helper()
	user := models.User{
		Email:          email,
		HashedPassword: "x",
		FullName:       "Test User",
		IsHost:         isHost,
		IsActive:       true,
	}
	require.NoError(t, d.Create(&user).Error)
	return &user
}

func createTestListing(t *testing.T, d *gorm.DB, hostID uint, pricePerNight float64, maxGuests int) *models.Listing {
	t.Helper()
	listing := models.Listing{
		HostID:        hostID,
		Title:         "Seaside Apartment",
		PropertyType:  "apartment",
		Location:      "Lisbon",
		PricePerNight: pricePerNight,
		MaxGuests:     maxGuests,
		Bedrooms:      2,
		Bathrooms:     1,
		IsActive:      true,
	}
	require.NoError(t, d.Create(&listing).Error)
	return &listing
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(config.DATE_PARSE_FORMAT)
}

func dateOf(value string) time.Time {
	d, _ := time.Parse(config.DATE_PARSE_FORMAT, value)
	return d
}

func requireKind(t *testing.T, err error, kind types.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, kind, apiErr.Kind)
}
