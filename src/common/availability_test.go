package common

import (
	"stayhub/src/models"
	"stayhub/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
	}
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     int
		want                           bool
	}{
		{"partial overlap", 1, 5, 3, 8, true},
		{"contained", 1, 10, 3, 5, true},
		{"identical", 1, 5, 1, 5, true},
		{"back to back after", 1, 5, 5, 8, false},
		{"back to back before", 5, 8, 1, 5, false},
		{"disjoint", 1, 3, 10, 12, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Overlaps(day(c.aStart), day(c.aEnd), day(c.bStart), day(c.bEnd))
			assert.Equal(t, c.want, got)
		})
	}
}

func TestFindConflict(t *testing.T) {
	d := newTestDB(t, "availability")
	host := createTestUser(t, d, "host@example.com", true)
	guest := createTestUser(t, d, "guest@example.com", false)
	listing := createTestListing(t, d, host.ID, 100, 4)

	day := func(n int) time.Time {
		return time.Date(2026, 7, n, 0, 0, 0, 0, time.UTC)
	}
	booking := models.Booking{
		ListingID:     listing.ID,
		GuestID:       guest.ID,
		CheckIn:       day(10),
		CheckOut:      day(15),
		Guests:        2,
		TotalPrice:    500,
		Status:        types.BOOKING_PENDING,
		PaymentStatus: types.PAYMENT_PENDING,
	}
	require.NoError(t, d.Create(&booking).Error)

	t.Run("overlapping window is blocked", func(t *testing.T) {
		conflict, err := FindConflict(d, listing.ID, day(12), day(18), 0)
		require.NoError(t, err)
		require.NotNil(t, conflict)
		assert.Equal(t, booking.ID, conflict.ID)
	})

	t.Run("back-to-back checkout day is free", func(t *testing.T) {
		conflict, err := FindConflict(d, listing.ID, day(15), day(18), 0)
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})

	t.Run("back-to-back checkin day is free", func(t *testing.T) {
		conflict, err := FindConflict(d, listing.ID, day(5), day(10), 0)
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})

	t.Run("excluded booking does not block itself", func(t *testing.T) {
		conflict, err := FindConflict(d, listing.ID, day(10), day(15), booking.ID)
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})

	t.Run("cancelled booking releases the window", func(t *testing.T) {
		require.NoError(t, d.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", types.BOOKING_CANCELLED).
			Error)
		ok, err := IsAvailable(d, listing.ID, day(12), day(18))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
