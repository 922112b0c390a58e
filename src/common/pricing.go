package common

import (
	"math"
	"time"
)

// truncateToDay drops the time-of-day component. Stays are priced per
// night regardless of what time the dates were sent with.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights counts whole nights between check-in and check-out.
func Nights(checkIn, checkOut time.Time) int {
	in := truncateToDay(checkIn)
	out := truncateToDay(checkOut)
	return int(out.Sub(in).Hours() / 24)
}

func TotalPrice(pricePerNight float64, checkIn, checkOut time.Time) float64 {
	return pricePerNight * float64(Nights(checkIn, checkOut))
}

// AmountInCents converts a price to the smallest currency unit for the
// payment provider.
func AmountInCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
