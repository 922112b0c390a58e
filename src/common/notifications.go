package common

import (
	"fmt"
	"log"
	"os"
	"stayhub/src/config"
	"stayhub/src/db"
	"stayhub/src/lib"
	"stayhub/src/models"
)

// Notifications are best-effort. Failures are logged and never bubble
// into the request that triggered them.

func mailFrom() string {
	return os.Getenv("SMTP_FROM")
}

func participantEmails(booking *models.Booking) (guest string, host string) {
	d := db.GetDb()
	var g models.User
	if err := d.Model(&models.User{}).Where("id = ?", booking.GuestID).Select("email").First(&g).Error; err == nil {
		guest = g.Email
	}
	if booking.Listing != nil {
		var h models.User
		if err := d.Model(&models.User{}).Where("id = ?", booking.Listing.HostID).Select("email").First(&h).Error; err == nil {
			host = h.Email
		}
	}
	return guest, host
}

func sendNotification(to string, subject string, body string) {
	if to == "" {
		return
	}
	if err := lib.SendMail(&lib.SendMailInput{
		From:     mailFrom(),
		FromName: "StayHub",
		To:       []string{to},
		Subject:  subject,
		Body:     body,
		Html:     true,
	}); err != nil {
		log.Printf("Could not send notification to [%s]: %s\n", to, err.Error())
	}
}

func NotifyBookingCreated(booking *models.Booking) {
	_, host := participantEmails(booking)
	title := ""
	if booking.Listing != nil {
		title = booking.Listing.Title
	}
	sendNotification(host, "New booking request", fmt.Sprintf(`
		<p>You have a new booking request for <b>%s</b></p>
		<p>Stay: %s to %s, %d guest(s)</p>
		<p>Total: %.2f</p>
	`, title,
		booking.CheckIn.Format(config.DATE_PARSE_FORMAT),
		booking.CheckOut.Format(config.DATE_PARSE_FORMAT),
		booking.Guests,
		booking.TotalPrice,
	))
}

func NotifyBookingStatusChanged(booking *models.Booking) {
	guest, _ := participantEmails(booking)
	sendNotification(guest, fmt.Sprintf("Your booking is now %s", booking.Status), fmt.Sprintf(`
		<p>The status of your booking [%d] changed to <b>%s</b></p>
	`, booking.ID, booking.Status))
}

func NotifyPaymentConfirmed(booking *models.Booking) {
	guest, host := participantEmails(booking)
	sendNotification(guest, "Payment received", fmt.Sprintf(`
		<p>We received your payment of <b>%.2f</b> for booking [%d]</p>
		<p>Your stay is confirmed. Enjoy!</p>
	`, booking.TotalPrice, booking.ID))
	sendNotification(host, "Booking paid", fmt.Sprintf(`
		<p>Booking [%d] has been paid and confirmed</p>
	`, booking.ID))
}

func NotifyReviewReceived(review *models.Review) {
	if review.Listing == nil {
		return
	}
	var host models.User
	d := db.GetDb()
	if err := d.Model(&models.User{}).Where("id = ?", review.Listing.HostID).Select("email").First(&host).Error; err != nil {
		return
	}
	sendNotification(host.Email, "New review on your listing", fmt.Sprintf(`
		<p><b>%s</b> received a new %d-star review</p>
	`, review.Listing.Title, review.Rating))
}
