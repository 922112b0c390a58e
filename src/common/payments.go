package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"stayhub/src/config"
	"stayhub/src/db"
	"stayhub/src/lib"
	"stayhub/src/models"
	"stayhub/src/types"

	"gorm.io/gorm"
)

// statementDescriptor shows up on the guest's card statement.
const statementDescriptor = "STAYHUB BOOKING"

// PaymentService runs the payment lifecycle for bookings. Both the
// client confirmation path and the provider webhook path converge on
// applyPaymentSuccess, so whichever arrives first wins and the other
// becomes a no-op.
type PaymentService struct {
	cfg      *config.Config
	provider lib.PaymentProvider
}

func NewPaymentService(cfg *config.Config, provider lib.PaymentProvider) *PaymentService {
	return &PaymentService{cfg: cfg, provider: provider}
}

func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID uint, bookingID uint) (*lib.PaymentIntent, error) {
	var booking models.Booking
	d := db.GetDb()
	if err := d.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: bookingID}).
		Preload("Listing").
		Preload("Guest").
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
		}
		return nil, err
	}
	if booking.GuestID != userID {
		return nil, types.NewAPIError(types.ERROR_FORBIDDEN, "Not authorized to pay for this booking")
	}
	if booking.PaymentStatus == types.PAYMENT_PAID {
		return nil, types.NewAPIError(types.ERROR_INVALID_STATE, "Booking is already paid")
	}
	if booking.Status != types.BOOKING_PENDING && booking.Status != types.BOOKING_CONFIRMED {
		return nil, types.NewAPIError(types.ERROR_INVALID_STATE, fmt.Sprintf("Cannot pay for a %s booking", booking.Status))
	}

	// A failed or cancelled attempt may be replaced. An intent still in
	// flight blocks a second one.
	if booking.PaymentIntentID != nil && booking.PaymentStatus != types.PAYMENT_FAILED {
		existing, err := s.provider.RetrieveIntent(ctx, *booking.PaymentIntentID)
		if err != nil {
			log.Printf("Could not verify outstanding intent [%s]: %s\n", *booking.PaymentIntentID, err.Error())
			return nil, types.NewAPIError(types.ERROR_EXTERNAL, "Could not verify payment with provider")
		}
		if existing.Status == "succeeded" {
			return nil, types.NewAPIError(types.ERROR_INVALID_STATE, "Booking is already paid")
		}
		if existing.Status != "canceled" {
			return nil, types.NewAPIError(types.ERROR_INVALID_STATE, "A payment is already in progress for this booking")
		}
	}

	params := &lib.CreateIntentParams{
		Amount:              AmountInCents(booking.TotalPrice),
		Currency:            s.cfg.Currency,
		StatementDescriptor: statementDescriptor,
		Metadata: map[string]string{
			"booking_id": fmt.Sprint(booking.ID),
			"listing_id": fmt.Sprint(booking.ListingID),
		},
	}
	if booking.Guest != nil {
		params.ReceiptEmail = booking.Guest.Email
	}
	intent, err := s.provider.CreateIntent(ctx, params)
	if err != nil {
		log.Printf("Error creating payment intent for booking [%d]: %s\n", booking.ID, err.Error())
		return nil, types.NewAPIError(types.ERROR_EXTERNAL, "Payment provider rejected the request")
	}

	if err := d.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Booking{}).
			Where("id = ? AND payment_status <> ?", booking.ID, types.PAYMENT_PAID).
			Updates(map[string]any{
				"payment_intent_id": intent.ID,
				"payment_status":    types.PAYMENT_PROCESSING,
			}).
			Error
	}); err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *PaymentService) ConfirmPayment(ctx context.Context, userID uint, bookingID uint, intentID string) (*models.Booking, error) {
	var booking models.Booking
	d := db.GetDb()
	if err := d.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: bookingID}).
		Preload("Listing").
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
		}
		return nil, err
	}
	if booking.GuestID != userID {
		return nil, types.NewAPIError(types.ERROR_FORBIDDEN, "Not authorized to pay for this booking")
	}
	if booking.PaymentIntentID == nil || *booking.PaymentIntentID != intentID {
		return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, "Payment intent does not belong to this booking")
	}

	intent, err := s.provider.RetrieveIntent(ctx, intentID)
	if err != nil {
		log.Printf("Error retrieving payment intent [%s]: %s\n", intentID, err.Error())
		return nil, types.NewAPIError(types.ERROR_EXTERNAL, "Could not verify payment with provider")
	}
	if intent.Status != "succeeded" {
		if err := d.Transaction(func(tx *gorm.DB) error {
			return tx.
				Model(&models.Booking{}).
				Where("id = ? AND payment_status <> ?", booking.ID, types.PAYMENT_PAID).
				Update("payment_status", types.PAYMENT_FAILED).
				Error
		}); err != nil {
			return nil, err
		}
		return nil, types.NewAPIError(types.ERROR_PAYMENT_FAILED, fmt.Sprintf("Payment has not completed (status: %s)", intent.Status))
	}

	updated, _, err := s.applyPaymentSuccess(booking.ID, intent.ID, intent.PaymentMethod)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// HandleWebhookEvent processes a signed provider notification. Unknown
// event types are acknowledged and dropped.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.VerifyWebhookSignature(payload, sigHeader)
	if err != nil {
		log.Printf("Error verifying webhook signature: %s\n", err.Error())
		return types.NewAPIError(types.ERROR_INVALID_INPUT, "Invalid webhook signature")
	}
	if lib.WebhookEventSeen(ctx, event.ID) {
		log.Printf("[StripeEvent] %s already processed, skipping\n", event.ID)
		return nil
	}
	log.Printf("[StripeEvent] %s\n", event.Type)

	switch event.Type {
	case "payment_intent.succeeded":
		pi, err := decodeIntentEvent(event.Data)
		if err != nil {
			log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
			return nil
		}
		bookingID, err := s.bookingForIntent(pi)
		if err != nil {
			log.Printf("No booking matches intent [%s]: %s\n", pi.ID, err.Error())
			return nil
		}
		if _, _, err := s.applyPaymentSuccess(bookingID, pi.ID, pi.PaymentMethod); err != nil {
			// Acknowledged but not marked processed, so a redelivery can
			// retry after a transient failure.
			log.Printf("Error applying payment success for booking [%d]: %s\n", bookingID, err.Error())
			return nil
		}
	case "payment_intent.payment_failed":
		pi, err := decodeIntentEvent(event.Data)
		if err != nil {
			log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
			return nil
		}
		bookingID, err := s.bookingForIntent(pi)
		if err != nil {
			log.Printf("No booking matches intent [%s]: %s\n", pi.ID, err.Error())
			return nil
		}
		d := db.GetDb()
		if err := d.Transaction(func(tx *gorm.DB) error {
			return tx.
				Model(&models.Booking{}).
				Where("id = ? AND payment_status <> ?", bookingID, types.PAYMENT_PAID).
				Update("payment_status", types.PAYMENT_FAILED).
				Error
		}); err != nil {
			log.Printf("Error marking booking [%d] payment failed: %s\n", bookingID, err.Error())
			return nil
		}
	case "charge.dispute.created":
		log.Printf("[Stripe] dispute opened, event [%s]\n", event.ID)
	}
	lib.MarkWebhookEventProcessed(ctx, event.ID)
	return nil
}

// intentEvent is the slice of the provider payload the webhook handler
// needs. payment_method arrives as a bare id on webhook deliveries.
type intentEvent struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	Metadata      map[string]string `json:"metadata"`
}

func decodeIntentEvent(raw json.RawMessage) (*intentEvent, error) {
	var pi intentEvent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, err
	}
	if pi.ID == "" {
		return nil, errors.New("event payload has no intent id")
	}
	return &pi, nil
}

// bookingForIntent resolves the booking an intent belongs to, by the
// stored intent id first and the intent metadata as fallback.
func (s *PaymentService) bookingForIntent(pi *intentEvent) (uint, error) {
	var booking models.Booking
	d := db.GetDb()
	err := d.
		Model(&models.Booking{}).
		Where("payment_intent_id = ?", pi.ID).
		Select("id").
		First(&booking).
		Error
	if err == nil {
		return booking.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if id, ok := pi.Metadata["booking_id"]; ok {
		var bookingID uint
		if _, err := fmt.Sscanf(id, "%d", &bookingID); err != nil {
			return 0, fmt.Errorf("invalid booking_id in metadata: %q", id)
		}
		if err := d.
			Model(&models.Booking{}).
			Where("id = ?", bookingID).
			Select("id").
			First(&booking).
			Error; err != nil {
			return 0, err
		}
		return booking.ID, nil
	}
	return 0, gorm.ErrRecordNotFound
}

// applyPaymentSuccess is the single success transition. The guarded
// UPDATE makes it idempotent: once a booking is paid, replays and the
// second delivery path change nothing.
func (s *PaymentService) applyPaymentSuccess(bookingID uint, intentID string, paymentMethod string) (*models.Booking, bool, error) {
	var applied bool
	var booking models.Booking
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"payment_status":    types.PAYMENT_PAID,
			"status":            types.BOOKING_CONFIRMED,
			"payment_intent_id": intentID,
		}
		if paymentMethod != "" {
			updates["payment_method"] = paymentMethod
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND payment_status <> ?", bookingID, types.PAYMENT_PAID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected > 0
		if err := tx.
			Where(&models.Booking{ID: bookingID}).
			Preload("Listing").
			Preload("Guest").
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if applied {
		go NotifyPaymentConfirmed(&booking)
	}
	return &booking, applied, nil
}

func (s *PaymentService) CreateRefund(ctx context.Context, userID uint, params *types.RefundRequestBody) (*lib.Refund, error) {
	var booking models.Booking
	d := db.GetDb()
	if err := d.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: params.BookingID}).
		Preload("Listing").
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewAPIError(types.ERROR_NOT_FOUND, "Booking not found")
		}
		return nil, err
	}
	if RoleOf(userID, &booking) != types.ROLE_HOST {
		return nil, types.NewAPIError(types.ERROR_FORBIDDEN, "Only the host can refund a booking")
	}
	if booking.PaymentStatus == types.PAYMENT_REFUNDED {
		return nil, types.NewAPIError(types.ERROR_INVALID_STATE, "Booking is already fully refunded")
	}
	if booking.PaymentStatus != types.PAYMENT_PAID {
		return nil, types.NewAPIError(types.ERROR_INVALID_STATE, "Only paid bookings can be refunded")
	}
	if booking.PaymentIntentID == nil {
		return nil, types.NewAPIError(types.ERROR_INVALID_STATE, "Booking has no payment to refund")
	}

	remaining := booking.TotalPrice - booking.RefundAmount
	amount := remaining
	if params.Amount != nil {
		amount = *params.Amount
	}
	if amount > remaining {
		return nil, types.NewAPIError(types.ERROR_INVALID_INPUT, fmt.Sprintf("Refund amount exceeds remaining balance of %.2f", remaining))
	}

	refund, err := s.provider.CreateRefund(ctx, *booking.PaymentIntentID, AmountInCents(amount), params.Reason)
	if err != nil {
		log.Printf("Error creating refund for booking [%d]: %s\n", booking.ID, err.Error())
		return nil, types.NewAPIError(types.ERROR_EXTERNAL, "Payment provider rejected the refund")
	}

	err = d.Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := lockForUpdate(tx).
			Where(&models.Booking{ID: booking.ID}).
			First(&b).
			Error; err != nil {
			return err
		}
		refunded := b.RefundAmount + amount
		updates := map[string]any{"refund_amount": refunded}
		if refunded >= b.TotalPrice {
			updates["payment_status"] = types.PAYMENT_REFUNDED
			updates["status"] = types.BOOKING_CANCELLED
		}
		return tx.
			Model(&models.Booking{}).
			Where("id = ?", b.ID).
			Updates(updates).
			Error
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// GetPaymentStatus returns the payment view of a booking for one of
// its participants.
func (s *PaymentService) GetPaymentStatus(userID uint, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	d := db.GetDb()
	if err := d.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: bookingID}).
		Preload("Listing").
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
