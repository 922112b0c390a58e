package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"stayhub/src/common"
	"stayhub/src/config"
	"stayhub/src/db"
	"stayhub/src/lib"
	"stayhub/src/middlewares"
	"stayhub/src/models"
	"stayhub/src/utils"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB         *gorm.DB
	HostToken  string
	GuestToken string
	Host       models.User
	Guest      models.User
	Listing    models.Listing
	Provider   *testProvider
	Payments   *common.PaymentService
}

// testProvider stands in for the payment gateway.
type testProvider struct {
	intents map[string]*lib.PaymentIntent
	created int
}

func (f *testProvider) CreateIntent(ctx context.Context, params *lib.CreateIntentParams) (*lib.PaymentIntent, error) {
	f.created++
	id := fmt.Sprintf("pi_%d", f.created)
	pi := &lib.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       params.Amount,
		Currency:     params.Currency,
		Metadata:     params.Metadata,
	}
	f.intents[id] = pi
	return pi, nil
}

func (f *testProvider) RetrieveIntent(ctx context.Context, id string) (*lib.PaymentIntent, error) {
	pi, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent [%s]", id)
	}
	return pi, nil
}

func (f *testProvider) CreateRefund(ctx context.Context, intentID string, amount int64, reason string) (*lib.Refund, error) {
	return &lib.Refund{ID: "re_1", Status: "succeeded", Amount: amount}, nil
}

func (f *testProvider) VerifyWebhookSignature(payload []byte, sigHeader string) (*lib.WebhookEvent, error) {
	if sigHeader == "" {
		return nil, fmt.Errorf("missing signature")
	}
	var event lib.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *TestSuite) SetupSuite() {
	os.Setenv("JWT_SECRET", "testing-secret")
	registerValidators()

	d, err := gorm.Open(sqlite.Open("file:mainsuite?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database: %s", err.Error())
	}
	db.NewDB(d)
	s.DB = d

	if err := d.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Booking{},
		&models.Review{},
	); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.DefaultCost)
	s.Host = models.User{
		Email:          "host@example.com",
		HashedPassword: string(hashed),
		FullName:       "Harriet Host",
		IsHost:         true,
		IsActive:       true,
	}
	s.Guest = models.User{
		Email:          "guest@example.com",
		HashedPassword: string(hashed),
		FullName:       "Gary Guest",
		IsActive:       true,
	}
	if err := d.Create(&s.Host).Error; err != nil {
		log.Fatalf("could not create host: %s", err.Error())
	}
	if err := d.Create(&s.Guest).Error; err != nil {
		log.Fatalf("could not create guest: %s", err.Error())
	}

	s.Listing = models.Listing{
		HostID:        s.Host.ID,
		Title:         "Hilltop Cabin",
		PropertyType:  "cabin",
		Location:      "Asheville",
		PricePerNight: 150,
		MaxGuests:     4,
		IsActive:      true,
	}
	if err := d.Create(&s.Listing).Error; err != nil {
		log.Fatalf("could not create listing: %s", err.Error())
	}

	hostToken, err := utils.GenerateJWT(s.Host.Email, s.Host.ID, true)
	if err != nil {
		log.Fatalf("error generating JWT token: %s", err.Error())
	}
	guestToken, err := utils.GenerateJWT(s.Guest.Email, s.Guest.ID, false)
	if err != nil {
		log.Fatalf("error generating JWT token: %s", err.Error())
	}
	s.HostToken = hostToken
	s.GuestToken = guestToken

	s.Provider = &testProvider{intents: map[string]*lib.PaymentIntent{}}
	s.Payments = common.NewPaymentService(&config.Config{Currency: "usd"}, s.Provider)
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) buildRouter() http.Handler {
	router := setupRouter()
	guestAuthRoutes(router)
	publicListingRoutes(router)
	publicReviewRoutes(router)
	paymentWebhookRoute(router, s.Payments)
	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	userRoutes(authorized)
	listingHandlers(authorized)
	bookingHandlers(authorized)
	paymentHandlers(authorized, s.Payments)
	reviewHandlers(authorized)
	return router
}

func (s *TestSuite) do(method string, target string, body any, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	w := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(w, req)
	return w
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func (s *TestSuite) TestPingRoute() {
	w := s.do("GET", "/", nil, "")
	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Setenv("MAINTENANCE_MODE", "false")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestAuthFlow() {
	s.Run("register a new account", func() {
		w := s.do("POST", "/api/v1/auth/register", map[string]any{
			"email":     "newcomer@example.com",
			"password":  "longenoughpw",
			"full_name": "New Comer",
		}, "")
		assert.Equal(s.T(), 200, w.Code)
		assert.True(s.T(), gjson.Get(w.Body.String(), "id").Exists())
	})

	s.Run("duplicate email is rejected", func() {
		w := s.do("POST", "/api/v1/auth/register", map[string]any{
			"email":     "newcomer@example.com",
			"password":  "longenoughpw",
			"full_name": "New Comer",
		}, "")
		assert.Equal(s.T(), 409, w.Code)
	})

	s.Run("login returns a token", func() {
		w := s.do("POST", "/api/v1/auth/login", map[string]any{
			"email":    "newcomer@example.com",
			"password": "longenoughpw",
		}, "")
		assert.Equal(s.T(), 200, w.Code)
		assert.NotEmpty(s.T(), gjson.Get(w.Body.String(), "token").String())
	})

	s.Run("wrong password is unauthorized", func() {
		w := s.do("POST", "/api/v1/auth/login", map[string]any{
			"email":    "newcomer@example.com",
			"password": "not-the-password",
		}, "")
		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("profile requires a token", func() {
		w := s.do("GET", "/api/v1/users/me", nil, "")
		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("profile with token", func() {
		w := s.do("GET", "/api/v1/users/me", nil, s.GuestToken)
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), s.Guest.Email, gjson.Get(w.Body.String(), "data.email").String())
	})
}

func (s *TestSuite) TestListingRoutes() {
	s.Run("guest cannot create listings", func() {
		w := s.do("POST", "/api/v1/listings", map[string]any{
			"title":           "Not Allowed",
			"property_type":   "apartment",
			"location":        "Nowhere",
			"price_per_night": 10,
			"max_guests":      1,
		}, s.GuestToken)
		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("host creates a listing", func() {
		w := s.do("POST", "/api/v1/listings", map[string]any{
			"title":           "Downtown Studio",
			"property_type":   "studio",
			"location":        "Denver",
			"price_per_night": 95,
			"max_guests":      2,
			"amenities":       []string{"wifi"},
		}, s.HostToken)
		assert.Equal(s.T(), 201, w.Code)
		assert.Equal(s.T(), "Downtown Studio", gjson.Get(w.Body.String(), "data.title").String())
	})

	s.Run("search is public", func() {
		w := s.do("GET", "/api/v1/listings?location=Denver", nil, "")
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), int64(1), gjson.Get(w.Body.String(), "count").Int())
	})

	s.Run("listing detail is public", func() {
		w := s.do("GET", fmt.Sprintf("/api/v1/listings/%d", s.Listing.ID), nil, "")
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "Hilltop Cabin", gjson.Get(w.Body.String(), "data.title").String())
	})

	s.Run("invalid listing body is a 400", func() {
		w := s.do("POST", "/api/v1/listings", map[string]any{
			"title": "missing everything",
		}, s.HostToken)
		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestBookingFlow() {
	var bookingID int64

	s.Run("guest books the cabin", func() {
		w := s.do("POST", "/api/v1/bookings", map[string]any{
			"listing_id": s.Listing.ID,
			"check_in":   futureDate(30),
			"check_out":  futureDate(33),
			"guests":     2,
		}, s.GuestToken)
		assert.Equal(s.T(), 201, w.Code)
		body := w.Body.String()
		bookingID = gjson.Get(body, "data.id").Int()
		assert.Equal(s.T(), "pending", gjson.Get(body, "data.status").String())
		assert.Equal(s.T(), 450.0, gjson.Get(body, "data.total_price").Float())
	})

	s.Run("overlapping dates conflict", func() {
		w := s.do("POST", "/api/v1/bookings", map[string]any{
			"listing_id": s.Listing.ID,
			"check_in":   futureDate(31),
			"check_out":  futureDate(35),
			"guests":     1,
		}, s.GuestToken)
		assert.Equal(s.T(), 409, w.Code)
	})

	s.Run("past dates fail validation", func() {
		w := s.do("POST", "/api/v1/bookings", map[string]any{
			"listing_id": s.Listing.ID,
			"check_in":   "2020-01-01",
			"check_out":  "2020-01-05",
			"guests":     1,
		}, s.GuestToken)
		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("host sees the incoming booking", func() {
		w := s.do("GET", "/api/v1/bookings/host/incoming", nil, s.HostToken)
		assert.Equal(s.T(), 200, w.Code)
		assert.GreaterOrEqual(s.T(), gjson.Get(w.Body.String(), "count").Int(), int64(1))
	})

	s.Run("host confirms", func() {
		w := s.do("PUT", fmt.Sprintf("/api/v1/bookings/%d/status", bookingID), map[string]any{
			"status": "confirmed",
		}, s.HostToken)
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "confirmed", gjson.Get(w.Body.String(), "data.status").String())
	})

	s.Run("guest cannot complete", func() {
		w := s.do("PUT", fmt.Sprintf("/api/v1/bookings/%d/status", bookingID), map[string]any{
			"status": "completed",
		}, s.GuestToken)
		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("guest cancels", func() {
		w := s.do("DELETE", fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, s.GuestToken)
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "cancelled", gjson.Get(w.Body.String(), "data.status").String())
	})
}

func (s *TestSuite) TestPaymentFlow() {
	w := s.do("POST", "/api/v1/bookings", map[string]any{
		"listing_id": s.Listing.ID,
		"check_in":   futureDate(60),
		"check_out":  futureDate(62),
		"guests":     2,
	}, s.GuestToken)
	assert.Equal(s.T(), 201, w.Code)
	bookingID := gjson.Get(w.Body.String(), "data.id").Int()

	var intentID string
	s.Run("create payment intent", func() {
		w := s.do("POST", "/api/v1/payments/create-payment-intent", map[string]any{
			"booking_id": bookingID,
		}, s.GuestToken)
		assert.Equal(s.T(), 200, w.Code)
		body := w.Body.String()
		intentID = gjson.Get(body, "payment_intent_id").String()
		assert.NotEmpty(s.T(), intentID)
		assert.Equal(s.T(), int64(30000), gjson.Get(body, "amount").Int())
	})

	s.Run("confirm before payment completes fails", func() {
		w := s.do("POST", "/api/v1/payments/confirm-payment", map[string]any{
			"booking_id":        bookingID,
			"payment_intent_id": intentID,
		}, s.GuestToken)
		assert.Equal(s.T(), 402, w.Code)
	})

	s.Run("confirm succeeded payment", func() {
		s.Provider.intents[intentID].Status = "succeeded"
		w := s.do("POST", "/api/v1/payments/confirm-payment", map[string]any{
			"booking_id":        bookingID,
			"payment_intent_id": intentID,
		}, s.GuestToken)
		assert.Equal(s.T(), 200, w.Code)
		body := w.Body.String()
		assert.Equal(s.T(), "paid", gjson.Get(body, "data.payment_status").String())
		assert.Equal(s.T(), "confirmed", gjson.Get(body, "data.status").String())
	})

	s.Run("webhook replay is acknowledged without changes", func() {
		payload, _ := json.Marshal(map[string]any{
			"id":   "evt_replay",
			"type": "payment_intent.succeeded",
			"data": map[string]any{
				"id":       intentID,
				"status":   "succeeded",
				"metadata": map[string]string{"booking_id": fmt.Sprint(bookingID)},
			},
		})
		req, _ := http.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader(string(payload)))
		req.Header.Set("Stripe-Signature", "sig")
		w := httptest.NewRecorder()
		s.buildRouter().ServeHTTP(w, req)
		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("webhook without signature is rejected", func() {
		req, _ := http.NewRequest("POST", "/api/v1/payments/webhook", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		s.buildRouter().ServeHTTP(w, req)
		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("payment status view", func() {
		w := s.do("GET", fmt.Sprintf("/api/v1/payments/booking/%d/payment-status", bookingID), nil, s.HostToken)
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "paid", gjson.Get(w.Body.String(), "payment_status").String())
	})

	s.Run("host refunds in full", func() {
		w := s.do("POST", "/api/v1/payments/refund", map[string]any{
			"booking_id": bookingID,
			"reason":     "requested_by_customer",
		}, s.HostToken)
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), int64(30000), gjson.Get(w.Body.String(), "data.amount").Int())
	})
}

func (s *TestSuite) TestReviewFlow() {
	w := s.do("POST", "/api/v1/bookings", map[string]any{
		"listing_id": s.Listing.ID,
		"check_in":   futureDate(90),
		"check_out":  futureDate(92),
		"guests":     2,
	}, s.GuestToken)
	assert.Equal(s.T(), 201, w.Code)
	bookingID := gjson.Get(w.Body.String(), "data.id").Int()

	s.Run("pending stay cannot be reviewed", func() {
		w := s.do("POST", "/api/v1/reviews", map[string]any{
			"booking_id": bookingID,
			"rating":     5,
		}, s.GuestToken)
		assert.Equal(s.T(), 400, w.Code)
	})

	w = s.do("PUT", fmt.Sprintf("/api/v1/bookings/%d/status", bookingID), map[string]any{
		"status": "completed",
	}, s.HostToken)
	assert.Equal(s.T(), 200, w.Code)

	s.Run("guest reviews the completed stay", func() {
		w := s.do("POST", "/api/v1/reviews", map[string]any{
			"booking_id": bookingID,
			"rating":     5,
			"comment":    "Wonderful stay",
		}, s.GuestToken)
		assert.Equal(s.T(), 201, w.Code)
	})

	s.Run("second review conflicts", func() {
		w := s.do("POST", "/api/v1/reviews", map[string]any{
			"booking_id": bookingID,
			"rating":     1,
		}, s.GuestToken)
		assert.Equal(s.T(), 409, w.Code)
	})

	s.Run("listing reviews are public", func() {
		w := s.do("GET", fmt.Sprintf("/api/v1/reviews/listing/%d", s.Listing.ID), nil, "")
		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), 5.0, gjson.Get(w.Body.String(), "average_rating").Float())
	})

	s.Run("guest sees own reviews", func() {
		w := s.do("GET", "/api/v1/reviews/my-reviews", nil, s.GuestToken)
		assert.Equal(s.T(), 200, w.Code)
		assert.GreaterOrEqual(s.T(), gjson.Get(w.Body.String(), "count").Int(), int64(1))
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
