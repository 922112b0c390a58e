package main

import (
	"io"
	"log"
	"net/http"
	"stayhub/src/common"
	"stayhub/src/types"

	"github.com/gin-gonic/gin"
)

func paymentWebhookRoute(g *gin.Engine, svc *common.PaymentService) *gin.Engine {
	g.POST(apiPrefix+"/payments/webhook", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading webhook payload: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		sigHeader := ctx.GetHeader("Stripe-Signature")
		if err := svc.HandleWebhookEvent(ctx.Request.Context(), payload, sigHeader); err != nil {
			log.Printf("[HandleWebhookEvent] error: %s\n", err.Error())
			abortWithError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"received": true})
	})
	return g
}

func paymentHandlers(g *gin.RouterGroup, svc *common.PaymentService) *gin.RouterGroup {
	g.
		POST("/payments/create-payment-intent", func(ctx *gin.Context) {
			var body types.CreatePaymentIntentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			intent, err := svc.CreatePaymentIntent(ctx.Request.Context(), userId, body.BookingID)
			if err != nil {
				log.Printf("[CreatePaymentIntent] error: %s\n", err.Error())
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"client_secret":     intent.ClientSecret,
				"payment_intent_id": intent.ID,
				"amount":            intent.Amount,
				"currency":          intent.Currency,
			})
		}).
		POST("/payments/confirm-payment", func(ctx *gin.Context) {
			var body types.ConfirmPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			booking, err := svc.ConfirmPayment(ctx.Request.Context(), userId, body.BookingID, body.PaymentIntentID)
			if err != nil {
				log.Printf("[ConfirmPayment] error: %s\n", err.Error())
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		POST("/payments/refund", func(ctx *gin.Context) {
			var body types.RefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			refund, err := svc.CreateRefund(ctx.Request.Context(), userId, &body)
			if err != nil {
				log.Printf("[CreateRefund] error: %s\n", err.Error())
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": refund})
		}).
		GET("/payments/booking/:id/payment-status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			booking, err := svc.GetPaymentStatus(userId, params.ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"booking_id":        booking.ID,
				"status":            booking.Status,
				"payment_status":    booking.PaymentStatus,
				"payment_intent_id": booking.PaymentIntentID,
				"refund_amount":     booking.RefundAmount,
			})
		})
	return g
}
