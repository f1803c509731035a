package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"partner-onboarding-api/config"
	"partner-onboarding-api/middleware"
	"partner-onboarding-api/models"
	"partner-onboarding-api/notify"
	"partner-onboarding-api/observability"
	"partner-onboarding-api/payments"
)

// PaymentClient is the provider client; wired to stripe in main and to a
// fake in tests.
var PaymentClient payments.Client

func onboardingFee(t models.EntityType) int64 {
	if t == models.EntityRestaurant {
		return config.RestaurantOnboardingFee
	}
	return config.DriverOnboardingFee
}

// CreatePaymentIntent starts the onboarding-fee payment and records the
// intent id against the entity. The provider call happens outside the local
// transaction; only the id write is transactional.
func CreatePaymentIntent(c *gin.Context) {
	ent := middleware.GetEntity(c)
	if ent.Payment().PaymentStatus == models.PaymentCompleted {
		respondOK(c, http.StatusOK, "Payment already completed", gin.H{"payment_status": models.PaymentCompleted})
		return
	}

	adapter := payments.NewAdapter(PaymentClient)
	intent, err := adapter.Start(c.Request.Context(), ent, onboardingFee(ent.Type()), config.FeeCurrency)
	if err != nil {
		respondError(c, err)
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(ent, "id = ?", ent.GetID()).Error; err != nil {
			return err
		}
		pay := ent.Payment()
		pay.PaymentIntentID = intent.ID
		if pay.PaymentStatus == models.PaymentFailed {
			pay.PaymentStatus = models.PaymentPending
		}
		return tx.Save(ent).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Payment intent created", gin.H{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
	})
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

// ConfirmPayment verifies the intent with the provider and persists the
// mapped status. Confirming an already-completed payment succeeds without
// side effects.
func ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	ent := middleware.GetEntity(c)

	adapter := payments.NewAdapter(PaymentClient)
	status, err := adapter.Confirm(c.Request.Context(), ent, req.PaymentIntentID)
	if err != nil {
		respondError(c, err)
		return
	}
	observability.PaymentConfirmationsTotal.WithLabelValues(string(status)).Inc()

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(ent, "id = ?", ent.GetID()).Error; err != nil {
			return err
		}
		pay := ent.Payment()
		if pay.PaymentStatus == models.PaymentCompleted {
			return nil
		}
		pay.PaymentStatus = status
		if status == models.PaymentCompleted && pay.PaymentCompletedAt == nil {
			now := time.Now().UTC()
			pay.PaymentCompletedAt = &now
		}
		return tx.Save(ent).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if status != models.PaymentCompleted {
		respondOK(c, http.StatusOK, "Payment not completed", gin.H{"payment_status": status})
		return
	}
	if err := notify.Send(ent.GetEmail(), "Payment received", "Your onboarding fee payment was received."); err != nil {
		respondDegraded(c, http.StatusOK, "Payment completed", "Receipt email could not be sent", gin.H{"payment_status": status})
		return
	}
	respondOK(c, http.StatusOK, "Payment completed", gin.H{"payment_status": status})
}
