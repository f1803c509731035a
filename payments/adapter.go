package payments

import (
	"context"
	"fmt"

	"partner-onboarding-api/models"
)

// ProviderError wraps a payment-provider failure.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return "payment provider: " + e.Op + ": " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// MismatchError rejects a confirmation whose intent id does not match the one
// recorded against the entity. Kept distinct from generic failures to prevent
// cross-entity payment confusion.
type MismatchError struct {
	Recorded string
	Got      string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("payment intent %s does not belong to this registration", e.Got)
}

// MapStatus maps a provider intent status to the internal payment status.
// A completed payment never regresses, regardless of what the provider
// reports afterwards.
func MapStatus(providerStatus string, current models.PaymentStatus) models.PaymentStatus {
	if current == models.PaymentCompleted {
		return models.PaymentCompleted
	}
	switch providerStatus {
	case "succeeded":
		return models.PaymentCompleted
	case "processing":
		return models.PaymentProcessing
	default:
		// requires_payment_method, requires_action, canceled, ...
		return models.PaymentFailed
	}
}

// Adapter wraps the provider intent lifecycle for onboarding-fee payments.
type Adapter struct {
	client Client
}

func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

// Start creates a provider intent for the entity's onboarding fee. The caller
// persists the returned intent id before handing the client secret to the
// frontend.
func (a *Adapter) Start(ctx context.Context, ent models.StagedEntity, amount int64, currency string) (*Intent, error) {
	return a.client.CreateIntent(ctx, amount, currency, map[string]string{
		"entity_id":   ent.GetID(),
		"entity_type": string(ent.Type()),
	})
}

// Confirm verifies the intent against the provider and returns the resulting
// internal status. Confirming an already-completed payment is a no-op success
// that does not call the provider.
func (a *Adapter) Confirm(ctx context.Context, ent models.StagedEntity, intentID string) (models.PaymentStatus, error) {
	pay := ent.Payment()
	if pay.PaymentIntentID == "" || pay.PaymentIntentID != intentID {
		return "", &MismatchError{Recorded: pay.PaymentIntentID, Got: intentID}
	}
	if pay.PaymentStatus == models.PaymentCompleted {
		return models.PaymentCompleted, nil
	}
	intent, err := a.client.RetrieveIntent(ctx, intentID)
	if err != nil {
		return "", err
	}
	return MapStatus(intent.Status, pay.PaymentStatus), nil
}
