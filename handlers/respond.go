package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"partner-onboarding-api/payments"
	"partner-onboarding-api/review"
	"partner-onboarding-api/stages"
)

// All responses share one envelope: {success, message?, data?, errors?,
// warning?}. Component errors are typed values mapped to status codes here,
// once, so no handler writes its own taxonomy.

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondDegraded reports a committed state change whose follow-up
// notification failed. State correctness wins over delivery.
func respondDegraded(c *gin.Context, status int, message, warning string, data interface{}) {
	body := gin.H{"success": true, "message": message, "warning": warning}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func respondError(c *gin.Context, err error) {
	var (
		validation *stages.ValidationError
		invalid    *stages.InvalidFieldError
		malformed  *stages.MalformedFieldError
		outOfOrder *stages.OutOfOrderError
		unknown    *stages.UnknownStageError
		mismatch   *payments.MismatchError
		provider   *payments.ProviderError
		badStatus  *review.InvalidStatusError
		unknownIDs *review.UnknownIDsError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required fields",
			"errors":  validation.Missing,
		})
	case errors.As(err, &invalid), errors.As(err, &malformed),
		errors.As(err, &outOfOrder), errors.As(err, &unknown),
		errors.As(err, &mismatch), errors.As(err, &badStatus):
		respondFail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, stages.ErrPaymentRequired):
		respondFail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &unknownIDs):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Bulk update aborted: some ids do not exist",
			"errors":  unknownIDs.IDs,
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondFail(c, http.StatusNotFound, "Record not found")
	case errors.As(err, &provider):
		respondFail(c, http.StatusInternalServerError, "Payment provider is unavailable")
	default:
		respondFail(c, http.StatusInternalServerError, "Something went wrong")
	}
}
