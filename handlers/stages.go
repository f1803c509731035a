package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"partner-onboarding-api/config"
	"partner-onboarding-api/middleware"
	"partner-onboarding-api/notify"
	"partner-onboarding-api/observability"
	"partner-onboarding-api/stages"
)

// These handlers are shared by the driver and restaurant route groups; the
// resolved entity in context selects the stage table.

func stageParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Stage number must be an integer")
		return 0, false
	}
	return n, true
}

// SubmitStage validates and applies one stage submission for the
// authenticated entity.
func SubmitStage(c *gin.Context) {
	ent := middleware.GetEntity(c)
	number, ok := stageParam(c)
	if !ok {
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondFail(c, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}

	engine := stages.NewEngine(config.DB)
	result, err := engine.SubmitStage(ent, number, payload)
	if err != nil {
		observability.StageSubmissionsTotal.WithLabelValues(string(ent.Type()), "rejected").Inc()
		respondError(c, err)
		return
	}
	observability.StageSubmissionsTotal.WithLabelValues(string(ent.Type()), "accepted").Inc()

	message := "Stage " + strconv.Itoa(number) + " completed"
	if result.Complete {
		message = "Registration complete"
	}

	// notification is best-effort: the stage transition is already committed
	if err := notify.Send(ent.GetEmail(), message, stageMailBody(result)); err != nil {
		respondDegraded(c, http.StatusOK, message, "Confirmation email could not be sent", result)
		return
	}
	respondOK(c, http.StatusOK, message, result)
}

func stageMailBody(result *stages.SubmitResult) string {
	if result.Complete {
		return "Your registration is complete. Our team will review your application shortly."
	}
	if result.NextStage != nil {
		return "Next up: " + result.NextStage.Title
	}
	return "Your submission was received."
}

// GetDashboard reports per-stage progress for the authenticated entity.
func GetDashboard(c *gin.Context) {
	ent := middleware.GetEntity(c)
	engine := stages.NewEngine(config.DB)
	respondOK(c, http.StatusOK, "Registration progress", engine.GetDashboard(ent))
}

// GetStageFields returns one stage's definition and the entity's current
// values for just that stage's fields.
func GetStageFields(c *gin.Context) {
	ent := middleware.GetEntity(c)
	number, ok := stageParam(c)
	if !ok {
		return
	}
	engine := stages.NewEngine(config.DB)
	info, fields, err := engine.GetStageFields(ent, number)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Stage fields", gin.H{"stage": info, "fields": fields})
}
