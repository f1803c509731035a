package handlers

import (
	"encoding/csv"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"partner-onboarding-api/config"
	"partner-onboarding-api/middleware"
	"partner-onboarding-api/models"
	"partner-onboarding-api/notify"
	"partner-onboarding-api/review"
)

// AdminListDrivers returns all drivers, optionally filtered by review status
func AdminListDrivers(c *gin.Context) {
	var drivers []models.Driver
	query := config.DB
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if complete := c.Query("complete"); complete != "" {
		query = query.Where("registration_complete = ?", complete == "true")
	}
	query.Order("created_at desc").Find(&drivers)
	respondOK(c, http.StatusOK, "Drivers", gin.H{"count": len(drivers), "drivers": drivers})
}

// AdminListRestaurants returns all restaurants, optionally filtered by status
func AdminListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	query := config.DB
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if complete := c.Query("complete"); complete != "" {
		query = query.Where("registration_complete = ?", complete == "true")
	}
	query.Order("created_at desc").Find(&restaurants)
	respondOK(c, http.StatusOK, "Restaurants", gin.H{"count": len(restaurants), "restaurants": restaurants})
}

func entityTypeParam(c *gin.Context) (models.EntityType, bool) {
	t := models.EntityType(c.Param("type"))
	if t != models.EntityDriver && t != models.EntityRestaurant {
		respondFail(c, http.StatusBadRequest, "Type must be driver or restaurant")
		return "", false
	}
	return t, true
}

type SetStatusRequest struct {
	Status  models.ReviewStatus `json:"status" binding:"required"`
	Remarks string              `json:"remarks"`
}

// AdminSetStatus transitions one entity's review status
func AdminSetStatus(c *gin.Context) {
	t, ok := entityTypeParam(c)
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	ent, err := models.NewByType(t)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := config.DB.First(ent, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, err)
		return
	}

	admin := middleware.GetAdmin(c)
	workflow := review.NewWorkflow(config.DB)
	if err := workflow.SetStatus(ent, req.Status, admin.ID, req.Remarks); err != nil {
		respondError(c, err)
		return
	}

	if err := notify.Send(ent.GetEmail(), "Application update", statusMailBody(req.Status, req.Remarks)); err != nil {
		respondDegraded(c, http.StatusOK, "Status updated", "Notification email could not be sent", ent)
		return
	}
	respondOK(c, http.StatusOK, "Status updated", ent)
}

func statusMailBody(status models.ReviewStatus, remarks string) string {
	switch status {
	case models.StatusApproved:
		return "Your application has been approved. Welcome aboard!"
	case models.StatusRejected:
		return "Your application was rejected. Reason: " + remarks
	case models.StatusSuspended:
		return "Your account has been suspended. Reason: " + remarks
	default:
		return "Your application status is now " + string(status) + "."
	}
}

type BulkStatusRequest struct {
	IDs     []string            `json:"ids" binding:"required,min=1"`
	Status  models.ReviewStatus `json:"status" binding:"required"`
	Remarks string              `json:"remarks"`
}

// AdminBulkSetStatus applies one status across many ids as a single batch.
// Any unknown id aborts the whole batch with the full offending list.
func AdminBulkSetStatus(c *gin.Context) {
	t, ok := entityTypeParam(c)
	if !ok {
		return
	}
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	admin := middleware.GetAdmin(c)
	workflow := review.NewWorkflow(config.DB)
	updated, err := workflow.BulkSetStatus(t, req.IDs, req.Status, admin.ID, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Statuses updated", gin.H{"updated": updated})
}

// AdminDeleteRestaurant soft-deletes a restaurant account
func AdminDeleteRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Delete(&restaurant).Error; err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Restaurant removed", nil)
}

type SetRoleRequest struct {
	Role models.AdminRole `json:"role" binding:"required,oneof=admin super_admin"`
}

// AdminSetRole changes another admin's role — super_admin only
func AdminSetRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	var admin models.Admin
	if err := config.DB.First(&admin, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Model(&admin).Update("role", req.Role).Error; err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Role updated", admin)
}

// AdminExportCSV streams a partner roster as CSV
func AdminExportCSV(c *gin.Context) {
	t, ok := entityTypeParam(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+string(t)+"s.csv")
	w := csv.NewWriter(c.Writer)

	switch t {
	case models.EntityDriver:
		w.Write([]string{"id", "email", "first_name", "last_name", "city", "province", "current_stage", "registration_complete", "payment_status", "status"})
		var drivers []models.Driver
		config.DB.Order("created_at asc").Find(&drivers)
		for _, d := range drivers {
			w.Write([]string{
				d.ID, d.Email, d.FirstName, d.LastName, d.City, d.Province,
				strconv.Itoa(d.CurrentStage), strconv.FormatBool(d.RegistrationComplete),
				string(d.PaymentStatus), string(d.Status),
			})
		}
	case models.EntityRestaurant:
		w.Write([]string{"id", "email", "business_name", "owner_name", "city", "province", "current_stage", "registration_complete", "payment_status", "status"})
		var restaurants []models.Restaurant
		config.DB.Order("created_at asc").Find(&restaurants)
		for _, r := range restaurants {
			w.Write([]string{
				r.ID, r.Email, r.BusinessName, r.OwnerName, r.City, r.Province,
				strconv.Itoa(r.CurrentStage), strconv.FormatBool(r.RegistrationComplete),
				string(r.PaymentStatus), string(r.Status),
			})
		}
	}

	// headers are already sent, so a write failure can only be logged
	w.Flush()
	if err := w.Error(); err != nil {
		log.Println("CSV export write failed:", err)
	}
}
