package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"partner-onboarding-api/config"
	"partner-onboarding-api/middleware"
	"partner-onboarding-api/models"
	"partner-onboarding-api/notify"
	"partner-onboarding-api/otp"
)

// OTPStore holds email-verification codes; wired in main, replaced in tests.
var OTPStore *otp.Store

type DriverRegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

type RestaurantRegisterRequest struct {
	BusinessName string `json:"businessName" binding:"required"`
	OwnerName    string `json:"ownerName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
}

type AdminRegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func hashPassword(c *gin.Context, password string) (string, bool) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to hash password")
		return "", false
	}
	return string(hash), true
}

func emailTaken(model interface{}, email string) bool {
	err := config.DB.Where("email = ?", email).First(model).Error
	return err == nil
}

// RegisterDriver creates a driver account. The row starts at stage 1 with an
// empty completed set; personal details are still submitted as stage 1.
func RegisterDriver(c *gin.Context) {
	var req DriverRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if emailTaken(&models.Driver{}, req.Email) {
		respondFail(c, http.StatusConflict, "Email already registered")
		return
	}
	hash, ok := hashPassword(c, req.Password)
	if !ok {
		return
	}

	driver := models.Driver{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Progression:  models.Progression{CurrentStage: 1, CompletedStages: models.StageSet{}},
	}
	if err := config.DB.Create(&driver).Error; err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := middleware.GenerateToken(driver.ID, middleware.SubjectDriver, "")
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respondOK(c, http.StatusCreated, "Account created", gin.H{"token": token, "driver": driver})
}

// RegisterRestaurant creates a restaurant-partner account.
func RegisterRestaurant(c *gin.Context) {
	var req RestaurantRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if emailTaken(&models.Restaurant{}, req.Email) {
		respondFail(c, http.StatusConflict, "Email already registered")
		return
	}
	hash, ok := hashPassword(c, req.Password)
	if !ok {
		return
	}

	restaurant := models.Restaurant{
		Email:        req.Email,
		PasswordHash: hash,
		BusinessName: req.BusinessName,
		OwnerName:    req.OwnerName,
		Progression:  models.Progression{CurrentStage: 1, CompletedStages: models.StageSet{}},
	}
	if err := config.DB.Create(&restaurant).Error; err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := middleware.GenerateToken(restaurant.ID, middleware.SubjectRestaurant, "")
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respondOK(c, http.StatusCreated, "Account created", gin.H{"token": token, "restaurant": restaurant})
}

// RegisterAdmin creates an admin account with the base role. Role elevation
// is a separate super_admin operation.
func RegisterAdmin(c *gin.Context) {
	var req AdminRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if emailTaken(&models.Admin{}, req.Email) {
		respondFail(c, http.StatusConflict, "Email already registered")
		return
	}
	hash, ok := hashPassword(c, req.Password)
	if !ok {
		return
	}

	admin := models.Admin{Email: req.Email, PasswordHash: hash, Name: req.Name, Role: models.RoleAdmin}
	if err := config.DB.Create(&admin).Error; err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to create account")
		return
	}
	token, err := middleware.GenerateToken(admin.ID, middleware.SubjectAdmin, admin.Role)
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respondOK(c, http.StatusCreated, "Account created", gin.H{"token": token, "admin": admin})
}

func loginEntity(c *gin.Context, subjectType string) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	var ent models.StagedEntity
	switch subjectType {
	case middleware.SubjectDriver:
		var driver models.Driver
		if err := config.DB.Where("email = ?", req.Email).First(&driver).Error; err != nil {
			respondFail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		ent = &driver
	case middleware.SubjectRestaurant:
		var restaurant models.Restaurant
		if err := config.DB.Where("email = ?", req.Email).First(&restaurant).Error; err != nil {
			respondFail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		ent = &restaurant
	}

	var hash string
	switch v := ent.(type) {
	case *models.Driver:
		hash = v.PasswordHash
	case *models.Restaurant:
		hash = v.PasswordHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		respondFail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := middleware.GenerateToken(ent.GetID(), subjectType, "")
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respondOK(c, http.StatusOK, "Login successful", gin.H{"token": token, subjectType: ent})
}

// LoginDriver authenticates a driver and returns a JWT
func LoginDriver(c *gin.Context) { loginEntity(c, middleware.SubjectDriver) }

// LoginRestaurant authenticates a restaurant partner and returns a JWT
func LoginRestaurant(c *gin.Context) { loginEntity(c, middleware.SubjectRestaurant) }

// LoginAdmin authenticates an admin, stamping LastLogin
func LoginAdmin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	var admin models.Admin
	if err := config.DB.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		respondFail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		respondFail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	now := time.Now().UTC()
	config.DB.Model(&admin).Update("last_login", &now)

	token, err := middleware.GenerateToken(admin.ID, middleware.SubjectAdmin, admin.Role)
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respondOK(c, http.StatusOK, "Login successful", gin.H{"token": token, "admin": admin})
}

// GetProfile returns the authenticated entity
func GetProfile(c *gin.Context) {
	respondOK(c, http.StatusOK, "Profile", middleware.GetEntity(c))
}

type OTPRequest struct {
	Code string `json:"code"`
}

// RequestEmailVerification issues a short-lived code and mails it.
func RequestEmailVerification(c *gin.Context) {
	ent := middleware.GetEntity(c)
	code, err := OTPStore.Issue(c.Request.Context(), string(ent.Type()), ent.GetEmail())
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to issue verification code")
		return
	}
	if err := notify.Send(ent.GetEmail(), "Verify your email", "Your verification code is "+code); err != nil {
		respondDegraded(c, http.StatusOK, "Verification code issued", "Verification email could not be sent", nil)
		return
	}
	respondOK(c, http.StatusOK, "Verification code sent", nil)
}

// VerifyEmail consumes a code and stamps EmailVerifiedAt.
func VerifyEmail(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		respondFail(c, http.StatusBadRequest, "Verification code is required")
		return
	}
	ent := middleware.GetEntity(c)
	ok, err := OTPStore.Verify(c.Request.Context(), string(ent.Type()), ent.GetEmail(), req.Code)
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Failed to verify code")
		return
	}
	if !ok {
		respondFail(c, http.StatusBadRequest, "Invalid or expired verification code")
		return
	}

	now := time.Now().UTC()
	var dberr error
	switch v := ent.(type) {
	case *models.Driver:
		dberr = config.DB.Model(v).Update("email_verified_at", &now).Error
	case *models.Restaurant:
		dberr = config.DB.Model(v).Update("email_verified_at", &now).Error
	default:
		dberr = gorm.ErrRecordNotFound
	}
	if dberr != nil {
		respondError(c, dberr)
		return
	}
	respondOK(c, http.StatusOK, "Email verified", nil)
}
