package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Restaurant is a restaurant-partner registrant progressing through four
// stages: business details, documents, banking, and review/consent.
// Removal is a soft delete so order history keeps a valid reference.
type Restaurant struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash    string     `json:"-" gorm:"not null"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	// Stage 1: business details
	BusinessName   string `json:"business_name"`
	BusinessNumber string `json:"business_number"`
	OwnerName      string `json:"owner_name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	Province       string `json:"province"`
	PostalCode     string `json:"postal_code"`
	Cuisine        string `json:"cuisine"`

	// Stage 2: documents (already-uploaded file URLs)
	BusinessLicenseURL string `json:"business_license_url"`
	FoodHandlerCertURL string `json:"food_handler_cert_url"`
	InsuranceURL       string `json:"insurance_url"`
	MenuURL            string `json:"menu_url"`
	StorefrontPhotoURL string `json:"storefront_photo_url"`

	// Stage 3: banking
	BankingInfo JSONMap `json:"banking_info" gorm:"type:text"`

	// Stage 4: review and consent
	Consents      JSONMap `json:"consents" gorm:"type:text"`
	SignatureName string  `json:"signature_name"`

	Progression  `gorm:"embedded"`
	PaymentState `gorm:"embedded"`
	ReviewState  `gorm:"embedded"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Restaurant) GetID() string          { return r.ID }
func (r *Restaurant) GetEmail() string       { return r.Email }
func (r *Restaurant) Type() EntityType       { return EntityRestaurant }
func (r *Restaurant) Progress() *Progression { return &r.Progression }
func (r *Restaurant) Payment() *PaymentState { return &r.PaymentState }
func (r *Restaurant) Review() *ReviewState   { return &r.ReviewState }

func (r *Restaurant) StageFieldValue(name string) (interface{}, bool) {
	switch name {
	case "businessName":
		return r.BusinessName, r.BusinessName != ""
	case "businessNumber":
		return r.BusinessNumber, r.BusinessNumber != ""
	case "ownerName":
		return r.OwnerName, r.OwnerName != ""
	case "phone":
		return r.Phone, r.Phone != ""
	case "address":
		return r.Address, r.Address != ""
	case "city":
		return r.City, r.City != ""
	case "province":
		return r.Province, r.Province != ""
	case "postalCode":
		return r.PostalCode, r.PostalCode != ""
	case "cuisine":
		return r.Cuisine, r.Cuisine != ""
	case "businessLicenseUrl":
		return r.BusinessLicenseURL, r.BusinessLicenseURL != ""
	case "foodHandlerCertUrl":
		return r.FoodHandlerCertURL, r.FoodHandlerCertURL != ""
	case "insuranceUrl":
		return r.InsuranceURL, r.InsuranceURL != ""
	case "menuUrl":
		return r.MenuURL, r.MenuURL != ""
	case "storefrontPhotoUrl":
		return r.StorefrontPhotoURL, r.StorefrontPhotoURL != ""
	case "bankingInfo":
		return r.BankingInfo, len(r.BankingInfo) > 0
	case "consents":
		return r.Consents, len(r.Consents) > 0
	case "signatureName":
		return r.SignatureName, r.SignatureName != ""
	}
	return nil, false
}

func (r *Restaurant) SetStageField(name string, value interface{}) error {
	switch name {
	case "businessName":
		return setString(&r.BusinessName, name, value)
	case "businessNumber":
		return setString(&r.BusinessNumber, name, value)
	case "ownerName":
		return setString(&r.OwnerName, name, value)
	case "phone":
		return setString(&r.Phone, name, value)
	case "address":
		return setString(&r.Address, name, value)
	case "city":
		return setString(&r.City, name, value)
	case "province":
		return setString(&r.Province, name, value)
	case "postalCode":
		return setString(&r.PostalCode, name, value)
	case "cuisine":
		return setString(&r.Cuisine, name, value)
	case "businessLicenseUrl":
		return setString(&r.BusinessLicenseURL, name, value)
	case "foodHandlerCertUrl":
		return setString(&r.FoodHandlerCertURL, name, value)
	case "insuranceUrl":
		return setString(&r.InsuranceURL, name, value)
	case "menuUrl":
		return setString(&r.MenuURL, name, value)
	case "storefrontPhotoUrl":
		return setString(&r.StorefrontPhotoURL, name, value)
	case "bankingInfo":
		return setMap(&r.BankingInfo, name, value)
	case "consents":
		return setMap(&r.Consents, name, value)
	case "signatureName":
		return setString(&r.SignatureName, name, value)
	}
	return errors.New("unknown stage field: " + name)
}
