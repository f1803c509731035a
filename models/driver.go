package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Driver is a delivery-driver registrant progressing through five stages:
// personal details, vehicle details, documents, banking, and consent.
type Driver struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash    string     `json:"-" gorm:"not null"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	// Stage 1: personal details
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`

	// Stage 2: vehicle details
	VehicleType   string `json:"vehicle_type"`
	VehicleMake   string `json:"vehicle_make"`
	VehicleModel  string `json:"vehicle_model"`
	VehicleYear   int    `json:"vehicle_year"`
	VehicleColor  string `json:"vehicle_color"`
	LicensePlate  string `json:"license_plate"`
	LicenseNumber string `json:"license_number"`
	LicenseClass  string `json:"license_class"`

	// Stage 3: documents (already-uploaded file URLs)
	DriversLicenseURL      string `json:"drivers_license_url"`
	VehicleRegistrationURL string `json:"vehicle_registration_url"`
	InsuranceURL           string `json:"insurance_url"`
	DrivingAbstractURL     string `json:"driving_abstract_url"`
	ProfilePhotoURL        string `json:"profile_photo_url"`

	// Stage 4: banking
	BankingInfo JSONMap `json:"banking_info" gorm:"type:text"`

	// Stage 5: consent
	Consents      JSONMap `json:"consents" gorm:"type:text"`
	SignatureName string  `json:"signature_name"`

	Progression  `gorm:"embedded"`
	PaymentState `gorm:"embedded"`
	ReviewState  `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (d *Driver) GetID() string          { return d.ID }
func (d *Driver) GetEmail() string       { return d.Email }
func (d *Driver) Type() EntityType       { return EntityDriver }
func (d *Driver) Progress() *Progression { return &d.Progression }
func (d *Driver) Payment() *PaymentState { return &d.PaymentState }
func (d *Driver) Review() *ReviewState   { return &d.ReviewState }

func (d *Driver) StageFieldValue(name string) (interface{}, bool) {
	switch name {
	case "firstName":
		return d.FirstName, d.FirstName != ""
	case "lastName":
		return d.LastName, d.LastName != ""
	case "phone":
		return d.Phone, d.Phone != ""
	case "dateOfBirth":
		return d.DateOfBirth, d.DateOfBirth != ""
	case "address":
		return d.Address, d.Address != ""
	case "city":
		return d.City, d.City != ""
	case "province":
		return d.Province, d.Province != ""
	case "postalCode":
		return d.PostalCode, d.PostalCode != ""
	case "vehicleType":
		return d.VehicleType, d.VehicleType != ""
	case "vehicleMake":
		return d.VehicleMake, d.VehicleMake != ""
	case "vehicleModel":
		return d.VehicleModel, d.VehicleModel != ""
	case "vehicleYear":
		return d.VehicleYear, d.VehicleYear != 0
	case "vehicleColor":
		return d.VehicleColor, d.VehicleColor != ""
	case "licensePlate":
		return d.LicensePlate, d.LicensePlate != ""
	case "licenseNumber":
		return d.LicenseNumber, d.LicenseNumber != ""
	case "licenseClass":
		return d.LicenseClass, d.LicenseClass != ""
	case "driversLicenseUrl":
		return d.DriversLicenseURL, d.DriversLicenseURL != ""
	case "vehicleRegistrationUrl":
		return d.VehicleRegistrationURL, d.VehicleRegistrationURL != ""
	case "insuranceUrl":
		return d.InsuranceURL, d.InsuranceURL != ""
	case "drivingAbstractUrl":
		return d.DrivingAbstractURL, d.DrivingAbstractURL != ""
	case "profilePhotoUrl":
		return d.ProfilePhotoURL, d.ProfilePhotoURL != ""
	case "bankingInfo":
		return d.BankingInfo, len(d.BankingInfo) > 0
	case "consents":
		return d.Consents, len(d.Consents) > 0
	case "signatureName":
		return d.SignatureName, d.SignatureName != ""
	}
	return nil, false
}

func (d *Driver) SetStageField(name string, value interface{}) error {
	switch name {
	case "firstName":
		return setString(&d.FirstName, name, value)
	case "lastName":
		return setString(&d.LastName, name, value)
	case "phone":
		return setString(&d.Phone, name, value)
	case "dateOfBirth":
		return setString(&d.DateOfBirth, name, value)
	case "address":
		return setString(&d.Address, name, value)
	case "city":
		return setString(&d.City, name, value)
	case "province":
		return setString(&d.Province, name, value)
	case "postalCode":
		return setString(&d.PostalCode, name, value)
	case "vehicleType":
		return setString(&d.VehicleType, name, value)
	case "vehicleMake":
		return setString(&d.VehicleMake, name, value)
	case "vehicleModel":
		return setString(&d.VehicleModel, name, value)
	case "vehicleYear":
		return setInt(&d.VehicleYear, name, value)
	case "vehicleColor":
		return setString(&d.VehicleColor, name, value)
	case "licensePlate":
		return setString(&d.LicensePlate, name, value)
	case "licenseNumber":
		return setString(&d.LicenseNumber, name, value)
	case "licenseClass":
		return setString(&d.LicenseClass, name, value)
	case "driversLicenseUrl":
		return setString(&d.DriversLicenseURL, name, value)
	case "vehicleRegistrationUrl":
		return setString(&d.VehicleRegistrationURL, name, value)
	case "insuranceUrl":
		return setString(&d.InsuranceURL, name, value)
	case "drivingAbstractUrl":
		return setString(&d.DrivingAbstractURL, name, value)
	case "profilePhotoUrl":
		return setString(&d.ProfilePhotoURL, name, value)
	case "bankingInfo":
		return setMap(&d.BankingInfo, name, value)
	case "consents":
		return setMap(&d.Consents, name, value)
	case "signatureName":
		return setString(&d.SignatureName, name, value)
	}
	return errors.New("unknown stage field: " + name)
}

func setString(dst *string, name string, value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %s: expected string, got %T", name, value)
	}
	*dst = s
	return nil
}

func setInt(dst *int, name string, value interface{}) error {
	n, ok := value.(int)
	if !ok {
		return fmt.Errorf("field %s: expected integer, got %T", name, value)
	}
	*dst = n
	return nil
}

func setMap(dst *JSONMap, name string, value interface{}) error {
	m, ok := value.(map[string]interface{})
	if !ok {
		if jm, okJM := value.(JSONMap); okJM {
			*dst = jm
			return nil
		}
		return fmt.Errorf("field %s: expected object, got %T", name, value)
	}
	*dst = JSONMap(m)
	return nil
}
