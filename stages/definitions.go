package stages

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"partner-onboarding-api/models"
)

// FieldKind drives payload normalization for a field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindJSON
)

// FieldView looks up the merged (payload over persisted) value of a field,
// so validators can express cross-field rules.
type FieldView func(name string) (interface{}, bool)

// FieldValidator checks a present, normalized value. A nil validator means
// presence is enough.
type FieldValidator func(value interface{}, view FieldView) error

// FieldSpec declares one field of a stage.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Validate FieldValidator
}

// StageDefinition is one entry of an entity type's ordered stage table.
// A stage depends on its predecessor: stage k requires stage k-1 completed.
type StageDefinition struct {
	Number      int
	Title       string
	Description string
	Required    []FieldSpec
	Optional    []FieldSpec
}

// Fields returns required then optional specs.
func (d StageDefinition) Fields() []FieldSpec {
	out := make([]FieldSpec, 0, len(d.Required)+len(d.Optional))
	out = append(out, d.Required...)
	return append(out, d.Optional...)
}

func (d StageDefinition) fieldNames(specs []FieldSpec) []string {
	names := make([]string, len(specs))
	for i, f := range specs {
		names[i] = f.Name
	}
	return names
}

// RequiredNames returns the required field names in declaration order.
func (d StageDefinition) RequiredNames() []string { return d.fieldNames(d.Required) }

// OptionalNames returns the optional field names in declaration order.
func (d StageDefinition) OptionalNames() []string { return d.fieldNames(d.Optional) }

var validate = validator.New()

func format(tag, reason string) FieldValidator {
	return func(value interface{}, _ FieldView) error {
		if err := validate.Var(value, tag); err != nil {
			return errors.New(reason)
		}
		return nil
	}
}

var (
	digitsRe     = regexp.MustCompile(`^\d+$`)
	postalCodeRe = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d$`)
	phoneRe      = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

func matching(re *regexp.Regexp, reason string) FieldValidator {
	return func(value interface{}, _ FieldView) error {
		s, _ := value.(string)
		if !re.MatchString(s) {
			return errors.New(reason)
		}
		return nil
	}
}

func validDateOfBirth(value interface{}, _ FieldView) error {
	s, _ := value.(string)
	dob, err := time.Parse("2006-01-02", s)
	if err != nil {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	if time.Since(dob) < 18*365*24*time.Hour {
		return errors.New("registrant must be at least 18 years old")
	}
	return nil
}

func validVehicleYear(value interface{}, _ FieldView) error {
	year, _ := value.(int)
	max := time.Now().Year() + 1
	if year < 1990 || year > max {
		return fmt.Errorf("must be between 1990 and %d", max)
	}
	return nil
}

// licence classes that permit commercial delivery driving, by province
var provinceLicenseClasses = map[string][]string{
	"ON": {"G", "G2"},
	"QC": {"5"},
	"BC": {"5", "7"},
	"AB": {"5"},
	"MB": {"5"},
	"SK": {"5"},
	"NS": {"5"},
	"NB": {"5"},
	"NL": {"5"},
	"PE": {"5"},
}

func validLicenseClass(value interface{}, view FieldView) error {
	class, _ := value.(string)
	provinceVal, ok := view("province")
	if !ok {
		return errors.New("province must be set before the license class can be validated")
	}
	province, _ := provinceVal.(string)
	allowed, known := provinceLicenseClasses[strings.ToUpper(province)]
	if !known {
		// territories and anything unmapped accept any non-empty class
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(class, a) {
			return nil
		}
	}
	return fmt.Errorf("class %q is not valid for province %s (allowed: %s)",
		class, strings.ToUpper(province), strings.Join(allowed, ", "))
}

// validBankingInfo applies the digit-length rules for Canadian EFT details.
func validBankingInfo(value interface{}, _ FieldView) error {
	info, _ := value.(models.JSONMap)
	str := func(key string) string {
		s, _ := info[key].(string)
		return strings.TrimSpace(s)
	}
	if str("accountHolder") == "" {
		return errors.New("accountHolder is required")
	}
	if v := str("institutionNumber"); len(v) != 3 || !digitsRe.MatchString(v) {
		return errors.New("institutionNumber must be exactly 3 digits")
	}
	if v := str("transitNumber"); len(v) != 5 || !digitsRe.MatchString(v) {
		return errors.New("transitNumber must be exactly 5 digits")
	}
	if v := str("accountNumber"); len(v) < 7 || len(v) > 12 || !digitsRe.MatchString(v) {
		return errors.New("accountNumber must be 7 to 12 digits")
	}
	return nil
}

func requiredConsents(keys ...string) FieldValidator {
	return func(value interface{}, _ FieldView) error {
		consents, _ := value.(models.JSONMap)
		for _, key := range keys {
			agreed, _ := consents[key].(bool)
			if !agreed {
				return fmt.Errorf("consent %q must be accepted", key)
			}
		}
		return nil
	}
}

const provinceTag = "oneof=AB BC MB NB NL NS NT NU ON PE QC SK YT"

var driverStages = []StageDefinition{
	{
		Number:      1,
		Title:       "Personal Details",
		Description: "Your legal name, contact information, and home address.",
		Required: []FieldSpec{
			{Name: "firstName", Kind: KindString},
			{Name: "lastName", Kind: KindString},
			{Name: "phone", Kind: KindString, Validate: matching(phoneRe, "must be a phone number with 10 to 15 digits")},
			{Name: "dateOfBirth", Kind: KindString, Validate: validDateOfBirth},
			{Name: "address", Kind: KindString},
			{Name: "city", Kind: KindString},
			{Name: "province", Kind: KindString, Validate: format(provinceTag, "must be a two-letter province or territory code")},
			{Name: "postalCode", Kind: KindString, Validate: matching(postalCodeRe, "must be a valid postal code (e.g. M5V 2T6)")},
		},
	},
	{
		Number:      2,
		Title:       "Vehicle Details",
		Description: "The vehicle you will deliver with and your driver's licence.",
		Required: []FieldSpec{
			{Name: "vehicleType", Kind: KindString, Validate: format("oneof=sedan suv van truck motorcycle bicycle", "must be one of: sedan, suv, van, truck, motorcycle, bicycle")},
			{Name: "vehicleMake", Kind: KindString},
			{Name: "vehicleModel", Kind: KindString},
			{Name: "vehicleYear", Kind: KindInt, Validate: validVehicleYear},
			{Name: "licensePlate", Kind: KindString},
			{Name: "licenseNumber", Kind: KindString},
			{Name: "licenseClass", Kind: KindString, Validate: validLicenseClass},
		},
		Optional: []FieldSpec{
			{Name: "vehicleColor", Kind: KindString},
		},
	},
	{
		Number:      3,
		Title:       "Documents",
		Description: "Uploaded copies of your licence, registration, and insurance.",
		Required: []FieldSpec{
			{Name: "driversLicenseUrl", Kind: KindString, Validate: format("url", "must be a URL")},
			{Name: "vehicleRegistrationUrl", Kind: KindString, Validate: format("url", "must be a URL")},
			{Name: "insuranceUrl", Kind: KindString, Validate: format("url", "must be a URL")},
		},
		Optional: []FieldSpec{
			{Name: "drivingAbstractUrl", Kind: KindString, Validate: format("url", "must be a URL")},
			{Name: "profilePhotoUrl", Kind: KindString, Validate: format("url", "must be a URL")},
		},
	},
	{
		Number:      4,
		Title:       "Banking Information",
		Description: "Direct-deposit details for your weekly payouts.",
		Required: []FieldSpec{
			{Name: "bankingInfo", Kind: KindJSON, Validate: validBankingInfo},
		},
	},
	{
		Number:      5,
		Title:       "Agreements",
		Description: "Terms of service, background-check consent, and signature.",
		Required: []FieldSpec{
			{Name: "consents", Kind: KindJSON, Validate: requiredConsents("termsOfService", "backgroundCheck")},
			{Name: "signatureName", Kind: KindString},
		},
	},
}

var restaurantStages = []StageDefinition{
	{
		Number:      1,
		Title:       "Business Details",
		Description: "Your restaurant's legal business information and location.",
		Required: []FieldSpec{
			{Name: "businessName", Kind: KindString},
			{Name: "businessNumber", Kind: KindString, Validate: func(value interface{}, _ FieldView) error {
				s, _ := value.(string)
				if len(s) != 9 || !digitsRe.MatchString(s) {
					return errors.New("must be a 9-digit CRA business number")
				}
				return nil
			}},
			{Name: "ownerName", Kind: KindString},
			{Name: "phone", Kind: KindString, Validate: matching(phoneRe, "must be a phone number with 10 to 15 digits")},
			{Name: "address", Kind: KindString},
			{Name: "city", Kind: KindString},
			{Name: "province", Kind: KindString, Validate: format(provinceTag, "must be a two-letter province or territory code")},
			{Name: "postalCode", Kind: KindString, Validate: matching(postalCodeRe, "must be a valid postal code (e.g. M5V 2T6)")},
		},
		Optional: []FieldSpec{
			{Name: "cuisine", Kind: KindString},
		},
	},
	{
		Number:      2,
		Title:       "Documents",
		Description: "Uploaded business licence and food-safety certification.",
		Required: []FieldSpec{
			{Name: "businessLicenseUrl", Kind: KindString, Validate: format("url", "must be a URL")},
			{Name: "foodHandlerCertUrl", Kind: KindString, Validate: format("url", "must be a URL")},
		},
		Optional: []FieldSpec{
			{Name: "insuranceUrl", Kind: KindString, Validate: format("url", "must be a URL")},
			{Name: "menuUrl", Kind: KindString, Validate: format("url", "must be a URL")},
			{Name: "storefrontPhotoUrl", Kind: KindString, Validate: format("url", "must be a URL")},
		},
	},
	{
		Number:      3,
		Title:       "Banking Information",
		Description: "Direct-deposit details for your payouts.",
		Required: []FieldSpec{
			{Name: "bankingInfo", Kind: KindJSON, Validate: validBankingInfo},
		},
	},
	{
		Number:      4,
		Title:       "Review & Agreements",
		Description: "Partner agreement and authorized signature.",
		Required: []FieldSpec{
			{Name: "consents", Kind: KindJSON, Validate: requiredConsents("termsOfService")},
			{Name: "signatureName", Kind: KindString},
		},
	},
}

// DefinitionsFor returns the ordered stage table for an entity type.
func DefinitionsFor(t models.EntityType) []StageDefinition {
	switch t {
	case models.EntityDriver:
		return driverStages
	case models.EntityRestaurant:
		return restaurantStages
	}
	return nil
}

// PaymentGated reports whether the entity type's flow includes the
// onboarding-fee payment gate on its final stage.
func PaymentGated(t models.EntityType) bool {
	switch t {
	case models.EntityDriver, models.EntityRestaurant:
		return true
	}
	return false
}
