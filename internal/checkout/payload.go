package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a user-facing input failure tied to one field. It
// is raised before any persistence happens.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Payload carries the shipping and contact fields captured at checkout.
type Payload struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Phone        string `json:"phone" validate:"required,numeric,min=11"`
	Email        string `json:"email" validate:"required,email"`
	AddressLine1 string `json:"address_line_1" validate:"required"`
	AddressLine2 string `json:"address_line_2"`
	Area         string `json:"area"`
	Country      string `json:"country" validate:"required"`
	District     string `json:"district" validate:"required,bd_district"`
	OrderNote    string `json:"order_note"`
}

var districts = map[string]struct{}{}

// Districts of Bangladesh accepted as a shipping destination, plus
// Savar which the storefront ships to as its own zone.
var districtNames = []string{
	"Bagerhat", "Bandarban", "Barguna", "Barisal", "Bhola", "Bogra",
	"Brahmanbaria", "Cumilla", "Chandpur", "Chattogram", "Chuadanga",
	"Cox's Bazar", "Chapainawabganj", "Dhaka", "Dinajpur", "Faridpur",
	"Feni", "Gaibandha", "Gazipur", "Gopalganj", "Habiganj", "Jamalpur",
	"Jashore", "Jhalokati", "Jhenaidah", "Joypurhat", "Khagrachari",
	"Khulna", "Kishoreganj", "Kurigram", "Kushtia", "Lakshmipur",
	"Lalmonirhat", "Madaripur", "Magura", "Manikganj", "Meherpur",
	"Moulvibazar", "Munshiganj", "Mymensingh", "Naogaon", "Narayanganj",
	"Narsingdi", "Natore", "Narail", "Netrokona", "Nilphamari",
	"Noakhali", "Pabna", "Panchagarh", "Patuakhali", "Pirojpur",
	"Rajbari", "Rajshahi", "Rangamati", "Rangpur", "Savar", "Satkhira",
	"Shariatpur", "Sherpur", "Sirajganj", "Sunamganj", "Sylhet",
	"Tangail", "Thakurgaon",
}

func init() {
	for _, name := range districtNames {
		districts[strings.ToLower(name)] = struct{}{}
	}
}

func validDistrict(fl validator.FieldLevel) bool {
	_, ok := districts[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	return ok
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// registration only fails for an empty tag
	_ = v.RegisterValidation("bd_district", validDistrict)
	return v
}

var validate = newValidator()

// Validate checks the payload and converts the first failure into a
// field-tied ValidationError.
func (p *Payload) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("checkout: failed to validate payload: %w", err)
	}

	fe := fieldErrs[0]
	field := jsonField(fe.StructField())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "this field is required"}
	case "numeric":
		return &ValidationError{Field: field, Message: "must contain only digits"}
	case "min":
		return &ValidationError{Field: field, Message: "must be at least 11 digits"}
	case "email":
		return &ValidationError{Field: field, Message: "must be a valid email address"}
	case "bd_district":
		return &ValidationError{Field: field, Message: "must be a district of Bangladesh"}
	default:
		return &ValidationError{Field: field, Message: "invalid value"}
	}
}

func jsonField(structField string) string {
	switch structField {
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	case "AddressLine1":
		return "address_line_1"
	case "AddressLine2":
		return "address_line_2"
	case "OrderNote":
		return "order_note"
	default:
		return strings.ToLower(structField)
	}
}
