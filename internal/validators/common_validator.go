package validators

import (
	"errors"
	"fmt"
	"strings"

	"terangaride/internal/models"
	"terangaride/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation functions
	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_operateur", validatePhoneOperateur)
	validate.RegisterValidation("methode_paiement", validateMethodePaiement)
	validate.RegisterValidation("montant_fcfa", validateMontantFCFA)
}

// Common validation errors
var (
	ErrInvalidObjectID    = errors.New("invalid object ID format")
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
	ErrInvalidMethode     = errors.New("invalid payment method")
	ErrInvalidMontant     = errors.New("invalid FCFA amount")
)

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			validationError := ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			}
			validationErrors = append(validationErrors, validationError)
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s elements", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "phone_operateur":
		return "Invalid Ivorian mobile number"
	case "methode_paiement":
		return "Unknown payment method"
	case "montant_fcfa":
		return "Amount must be a whole positive FCFA value"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validatePhoneOperateur(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return utils.IsValidPhone(phone)
}

func validateMethodePaiement(fl validator.FieldLevel) bool {
	methode := models.PaymentMethod(fl.Field().String())
	if methode == models.PaymentMethodEspeces {
		return true
	}
	return methode.IsMobileMoney()
}

func validateMontantFCFA(fl validator.FieldLevel) bool {
	montant := fl.Field().Float()
	return montant > 0 && montant == utils.RoundFCFA(montant)
}
