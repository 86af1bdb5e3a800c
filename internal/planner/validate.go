package planner

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// FieldError reports a rule violated by one form field. Field uses dotted
// paths for rows, e.g. "preparations.2.timeAmount".
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors maps a field path to its first message.
type FieldErrors map[string]string

// Fields collects the field errors wrapped in err. The first message per field
// wins.
func Fields(err error) FieldErrors {
	out := FieldErrors{}
	if err == nil {
		return out
	}
	var merr *multierror.Error
	errs := []error{err}
	if errors.As(err, &merr) {
		errs = merr.WrappedErrors()
	}
	for _, e := range errs {
		var fe *FieldError
		if errors.As(e, &fe) {
			if _, ok := out[fe.Field]; !ok {
				out[fe.Field] = fe.Message
			}
		}
	}
	return out
}

type validator struct {
	err *multierror.Error
}

func (v *validator) add(field, msg string) {
	v.err = multierror.Append(v.err, &FieldError{Field: field, Message: msg})
}

func (v *validator) required(field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, msg)
		return false
	}
	return true
}

func (v *validator) email(field, value string) {
	if !v.required(field, value, "Email is required") {
		return
	}
	if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
		v.add(field, "Invalid email")
	}
}

func (v *validator) result() error {
	return v.err.ErrorOrNil()
}

func row(list string, i int, field string) string {
	return fmt.Sprintf("%s.%d.%s", list, i, field)
}

// ValidateIngredient checks an ingredient before it is created or updated.
func ValidateIngredient(in IngredientInput) error {
	var v validator
	v.required("name", in.Name, "Name is required")
	for i, p := range in.Preparations {
		if v.required(row("preparations", i, "category"), p.Category, "Type is required") &&
			!slices.Contains(PreparationCategories, p.Category) {
			v.add(row("preparations", i, "category"), "Select a type from dropdown")
		}
		if p.TimeAmount < 1 {
			v.add(row("preparations", i, "timeAmount"), "Time Amount must be greater than 0")
		}
		if v.required(row("preparations", i, "timeUnits"), p.TimeUnits, "Time Unit is required") &&
			!slices.Contains(TimeUnits, p.TimeUnits) {
			v.add(row("preparations", i, "timeUnits"), "Select a type from dropdown")
		}
	}
	return v.result()
}

// ValidateDish checks a dish before it is created or updated.
func ValidateDish(in DishInput) error {
	var v validator
	v.required("name", in.Name, "Name is required")
	if len(in.Ingredients) > MaxDishIngredients {
		v.add("ingredients", fmt.Sprintf("ingredients field must have less than or equal to %d items", MaxDishIngredients))
	}
	for i, di := range in.Ingredients {
		v.required(row("ingredients", i, "ingredient"), di.Ingredient.ID, "Ingredient is required")
		if di.Amount < 1 {
			v.add(row("ingredients", i, "amount"), "Amount must be greater than 0")
		}
		if !slices.Contains(MeasurementUnits, di.MeasurementUnit) {
			v.add(row("ingredients", i, "measurement_unit"), "Select a type from dropdown")
		}
	}
	return v.result()
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login form.
func (c Credentials) Validate() error {
	var v validator
	v.email("email", c.Email)
	v.required("password", c.Password, "Password is required")
	return v.result()
}

// Signup is the registration form.
type Signup struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the registration form.
func (s Signup) Validate() error {
	var v validator
	v.required("firstName", s.FirstName, "First Name is required")
	v.required("lastName", s.LastName, "Last Name is required")
	v.email("email", s.Email)
	v.required("password", s.Password, "Password is required")
	if v.required("confirmPassword", s.ConfirmPassword, "Confirm Password is required") &&
		s.ConfirmPassword != s.Password {
		v.add("confirmPassword", "Passwords must match")
	}
	return v.result()
}

// PasswordChange is the change password form.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the change password form.
func (p PasswordChange) Validate() error {
	var v validator
	v.required("currentPassword", p.CurrentPassword, "Current Password is required")
	v.required("newPassword", p.NewPassword, "New Password is required")
	if v.required("confirmPassword", p.ConfirmPassword, "Confirm Password is required") &&
		p.ConfirmPassword != p.NewPassword {
		v.add("confirmPassword", "Passwords must match")
	}
	return v.result()
}
