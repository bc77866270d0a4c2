package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Lead is a contact request captured from the site.
type Lead struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Service     string    `json:"service"`
	Message     string    `json:"message"`
	Source      string    `json:"source"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

var errContactRequired = validation.NewError("validation_contact_required", "either email or phone is required")

func (l Lead) Validate() error {
	err := validation.ValidateStruct(&l,
		validation.Field(&l.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.Email, is.EmailFormat),
		validation.Field(&l.Phone, validation.Length(7, 32)),
		validation.Field(&l.Message, validation.Length(0, 5000)),
	)
	if err != nil {
		return err
	}
	if l.Email == "" && l.Phone == "" {
		return validation.Errors{"email": errContactRequired}
	}
	return nil
}

// Visit is one tracked page view.
type Visit struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Referrer    string    `json:"referrer"`
	UserAgent   string    `json:"user_agent"`
	SessionID   string    `json:"session_id"`
	CreatedDate time.Time `json:"created_date"`
}

func (v Visit) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Path, validation.Required, validation.Length(1, 2048)),
	)
}

// Estimate is a request for a rough project quote.
type Estimate struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProjectType  string    `json:"project_type"`
	SquareFeet   float64   `json:"square_feet"`
	Budget       string    `json:"budget"`
	Details      string    `json:"details"`
	LowEstimate  float64   `json:"low_estimate,omitempty"`
	HighEstimate float64   `json:"high_estimate,omitempty"`
	CreatedDate  time.Time `json:"created_date"`
}

func (e Estimate) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.EmailFormat),
		validation.Field(&e.ProjectType, validation.Required),
		validation.Field(&e.SquareFeet, validation.Min(0.0)),
	)
}

// IsValidationError reports whether err came from model validation.
func IsValidationError(err error) bool {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return true
	}
	var verr validation.Error
	return errors.As(err, &verr)
}
