package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Testimonial is a standalone client quote for the home and about pages.
type Testimonial struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Quote       string    `json:"quote"`
	Rating      int       `json:"rating"`
	Featured    bool      `json:"featured"`
	Order       int       `json:"order"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

func (t Testimonial) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&t.Quote, validation.Required, validation.Length(1, 2000)),
		validation.Field(&t.Rating, validation.Min(1), validation.Max(5)),
		validation.Field(&t.Order, validation.Min(0)),
	)
}
