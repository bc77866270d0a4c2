package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	CategoryResidential = "Residential"
	CategoryCommercial  = "Commercial"
	CategoryRenovation  = "Renovation"
	CategoryRestoration = "Restoration"
)

// ProjectCategories lists the categories the portfolio filters on.
var ProjectCategories = []string{CategoryResidential, CategoryCommercial, CategoryRenovation, CategoryRestoration}

// Project is a portfolio entry shown on the public site.
// Order is only used for relative sorting and may collide.
type Project struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Category     string               `json:"category"`
	Location     string               `json:"location"`
	Timeline     string               `json:"timeline"`
	Budget       string               `json:"budget"`
	Description  string               `json:"description"`
	MainImage    string               `json:"mainImage"`
	Images       []string             `json:"images"`
	Testimonials []ProjectTestimonial `json:"testimonials"`
	Featured     bool                 `json:"featured"`
	Order        int                  `json:"order"`
	CreatedDate  time.Time            `json:"created_date"`
	UpdatedDate  time.Time            `json:"updated_date"`
}

// ProjectTestimonial is a client quote attached to a single project.
type ProjectTestimonial struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Quote string `json:"quote"`
}

func (t ProjectTestimonial) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&t.Quote, validation.Required, validation.Length(1, 2000)),
	)
}

func (p Project) Validate() error {
	categories := make([]interface{}, len(ProjectCategories))
	for i, c := range ProjectCategories {
		categories[i] = c
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Category, validation.Required, validation.In(categories...)),
		validation.Field(&p.MainImage, is.URL),
		validation.Field(&p.Images, validation.Each(is.URL)),
		validation.Field(&p.Testimonials),
		validation.Field(&p.Order, validation.Min(0)),
	)
}

// Gallery returns the main image followed by the remaining images,
// without repeating the main image.
func (p Project) Gallery() []string {
	out := make([]string, 0, len(p.Images)+1)
	if p.MainImage != "" {
		out = append(out, p.MainImage)
	}
	for _, img := range p.Images {
		if img == "" || img == p.MainImage {
			continue
		}
		out = append(out, img)
	}
	return out
}

// ProjectsResponse is the standard response format for project listings.
type ProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}
