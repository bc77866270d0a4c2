package content

import (
	"fmt"

	"keystone/models"
)

type validatable interface {
	Validate() error
}

// Validate decodes fields into the collection's model and runs its rules.
// Collections without a model are accepted as is.
func Validate(collection string, fields map[string]any) error {
	switch collection {
	case models.CollectionProjects:
		return validateAs[models.Project](collection, fields)
	case models.CollectionTestimonials:
		return validateAs[models.Testimonial](collection, fields)
	case models.CollectionCourses:
		return validateAs[models.Course](collection, fields)
	case models.CollectionBlogs:
		return validateAs[models.BlogPost](collection, fields)
	case models.CollectionLeads:
		return validateAs[models.Lead](collection, fields)
	case models.CollectionVisits:
		return validateAs[models.Visit](collection, fields)
	case models.CollectionEstimates:
		return validateAs[models.Estimate](collection, fields)
	}
	return nil
}

func validateAs[T validatable](collection string, fields map[string]any) error {
	var v T
	if err := models.Decode(collection, models.Record{Fields: fields}, &v); err != nil {
		return err
	}
	return v.Validate()
}

// PrepareBlog fills in the slug of a blog record from its title.
func PrepareBlog(fields map[string]any) error {
	title, _ := fields["title"].(string)
	explicit, _ := fields["slug"].(string)
	if title == "" && explicit == "" {
		return nil
	}
	s, err := Slug(title, explicit)
	if err != nil {
		return fmt.Errorf("failed to prepare blog slug: %w", err)
	}
	fields["slug"] = s
	return nil
}
