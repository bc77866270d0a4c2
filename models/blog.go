package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// BlogPost is an article; Content is markdown.
type BlogPost struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content"`
	CoverImage    string     `json:"cover_image"`
	Author        string     `json:"author"`
	Tags          []string   `json:"tags"`
	Published     bool       `json:"published"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	CreatedDate   time.Time  `json:"created_date"`
	UpdatedDate   time.Time  `json:"updated_date"`
}

func (b BlogPost) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&b.Slug, validation.Required, validation.Length(1, 200)),
		validation.Field(&b.Content, validation.Required),
		validation.Field(&b.CoverImage, is.URL),
		validation.Field(&b.PublishedDate, validation.When(b.Published, validation.Required)),
	)
}

// BlogPostView is a post with its rendered body.
type BlogPostView struct {
	BlogPost
	ContentHTML string `json:"content_html"`
}
