package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"keystone/models"
)

type blogFrontMatter struct {
	Title   string    `yaml:"title"`
	Slug    string    `yaml:"slug"`
	Excerpt string    `yaml:"excerpt"`
	Cover   string    `yaml:"cover_image"`
	Author  string    `yaml:"author"`
	Tags    []string  `yaml:"tags"`
	Date    time.Time `yaml:"date"`
	Draft   bool      `yaml:"draft"`
}

// ParseBlogPost reads a markdown file with YAML front matter into a post.
// Posts are published unless marked draft.
func ParseBlogPost(source []byte) (models.BlogPost, error) {
	var meta blogFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("failed to parse front matter: %w", err)
	}

	s, err := Slug(meta.Title, meta.Slug)
	if err != nil {
		return models.BlogPost{}, err
	}

	post := models.BlogPost{
		Title:      meta.Title,
		Slug:       s,
		Excerpt:    meta.Excerpt,
		Content:    strings.TrimSpace(string(body)),
		CoverImage: meta.Cover,
		Author:     meta.Author,
		Tags:       meta.Tags,
		Published:  !meta.Draft,
	}
	if post.Published {
		published := meta.Date
		if published.IsZero() {
			published = time.Now()
		}
		published = published.UTC()
		post.PublishedDate = &published
	}
	if err := post.Validate(); err != nil {
		return models.BlogPost{}, err
	}
	return post, nil
}
