// Package content serves the public site's reads: portfolio, testimonials,
// courses and blog.
package content

import (
	"context"
	"fmt"
	"strconv"

	"keystone/auth"
	"keystone/cache"
	"keystone/database"
	"keystone/entities"
	"keystone/models"
)

// Service reads public collections as an anonymous caller.
type Service struct {
	client   *entities.Client
	cache    *cache.QueryCache
	markdown *Renderer
}

func NewService(store database.Store, qc *cache.QueryCache) *Service {
	return &Service{
		client:   entities.NewClient(store, auth.Anonymous, nil),
		cache:    qc,
		markdown: NewRenderer(),
	}
}

// ProjectFilter narrows the portfolio listing. Zero values match everything.
type ProjectFilter struct {
	Category string
	Featured *bool
}

func (f ProjectFilter) match() map[string]any {
	m := map[string]any{}
	if f.Category != "" {
		m["category"] = f.Category
	}
	if f.Featured != nil {
		m["featured"] = *f.Featured
	}
	return m
}

func (f ProjectFilter) key() string {
	featured := "any"
	if f.Featured != nil {
		featured = strconv.FormatBool(*f.Featured)
	}
	return "category=" + f.Category + "&featured=" + featured
}

func (s *Service) filter(ctx context.Context, collection, key string, match map[string]any, sort string) ([]models.Record, error) {
	return s.cache.Fetch(ctx, collection, key, func(ctx context.Context) ([]models.Record, error) {
		return s.client.Filter(ctx, collection, match, database.ListOptions{Sort: sort})
	})
}

// Projects lists the portfolio by admin order, oldest first on ties.
func (s *Service) Projects(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	recs, err := s.filter(ctx, models.CollectionProjects, f.key(), f.match(), models.FieldOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return models.DecodeAll[models.Project](models.CollectionProjects, recs)
}

func (s *Service) Project(ctx context.Context, id string) (*models.Project, error) {
	rec, err := s.client.Get(ctx, models.CollectionProjects, id)
	if err != nil {
		return nil, err
	}
	var p models.Project
	if err := models.Decode(models.CollectionProjects, *rec, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Testimonials(ctx context.Context) ([]models.Testimonial, error) {
	recs, err := s.filter(ctx, models.CollectionTestimonials, "all", nil, models.FieldOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return models.DecodeAll[models.Testimonial](models.CollectionTestimonials, recs)
}

// Courses lists published courses without quiz answers.
func (s *Service) Courses(ctx context.Context) ([]models.PublicCourse, error) {
	recs, err := s.filter(ctx, models.CollectionCourses, "published", map[string]any{"published": true}, models.FieldOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	courses, err := models.DecodeAll[models.Course](models.CollectionCourses, recs)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicCourse, len(courses))
	for i, c := range courses {
		out[i] = c.Public()
	}
	return out, nil
}

// Course returns a published course. Unpublished courses are not found.
func (s *Service) Course(ctx context.Context, id string) (*models.Course, error) {
	rec, err := s.client.Get(ctx, models.CollectionCourses, id)
	if err != nil {
		return nil, err
	}
	var c models.Course
	if err := models.Decode(models.CollectionCourses, *rec, &c); err != nil {
		return nil, err
	}
	if !c.Published {
		return nil, database.ErrNotFound
	}
	return &c, nil
}

func (s *Service) GradeCourse(ctx context.Context, id string, answers []int) (models.QuizResult, error) {
	c, err := s.Course(ctx, id)
	if err != nil {
		return models.QuizResult{}, err
	}
	return c.Grade(answers), nil
}

// Blogs lists published posts, newest first.
func (s *Service) Blogs(ctx context.Context) ([]models.BlogPost, error) {
	recs, err := s.filter(ctx, models.CollectionBlogs, "published", map[string]any{"published": true}, "-published_date")
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	return models.DecodeAll[models.BlogPost](models.CollectionBlogs, recs)
}

// Blog returns a published post by slug with its body rendered.
func (s *Service) Blog(ctx context.Context, slug string) (*models.BlogPostView, error) {
	recs, err := s.client.Filter(ctx, models.CollectionBlogs,
		map[string]any{"slug": slug, "published": true}, database.ListOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to find blog %s: %w", slug, err)
	}
	if len(recs) == 0 {
		return nil, database.ErrNotFound
	}
	var post models.BlogPost
	if err := models.Decode(models.CollectionBlogs, recs[0], &post); err != nil {
		return nil, err
	}
	html, err := s.markdown.Render(post.Content)
	if err != nil {
		return nil, err
	}
	return &models.BlogPostView{BlogPost: post, ContentHTML: html}, nil
}
