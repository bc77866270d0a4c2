package content

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/cache"
	"keystone/database"
	"keystone/models"
)

func newService(t *testing.T) (*Service, *database.MemoryStore, *cache.QueryCache) {
	t.Helper()
	store := database.NewMemoryStore()
	qc := cache.New(100, time.Minute)
	return NewService(store, qc), store, qc
}

func create(t *testing.T, store database.Store, collection string, fields map[string]any) string {
	t.Helper()
	rec, err := store.Create(context.Background(), collection, fields)
	require.NoError(t, err)
	return rec.ID
}

func TestProjects_FilterAndOrder(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	create(t, store, models.CollectionProjects, map[string]any{"title": "Loft", "category": "Residential", "order": 2, "featured": true})
	create(t, store, models.CollectionProjects, map[string]any{"title": "Office", "category": "Commercial", "order": 0})
	create(t, store, models.CollectionProjects, map[string]any{"title": "Cottage", "category": "Residential", "order": 1})

	all, err := svc.Projects(ctx, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Office", all[0].Title)
	assert.Equal(t, "Cottage", all[1].Title)
	assert.Equal(t, "Loft", all[2].Title)

	residential, err := svc.Projects(ctx, ProjectFilter{Category: "Residential"})
	require.NoError(t, err)
	assert.Len(t, residential, 2)

	featured := true
	got, err := svc.Projects(ctx, ProjectFilter{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Loft", got[0].Title)
}

func TestProjects_CachedUntilInvalidated(t *testing.T) {
	svc, store, qc := newService(t)
	ctx := context.Background()
	create(t, store, models.CollectionProjects, map[string]any{"title": "Loft", "category": "Residential"})

	got, err := svc.Projects(ctx, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	create(t, store, models.CollectionProjects, map[string]any{"title": "Barn", "category": "Renovation"})
	got, err = svc.Projects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	qc.Invalidate(models.CollectionProjects)
	got, err = svc.Projects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCourses_HideUnpublishedAndAnswers(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	id := create(t, store, models.CollectionCourses, map[string]any{
		"title":     "Site safety",
		"published": true,
		"quiz": []map[string]any{
			{"question": "Hard hat?", "options": []string{"yes", "no"}, "answer": 0},
			{"question": "Ladder angle?", "options": []string{"75", "45"}, "answer": 0},
		},
	})
	draft := create(t, store, models.CollectionCourses, map[string]any{"title": "Draft", "published": false})

	courses, err := svc.Courses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Site safety", courses[0].Title)
	assert.Len(t, courses[0].Quiz, 2)

	_, err = svc.Course(ctx, draft)
	assert.ErrorIs(t, err, database.ErrNotFound)

	res, err := svc.GradeCourse(ctx, id, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, models.QuizResult{Correct: 1, Total: 2, Percent: 50, Passed: false}, res)
}

func TestBlog_RendersMarkdown(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	create(t, store, models.CollectionBlogs, map[string]any{
		"title":          "Choosing tile",
		"slug":           "choosing-tile",
		"content":        "## Porcelain\n\nIt is **durable**.",
		"published":      true,
		"published_date": "2026-03-01T00:00:00Z",
	})
	create(t, store, models.CollectionBlogs, map[string]any{
		"title":     "Unfinished",
		"slug":      "unfinished",
		"content":   "draft",
		"published": false,
	})

	post, err := svc.Blog(ctx, "choosing-tile")
	require.NoError(t, err)
	assert.Contains(t, post.ContentHTML, "<strong>durable</strong>")
	assert.Contains(t, post.ContentHTML, `<h2 id="porcelain">Porcelain</h2>`)

	_, err = svc.Blog(ctx, "unfinished")
	assert.ErrorIs(t, err, database.ErrNotFound)

	posts, err := svc.Blogs(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestRenderer_EscapesRawHTML(t *testing.T) {
	html, err := NewRenderer().Render("<script>alert(1)</script>\n\nhello")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<p>hello</p>")
}

func TestParseBlogPost(t *testing.T) {
	source := `---
title: Spring Deck Care
author: Sam
tags: [decks, maintenance]
date: 2026-04-02T00:00:00Z
---

Seal the boards every year.
`
	post, err := ParseBlogPost([]byte(source))
	require.NoError(t, err)
	assert.Equal(t, "Spring Deck Care", post.Title)
	assert.True(t, slug.IsValid(post.Slug))
	assert.Equal(t, strings.ToLower(post.Slug), post.Slug)
	assert.Equal(t, "Seal the boards every year.", post.Content)
	assert.Equal(t, []string{"decks", "maintenance"}, post.Tags)
	require.NotNil(t, post.PublishedDate)
	assert.Equal(t, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), *post.PublishedDate)

	draft, err := ParseBlogPost([]byte("---\ntitle: Later\ndraft: true\n---\nsoon\n"))
	require.NoError(t, err)
	assert.False(t, draft.Published)
	assert.Nil(t, draft.PublishedDate)

	_, err = ParseBlogPost([]byte("---\nauthor: nobody\n---\nbody\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	err := Validate(models.CollectionProjects, map[string]any{"title": "Deck", "category": "Garden"})
	assert.True(t, models.IsValidationError(err))

	err = Validate(models.CollectionProjects, map[string]any{"title": "Deck", "category": "Residential"})
	assert.NoError(t, err)

	err = Validate(models.CollectionLeads, map[string]any{"name": "Ana"})
	assert.True(t, models.IsValidationError(err))

	var parseErr *models.ParseError
	err = Validate(models.CollectionProjects, map[string]any{"title": 12})
	assert.ErrorAs(t, err, &parseErr)
}
