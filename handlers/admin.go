package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keystone/cache"
	"keystone/content"
	"keystone/database"
	"keystone/entities"
	"keystone/middleware"
	"keystone/models"
	"keystone/reorder"
)

// adminCollection describes what the admin panel may do with a collection.
type adminCollection struct {
	writable  bool
	orderable bool
}

var adminCollections = map[string]adminCollection{
	models.CollectionProjects:     {writable: true, orderable: true},
	models.CollectionTestimonials: {writable: true, orderable: true},
	models.CollectionCourses:      {writable: true, orderable: true},
	models.CollectionBlogs:        {writable: true},
	models.CollectionLeads:        {},
	models.CollectionEstimates:    {},
	models.CollectionVisits:       {},
}

// Admin serves the admin panel's collection endpoints. Every call runs
// with the caller's principal.
type Admin struct {
	store database.Store
	cache *cache.QueryCache
}

func NewAdmin(store database.Store, qc *cache.QueryCache) *Admin {
	return &Admin{store: store, cache: qc}
}

func (a *Admin) client(c *gin.Context) *entities.Client {
	return entities.NewClient(a.store, middleware.CurrentPrincipal(c), nil)
}

// collection resolves :collection, writing a 404 when it is not managed.
func (a *Admin) collection(c *gin.Context) (string, adminCollection, bool) {
	name := c.Param("collection")
	spec, ok := adminCollections[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return "", adminCollection{}, false
	}
	return name, spec, true
}

type listQuery struct {
	Sort   string `form:"sort"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (a *Admin) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, spec, ok := a.collection(c)
		if !ok {
			return
		}
		var q listQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err)
			return
		}
		if q.Sort == "" {
			q.Sort = "-" + models.FieldCreatedDate
			if spec.orderable {
				q.Sort = models.FieldOrder
			}
		}

		recs, err := a.client(c).List(c.Request.Context(), name, database.ListOptions{
			Sort:   q.Sort,
			Limit:  q.Limit,
			Offset: q.Offset,
		})
		if err != nil {
			respondError(c, "List "+name, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": recs, "count": len(recs)})
	}
}

func (a *Admin) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, _, ok := a.collection(c)
		if !ok {
			return
		}
		rec, err := a.client(c).Get(c.Request.Context(), name, c.Param("id"))
		if err != nil {
			respondError(c, "Get "+name, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (a *Admin) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, spec, ok := a.collection(c)
		if !ok {
			return
		}
		if !spec.writable {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": name + " are read-only"})
			return
		}
		var fields map[string]any
		if err := c.ShouldBindJSON(&fields); err != nil {
			badRequest(c, err)
			return
		}
		fields = models.StripMetadata(fields)
		if name == models.CollectionBlogs {
			if err := content.PrepareBlog(fields); err != nil {
				badRequest(c, err)
				return
			}
		}
		if err := content.Validate(name, fields); err != nil {
			respondError(c, "Create "+name, err)
			return
		}

		rec, err := a.client(c).Create(c.Request.Context(), name, fields)
		if err != nil {
			respondError(c, "Create "+name, err)
			return
		}
		a.cache.Invalidate(name)
		c.JSON(http.StatusCreated, rec)
	}
}

// Update merges the patch into the record after validating the result.
func (a *Admin) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, spec, ok := a.collection(c)
		if !ok {
			return
		}
		if !spec.writable {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": name + " are read-only"})
			return
		}
		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err)
			return
		}
		patch = models.StripMetadata(patch)

		ctx := c.Request.Context()
		client := a.client(c)
		current, err := client.Get(ctx, name, c.Param("id"))
		if err != nil {
			respondError(c, "Update "+name, err)
			return
		}
		merged := make(map[string]any, len(current.Fields)+len(patch))
		for k, v := range current.Fields {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		if explicit, ok := patch["slug"].(string); ok && name == models.CollectionBlogs {
			normalized, err := content.Slug("", explicit)
			if err != nil {
				badRequest(c, err)
				return
			}
			patch["slug"] = normalized
			merged["slug"] = normalized
		}
		if err := content.Validate(name, merged); err != nil {
			respondError(c, "Update "+name, err)
			return
		}

		rec, err := client.Update(ctx, name, current.ID, patch)
		if err != nil {
			respondError(c, "Update "+name, err)
			return
		}
		a.cache.Invalidate(name)
		c.JSON(http.StatusOK, rec)
	}
}

func (a *Admin) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, _, ok := a.collection(c)
		if !ok {
			return
		}
		if err := a.client(c).Delete(c.Request.Context(), name, c.Param("id")); err != nil {
			respondError(c, "Delete "+name, err)
			return
		}
		a.cache.Invalidate(name)
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

type orderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// SaveOrder persists an admin list's order: the record at position i
// gets order i.
func (a *Admin) SaveOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, spec, ok := a.collection(c)
		if !ok {
			return
		}
		if !spec.orderable {
			c.JSON(http.StatusBadRequest, gin.H{"error": name + " cannot be reordered"})
			return
		}
		var req orderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		err := reorder.SaveOrder(c.Request.Context(), a.client(c), name, req.IDs)
		// Some records may have been updated even on failure.
		a.cache.Invalidate(name)
		if err != nil {
			respondError(c, "SaveOrder "+name, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(req.IDs)})
	}
}

type imagesRequest struct {
	Images []string `json:"images" binding:"required"`
}

// ReorderProjectImages saves a new order for a project's gallery. Only
// projects have galleries.
func (a *Admin) ReorderProjectImages() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param("collection") != models.CollectionProjects {
			c.JSON(http.StatusNotFound, gin.H{"error": "only projects have image galleries"})
			return
		}
		var req imagesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		client := a.client(c)
		rec, err := client.Get(ctx, models.CollectionProjects, c.Param("id"))
		if err != nil {
			respondError(c, "ReorderProjectImages", err)
			return
		}
		var project models.Project
		if err := models.Decode(models.CollectionProjects, *rec, &project); err != nil {
			respondError(c, "ReorderProjectImages", err)
			return
		}
		images, err := reorder.ReorderImages(project.Images, req.Images)
		if err != nil {
			respondError(c, "ReorderProjectImages", err)
			return
		}

		updated, err := client.Update(ctx, models.CollectionProjects, project.ID, map[string]any{"images": images})
		if err != nil {
			respondError(c, "ReorderProjectImages", err)
			return
		}
		a.cache.Invalidate(models.CollectionProjects)
		c.JSON(http.StatusOK, updated)
	}
}
