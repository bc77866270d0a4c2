package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keystone/auth"
	"keystone/cache"
	"keystone/chat"
	"keystone/content"
	"keystone/database"
	"keystone/leads"
	"keystone/logging"
	"keystone/media"
	"keystone/middleware"
	"keystone/purge"
)

// Deps are the services the HTTP API is built from.
type Deps struct {
	Store   database.Store
	Cache   *cache.QueryCache
	Auth    *auth.Service
	Content *content.Service
	Leads   *leads.Service
	Chat    *chat.Service
	Media   *media.Service
	Purger  *purge.Purger

	// UploadDir is served under /uploads when set (dev mode).
	UploadDir string
	// MaxUploadBytes bounds multipart memory.
	MaxUploadBytes int64
}

func NewRouter(d Deps, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logging.RequestLogger(logger), gin.Recovery())
	if d.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = d.MaxUploadBytes
	}

	r.GET("/health", HealthCheck)
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	api := r.Group("/api", middleware.Authenticate(d.Auth))

	api.POST("/auth/login", Login(d.Auth))
	api.POST("/auth/logout", Logout(d.Auth))
	api.GET("/auth/me", Me())

	api.GET("/projects", ListProjects(d.Content))
	api.GET("/projects/:id", GetProject(d.Content))
	api.GET("/testimonials", ListTestimonials(d.Content))
	api.GET("/courses", ListCourses(d.Content))
	api.GET("/courses/:id", GetCourse(d.Content))
	api.POST("/courses/:id/grade", GradeCourse(d.Content))
	api.GET("/blogs", ListBlogs(d.Content))
	api.GET("/blogs/:slug", GetBlog(d.Content))

	api.POST("/leads", CreateLead(d.Leads))
	api.POST("/visits", RecordVisit(d.Leads))
	api.POST("/estimates", CreateEstimate(d.Leads))
	api.POST("/estimates/suggest", SuggestEstimate(d.Chat))
	api.POST("/chat", Chat(d.Chat))

	admin := api.Group("/admin", middleware.RequireAdmin())
	adm := NewAdmin(d.Store, d.Cache)

	admin.POST("/reset", Reset(d.Purger, d.Cache))
	admin.POST("/uploads", Upload(d.Media))
	
	admin.GET("/:collection", adm.List())
	admin.POST("/:collection", adm.Create())
	admin.PUT("/:collection/order", adm.SaveOrder())
	admin.PUT("/:collection/:id/images", adm.ReorderProjectImages())
	admin.GET("/:collection/:id", adm.Get())
	admin.PATCH("/:collection/:id", adm.Update())
	admin.DELETE("/:collection/:id", adm.Delete())

	return r
}
