package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"keystone/content"
	"keystone/models"
)

type projectQuery struct {
	Category string `form:"category"`
	Featured string `form:"featured"`
}

func ListProjects(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q projectQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err)
			return
		}
		filter := content.ProjectFilter{Category: q.Category}
		if q.Featured != "" {
			featured, err := strconv.ParseBool(q.Featured)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid featured flag"})
				return
			}
			filter.Featured = &featured
		}

		projects, err := svc.Projects(c.Request.Context(), filter)
		if err != nil {
			respondError(c, "ListProjects", err)
			return
		}

		c.JSON(http.StatusOK, models.ProjectsResponse{
			Projects: projects,
			Total:    len(projects),
		})
	}
}

func GetProject(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := svc.Project(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, "GetProject", err)
			return
		}

		c.JSON(http.StatusOK, project)
	}
}

func ListTestimonials(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		testimonials, err := svc.Testimonials(c.Request.Context())
		if err != nil {
			respondError(c, "ListTestimonials", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"testimonials": testimonials, "total": len(testimonials)})
	}
}

func ListCourses(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		courses, err := svc.Courses(c.Request.Context())
		if err != nil {
			respondError(c, "ListCourses", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"courses": courses, "total": len(courses)})
	}
}

func GetCourse(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		course, err := svc.Course(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, "GetCourse", err)
			return
		}
		c.JSON(http.StatusOK, course.Public())
	}
}

type gradeRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

func GradeCourse(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		result, err := svc.GradeCourse(c.Request.Context(), c.Param("id"), req.Answers)
		if err != nil {
			respondError(c, "GradeCourse", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func ListBlogs(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, err := svc.Blogs(c.Request.Context())
		if err != nil {
			respondError(c, "ListBlogs", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"blogs": posts, "total": len(posts)})
	}
}

func GetBlog(svc *content.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.Blog(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, "GetBlog", err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}
