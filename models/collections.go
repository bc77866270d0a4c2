package models

// Collection names in the document store.
const (
	CollectionProjects     = "projects"
	CollectionTestimonials = "testimonials"
	CollectionCourses      = "courses"
	CollectionBlogs        = "blogs"
	CollectionLeads        = "leads"
	CollectionVisits       = "visits"
	CollectionEstimates    = "estimates"
	CollectionUsers        = "users"
	CollectionSessions     = "sessions"
)

// Roles recognised by the admin gate.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
