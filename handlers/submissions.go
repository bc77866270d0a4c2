package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keystone/chat"
	"keystone/leads"
	"keystone/models"
)

// CreateLead stores a lead forwarded by the contact page after the CRM
// form was submitted.
func CreateLead(svc *leads.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lead models.Lead
		if err := c.ShouldBindJSON(&lead); err != nil {
			badRequest(c, err)
			return
		}
		created, err := svc.CreateLead(c.Request.Context(), lead)
		if err != nil {
			respondError(c, "CreateLead", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func RecordVisit(svc *leads.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var visit models.Visit
		if err := c.ShouldBindJSON(&visit); err != nil {
			badRequest(c, err)
			return
		}
		if visit.UserAgent == "" {
			visit.UserAgent = c.Request.UserAgent()
		}
		created, err := svc.RecordVisit(c.Request.Context(), visit)
		if err != nil {
			respondError(c, "RecordVisit", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func CreateEstimate(svc *leads.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var estimate models.Estimate
		if err := c.ShouldBindJSON(&estimate); err != nil {
			badRequest(c, err)
			return
		}
		created, err := svc.CreateEstimate(c.Request.Context(), estimate)
		if err != nil {
			respondError(c, "CreateEstimate", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func SuggestEstimate(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var estimate models.Estimate
		if err := c.ShouldBindJSON(&estimate); err != nil {
			badRequest(c, err)
			return
		}
		if estimate.ProjectType == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project_type is required"})
			return
		}
		suggestion, err := svc.SuggestEstimate(c.Request.Context(), estimate)
		if err != nil {
			respondError(c, "SuggestEstimate", err)
			return
		}
		c.JSON(http.StatusOK, suggestion)
	}
}

type chatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

func Chat(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		reply, err := svc.Send(c.Request.Context(), req.SessionID, req.Message)
		if err != nil {
			respondError(c, "Chat", err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}
