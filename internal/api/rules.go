package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewhitmore/ledgible/internal/model"
)

func (s *Server) listRules(c *gin.Context) {
	rules, err := s.storage.GetRules(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

type ruleRequest struct {
	Pattern    string `json:"pattern" binding:"required"`
	BusinessID string `json:"business_id" binding:"required"`
}

func (s *Server) createRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern and business_id are required"})
		return
	}

	rule := &model.Rule{
		Pattern:    req.Pattern,
		BusinessID: req.BusinessID,
	}
	if err := s.storage.CreateRule(c.Request.Context(), rule); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

func (s *Server) updateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern and business_id are required"})
		return
	}

	rule := &model.Rule{
		ID:         c.Param("id"),
		Pattern:    req.Pattern,
		BusinessID: req.BusinessID,
	}
	if err := s.storage.UpdateRule(c.Request.Context(), rule); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// deleteRule removes a rule. With ?clear_assignments=true, transactions the
// rule had classified are returned to the unassigned pool.
func (s *Server) deleteRule(c *gin.Context) {
	clear := c.Query("clear_assignments") == "true"

	if err := s.storage.DeleteRule(c.Request.Context(), c.Param("id"), clear); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) listBusinesses(c *gin.Context) {
	businesses, err := s.storage.GetBusinesses(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, businesses)
}

type businessRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) createBusiness(c *gin.Context) {
	var req businessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	business, err := s.storage.CreateBusiness(c.Request.Context(), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, business)
}
