package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ewhitmore/ledgible/internal/service"
)

func parseTransactionFilter(c *gin.Context) (service.TransactionFilter, error) {
	var filter service.TransactionFilter

	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", v)
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", v)
		}
		// Include the whole end day.
		t = t.Add(24*time.Hour - time.Second)
		filter.EndDate = &t
	}

	filter.BusinessID = c.Query("business_id")
	filter.UnassignedOnly = c.Query("unassigned") == "true"

	if v := c.DefaultQuery("limit", "0"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("invalid limit %q", v)
		}
		filter.Limit = limit
	}
	if v := c.DefaultQuery("offset", "0"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("invalid offset %q", v)
		}
		filter.Offset = offset
	}

	return filter, nil
}

func (s *Server) listTransactions(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transactions, err := s.storage.GetTransactions(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

func (s *Server) getTransaction(c *gin.Context) {
	txn, err := s.storage.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

type patchTransactionRequest struct {
	BusinessID *string `json:"business_id"`
	Reviewed   *bool   `json:"reviewed"`
}

// patchTransaction updates the business assignment and the reviewed flag.
// Setting business_id here bypasses rule inference; use the assign endpoint
// for the full correction flow.
func (s *Server) patchTransaction(c *gin.Context) {
	var req patchTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.BusinessID == nil && req.Reviewed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	if req.BusinessID != nil {
		if err := s.storage.SetTransactionBusiness(ctx, id, *req.BusinessID); err != nil {
			s.respondError(c, err)
			return
		}
	}
	if req.Reviewed != nil {
		if err := s.storage.SetTransactionReviewed(ctx, id, *req.Reviewed); err != nil {
			s.respondError(c, err)
			return
		}
	}

	txn, err := s.storage.GetTransactionByID(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

type assignRequest struct {
	BusinessID string `json:"business_id" binding:"required"`
}

// assignTransaction runs the manual correction flow: the assignment is
// persisted immediately and a rule proposal comes back for review.
func (s *Server) assignTransaction(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
		return
	}

	proposal, err := s.engine.AssignBusiness(c.Request.Context(), c.Param("id"), req.BusinessID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}
