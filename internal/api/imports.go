package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewhitmore/ledgible/internal/importer"
	"github.com/ewhitmore/ledgible/internal/model"
)

// importCSV accepts a credit card statement as a multipart file upload,
// classifies what the rules cover, and saves the rest unassigned.
func (s *Server) importCSV(c *gin.Context) {
	s.importStatement(c, importer.NewCSVParser())
}

func (s *Server) importOFX(c *gin.Context) {
	s.importStatement(c, importer.NewOFXParser())
}

type statementParser interface {
	Parse(reader io.Reader) ([]model.Transaction, error)
}

func (s *Server) importStatement(c *gin.Context, parser statementParser) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer func() { _ = file.Close() }()

	transactions, err := parser.Parse(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := s.engine.ImportTransactions(c.Request.Context(), transactions)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":           stats.Total,
		"saved":           stats.Saved,
		"duplicates":      stats.Duplicates,
		"auto_classified": stats.AutoClassified,
	})
}

// reclassify re-runs the rule set over unassigned transactions.
func (s *Server) reclassify(c *gin.Context) {
	assigned, err := s.engine.Reclassify(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assigned": assigned})
}

type commitProposalRequest struct {
	Proposal    model.Proposal `json:"proposal" binding:"required"`
	SelectedIDs []string       `json:"selected_ids"`
}

// commitProposal persists a reviewed rule proposal. A null selected_ids
// applies the rule to every candidate; an empty list applies it to none.
func (s *Server) commitProposal(c *gin.Context) {
	var req commitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposal is required"})
		return
	}

	rule, appliedIDs, err := s.engine.CommitProposal(c.Request.Context(), &req.Proposal, req.SelectedIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rule":        rule,
		"applied_ids": appliedIDs,
	})
}

func (s *Server) createLinkToken(c *gin.Context) {
	if s.linker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bank feed is not configured"})
		return
	}

	token, err := s.linker.CreateLinkToken(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"link_token": token})
}

type exchangeRequest struct {
	PublicToken string `json:"public_token" binding:"required"`
}

func (s *Server) exchangePublicToken(c *gin.Context) {
	if s.linker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bank feed is not configured"})
		return
	}

	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "public_token is required"})
		return
	}

	accessToken, itemID, err := s.linker.ExchangePublicToken(c.Request.Context(), req.PublicToken)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"item_id":      itemID,
	})
}
