package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ewhitmore/ledgible/internal/report"
	"github.com/ewhitmore/ledgible/internal/service"
)

func parseDateRange(c *gin.Context) (service.DateRange, error) {
	var rng service.DateRange

	start := c.Query("start_date")
	end := c.Query("end_date")
	if start == "" || end == "" {
		return rng, fmt.Errorf("start_date and end_date are required")
	}

	var err error
	rng.Start, err = time.Parse("2006-01-02", start)
	if err != nil {
		return rng, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", start)
	}
	rng.End, err = time.Parse("2006-01-02", end)
	if err != nil {
		return rng, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", end)
	}
	rng.End = rng.End.Add(24*time.Hour - time.Second)

	if rng.End.Before(rng.Start) {
		return rng, fmt.Errorf("end_date is before start_date")
	}

	return rng, nil
}

func (s *Server) getReport(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := report.Generate(c.Request.Context(), s.storage, rng)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getReportCSV(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := report.Generate(c.Request.Context(), s.storage, rng)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s-%s.csv",
		rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02")))
	c.Header("Content-Type", "text/csv")
	if err := report.WriteCSV(c.Writer, result); err != nil {
		s.logger.Error("failed to stream report csv", "error", err)
	}
}
