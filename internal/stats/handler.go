package stats

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aevon-lab/project-pulse/internal/core/analytics"
	httperr "github.com/aevon-lab/project-pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all stats API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/stats/dau", s.HandleDAU)
	r.GET("/stats/top-events", s.HandleTopEvents)
	r.GET("/stats/retention", s.HandleRetention)
}

func dateRange(from, to time.Time) (analytics.DateRange, error) {
	r, err := analytics.NewDateRange(from, to)
	if err != nil {
		return analytics.DateRange{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return r, nil
}

// HandleDAU handles GET /stats/dau?from=&to=&segment=
func (s *Service) HandleDAU(c *gin.Context) {
	var query struct {
		From    time.Time `form:"from" binding:"required" time_format:"2006-01-02" time_utc:"1"`
		To      time.Time `form:"to" binding:"required" time_format:"2006-01-02" time_utc:"1"`
		Segment string    `form:"segment"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeInvalidQuery(c, err)
		return
	}

	r, err := dateRange(query.From, query.To)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}
	filter, err := analytics.ParseSegment(query.Segment)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}

	c.JSON(http.StatusOK, s.DailyActiveUsers(c.Request.Context(), r, filter))
}

// HandleTopEvents handles GET /stats/top-events?from=&to=&limit=
func (s *Service) HandleTopEvents(c *gin.Context) {
	var query struct {
		From  time.Time `form:"from" binding:"required" time_format:"2006-01-02" time_utc:"1"`
		To    time.Time `form:"to" binding:"required" time_format:"2006-01-02" time_utc:"1"`
		Limit int       `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeInvalidQuery(c, err)
		return
	}

	r, err := dateRange(query.From, query.To)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}

	resp, err := s.TopEvents(c.Request.Context(), r, query.Limit)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRetention handles GET /stats/retention?start_date=&windows=
func (s *Service) HandleRetention(c *gin.Context) {
	var query struct {
		StartDate time.Time `form:"start_date" binding:"required" time_format:"2006-01-02" time_utc:"1"`
		Windows   int       `form:"windows" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeInvalidQuery(c, err)
		return
	}

	resp, err := s.Retention(c.Request.Context(), query.StartDate, query.Windows)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeInvalidQuery(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidQueryError,
		Message:   "Invalid query parameters",
		Details:   err.Error(),
	})
}

func writeQueryError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidQuery) {
		writeInvalidQuery(c, err)
		return
	}
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   "Failed to run stats query",
		Details:   err.Error(),
	})
}
