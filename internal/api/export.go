package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/david/rfp-tracker/internal/calendar"
	"github.com/david/rfp-tracker/internal/civil"
	"github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/models"
)

// handleExport serves an ICS file. With ?deadline_id it exports that single
// deadline; otherwise it exports every incomplete deadline on active RFPs.
func (s *Server) handleExport(c echo.Context) error {
	ctx := c.Request().Context()

	var deadlines []models.DeadlineWithRFP
	var filename string

	if id := c.QueryParam("deadline_id"); id != "" {
		deadline, err := s.Store.GetDeadline(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		}
		deadlines = []models.DeadlineWithRFP{*deadline}
		filename = slugify(deadline.Label+" "+deadline.RFPName) + ".ics"
	} else {
		var err error
		deadlines, err = s.Store.ListDeadlines(ctx, db.ListDeadlinesParams{ActiveOnly: true})
		if err != nil {
			c.Logger().Errorf("Failed to list deadlines for export: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		}
		today := civil.DateOf(s.now().In(civil.London))
		filename = fmt.Sprintf("rfp-deadlines-%s.ics", today)
	}

	events, err := calendar.BuildEvents(toCalendarDeadlines(deadlines))
	if err != nil {
		c.Logger().Errorf("Failed to build events: %v", err)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	var buf bytes.Buffer
	if err := calendar.EncodeICS(&buf, s.Config.Calendar.Name, events); err != nil {
		if errors.Is(err, calendar.ErrNoEvents) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No deadlines to export"})
		}
		c.Logger().Errorf("Failed to encode calendar: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func toCalendarDeadlines(deadlines []models.DeadlineWithRFP) []calendar.Deadline {
	out := make([]calendar.Deadline, 0, len(deadlines))
	for _, d := range deadlines {
		cd := calendar.Deadline{
			Date:    d.Date,
			Label:   d.Label,
			RFPName: d.RFPName,
		}
		if d.Time != nil {
			cd.Time = *d.Time
		}
		if d.Context != nil {
			cd.Context = *d.Context
		}
		out = append(out, cd)
	}
	return out
}

// slugify lowercases and reduces a string to hyphen-separated alphanumeric
// runs for use in filenames.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "deadline"
	}
	return out
}
