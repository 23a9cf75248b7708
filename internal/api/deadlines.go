package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/david/rfp-tracker/internal/civil"
	"github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/models"
	"github.com/david/rfp-tracker/internal/urgency"
)

// deadlineResponse is a deadline with its urgency computed at read time.
type deadlineResponse struct {
	models.DeadlineWithRFP
	Urgency urgency.Level `json:"urgency"`
}

func (s *Server) decorateDeadline(d models.DeadlineWithRFP) deadlineResponse {
	return deadlineResponse{
		DeadlineWithRFP: d,
		Urgency:         urgency.Classify(d.Date, d.Completed, s.now()),
	}
}

func (s *Server) decorateDeadlines(deadlines []models.DeadlineWithRFP) []deadlineResponse {
	out := make([]deadlineResponse, 0, len(deadlines))
	for _, d := range deadlines {
		out = append(out, s.decorateDeadline(d))
	}
	return out
}

type deadlineRequest struct {
	RFPID     string  `json:"rfp_id"`
	Date      string  `json:"date"`
	Time      *string `json:"time"`
	Label     string  `json:"label"`
	Context   *string `json:"context"`
	Completed *bool   `json:"completed"`
}

// optString distinguishes an absent JSON field from an explicit null.
// encoding/json only calls UnmarshalJSON for keys present in the body, so
// Set stays false when the field was omitted.
type optString struct {
	Set   bool
	Value *string
}

func (o *optString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// deadlineUpdateRequest is the PATCH body. time and context are
// tri-state: omitted keeps the stored value, null clears it, a string
// replaces it. Clearing time demotes a timed deadline back to all-day.
type deadlineUpdateRequest struct {
	Date      string    `json:"date"`
	Time      optString `json:"time"`
	Label     string    `json:"label"`
	Context   optString `json:"context"`
	Completed *bool     `json:"completed"`
}

func deadlineUpdateParams(req deadlineUpdateRequest) db.UpdateDeadlineParams {
	params := db.UpdateDeadlineParams{
		SetTime:    req.Time.Set,
		Time:       req.Time.Value,
		SetContext: req.Context.Set,
		Context:    req.Context.Value,
		Completed:  req.Completed,
	}
	if req.Label != "" {
		label := req.Label
		params.Label = &label
	}
	return params
}

func validTime(t *string) bool {
	if t == nil {
		return true
	}
	_, err := time.Parse("15:04", *t)
	return err == nil
}

func (s *Server) handleListDeadlines(c echo.Context) error {
	deadlines, err := s.Store.ListDeadlines(c.Request().Context(), db.ListDeadlinesParams{
		RFPID:      c.QueryParam("rfp_id"),
		ActiveOnly: c.QueryParam("active") == "true",
	})
	if err != nil {
		c.Logger().Errorf("Failed to list deadlines: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, s.decorateDeadlines(deadlines))
}

func (s *Server) handleCreateDeadline(c echo.Context) error {
	var req deadlineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.RFPID == "" || req.Label == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "rfp_id and label are required"})
	}
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date, expected YYYY-MM-DD"})
	}
	if !validTime(req.Time) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid time, expected HH:MM"})
	}

	if _, err := s.Store.GetRFP(c.Request().Context(), req.RFPID); errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "RFP not found"})
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	deadline, err := s.Store.CreateDeadline(c.Request().Context(), db.CreateDeadlineParams{
		RFPID:   req.RFPID,
		Date:    date,
		Time:    req.Time,
		Label:   req.Label,
		Context: req.Context,
	})
	if err != nil {
		c.Logger().Errorf("Failed to create deadline: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusCreated, s.decorateDeadline(*deadline))
}

func (s *Server) handleGetDeadline(c echo.Context) error {
	deadline, err := s.Store.GetDeadline(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, s.decorateDeadline(*deadline))
}

func (s *Server) handleUpdateDeadline(c echo.Context) error {
	var req deadlineUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	params := deadlineUpdateParams(req)
	if req.Date != "" {
		date, err := civil.ParseDate(req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date, expected YYYY-MM-DD"})
		}
		params.Date = &date
	}
	if !validTime(req.Time.Value) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid time, expected HH:MM"})
	}

	deadline, err := s.Store.UpdateDeadline(c.Request().Context(), c.Param("id"), params)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		c.Logger().Errorf("Failed to update deadline: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, s.decorateDeadline(*deadline))
}

func (s *Server) handleDeleteDeadline(c echo.Context) error {
	err := s.Store.DeleteDeadline(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.NoContent(http.StatusNoContent)
}
