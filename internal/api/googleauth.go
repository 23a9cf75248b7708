package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/david/rfp-tracker/internal/auth"
	"github.com/david/rfp-tracker/internal/calendar"
	"github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/models"
)

func (s *Server) handleGoogleAuth(c echo.Context) error {
	state, err := randomState()
	if err != nil {
		c.Logger().Errorf("Failed to generate oauth state: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	s.mu.Lock()
	s.oauthState = state
	s.mu.Unlock()

	return c.Redirect(http.StatusFound, s.Auth.AuthURL(state))
}

func (s *Server) handleGoogleCallback(c echo.Context) error {
	s.mu.Lock()
	state := s.oauthState
	s.oauthState = ""
	s.mu.Unlock()

	if state == "" || c.QueryParam("state") != state {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid state"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing authorization code"})
	}

	if err := s.Auth.HandleCallback(c.Request().Context(), code); err != nil {
		c.Logger().Errorf("Google callback failed: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Authorization failed"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Google Calendar connected"})
}

func (s *Server) handleGoogleStatus(c echo.Context) error {
	status, err := s.Auth.Status(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to read auth status: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleGoogleDisconnect(c echo.Context) error {
	if err := s.Auth.Disconnect(c.Request().Context()); err != nil {
		c.Logger().Errorf("Failed to disconnect: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSyncDeadline pushes one deadline to Google Calendar, creating or
// updating its linked event.
func (s *Server) handleSyncDeadline(c echo.Context) error {
	ctx := c.Request().Context()

	deadline, err := s.Store.GetDeadline(ctx, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	events, err := calendar.BuildEvents(toCalendarDeadlines([]models.DeadlineWithRFP{*deadline}))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	httpClient, err := s.Auth.HTTPClient(ctx)
	if errors.Is(err, auth.ErrNotConnected) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Google Calendar is not connected"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	gc, err := calendar.NewGoogleClient(ctx, httpClient)
	if err != nil {
		c.Logger().Errorf("Failed to build calendar client: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Google Calendar is unavailable"})
	}

	if deadline.GoogleEventID != nil {
		if err := gc.UpdateEvent(ctx, *deadline.GoogleEventID, events[0]); err != nil {
			c.Logger().Errorf("Failed to update calendar event: %v", err)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "Calendar update failed"})
		}
		return c.JSON(http.StatusOK, map[string]string{"event_id": *deadline.GoogleEventID})
	}

	eventID, err := gc.InsertEvent(ctx, events[0])
	if err != nil {
		c.Logger().Errorf("Failed to insert calendar event: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Calendar insert failed"})
	}
	if err := s.Store.SetDeadlineGoogleEventID(ctx, deadline.ID, &eventID); err != nil {
		c.Logger().Errorf("Failed to record event id: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusCreated, map[string]string{"event_id": eventID})
}

// handleUnsyncDeadline removes the linked Google Calendar event.
func (s *Server) handleUnsyncDeadline(c echo.Context) error {
	ctx := c.Request().Context()

	deadline, err := s.Store.GetDeadline(ctx, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if deadline.GoogleEventID == nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Deadline has no linked calendar event"})
	}

	httpClient, err := s.Auth.HTTPClient(ctx)
	if errors.Is(err, auth.ErrNotConnected) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Google Calendar is not connected"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	gc, err := calendar.NewGoogleClient(ctx, httpClient)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Google Calendar is unavailable"})
	}

	if err := gc.DeleteEvent(ctx, *deadline.GoogleEventID); err != nil {
		c.Logger().Errorf("Failed to delete calendar event: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Calendar delete failed"})
	}
	if err := s.Store.SetDeadlineGoogleEventID(ctx, deadline.ID, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.NoContent(http.StatusNoContent)
}
