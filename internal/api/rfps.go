package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/models"
)

type rfpRequest struct {
	Name        string  `json:"name"`
	Issuer      *string `json:"issuer"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

func (s *Server) handleListRFPs(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	status := c.QueryParam("status")
	if status != "" && status != "all" && !models.IsValidStatus(status) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status"})
	}

	// Semantic search over RFP embeddings; keyword search is the fallback
	// when the embedding call fails.
	var queryEmbedding []float32
	if q != "" {
		aiCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		vec, err := s.AI.GenerateEmbedding(aiCtx, q)
		if err != nil {
			c.Logger().Errorf("Failed to generate query embedding: %v", err)
		} else {
			queryEmbedding = vec
		}
	}

	rfps, err := s.Store.ListRFPs(c.Request().Context(), db.ListRFPsParams{
		Query:          q,
		QueryEmbedding: queryEmbedding,
		Status:         status,
	})
	if err != nil {
		c.Logger().Errorf("Failed to list RFPs: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, rfps)
}

func (s *Server) handleCreateRFP(c echo.Context) error {
	var req rfpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Name is required"})
	}

	// Embed the RFP so it is reachable by semantic search. Creation must
	// not fail on an embedding outage.
	var embedding []float32
	aiCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if vec, err := s.AI.GenerateEmbedding(aiCtx, embeddingInput(req)); err != nil {
		c.Logger().Errorf("Failed to embed RFP: %v", err)
	} else {
		embedding = vec
	}

	rfp, err := s.Store.CreateRFP(c.Request().Context(), db.CreateRFPParams{
		Name:        req.Name,
		Issuer:      req.Issuer,
		Description: req.Description,
		Notes:       req.Notes,
		Embedding:   embedding,
	})
	if err != nil {
		c.Logger().Errorf("Failed to create RFP: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusCreated, rfp)
}

func embeddingInput(req rfpRequest) string {
	parts := []string{req.Name}
	if req.Issuer != nil {
		parts = append(parts, *req.Issuer)
	}
	if req.Description != nil {
		parts = append(parts, *req.Description)
	}
	return strings.Join(parts, "\n")
}

func (s *Server) handleGetRFP(c echo.Context) error {
	rfp, err := s.Store.GetRFP(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, rfp)
}

func (s *Server) handleUpdateRFP(c echo.Context) error {
	var req rfpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Status != nil && !models.IsValidStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status"})
	}

	params := db.UpdateRFPParams{
		Issuer:      req.Issuer,
		Description: req.Description,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if strings.TrimSpace(req.Name) != "" {
		params.Name = &req.Name
	}

	rfp, err := s.Store.UpdateRFP(c.Request().Context(), c.Param("id"), params)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		c.Logger().Errorf("Failed to update RFP: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, rfp)
}

func (s *Server) handleDeleteRFP(c echo.Context) error {
	err := s.Store.DeleteRFP(c.Request().Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.NoContent(http.StatusNoContent)
}
