package api

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/rfp-tracker/internal/ai"
	"github.com/david/rfp-tracker/internal/auth"
	"github.com/david/rfp-tracker/internal/config"
	"github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/extract"
)

type Server struct {
	Echo     *echo.Echo
	Store    *db.Store
	AI       *ai.OpenAIClient
	Auth     *auth.Service
	Pipeline *extract.Pipeline
	Config   *config.Config

	// now is swappable for tests; urgency is always computed against it.
	now func() time.Time

	// oauthState holds the state issued by the latest connect redirect.
	// The callback consumes it, so each state is good for one exchange.
	mu         sync.Mutex
	oauthState string
}

func NewServer(pool *pgxpool.Pool, cfg *config.Config) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	store := db.NewStore(pool)
	aiClient := ai.NewOpenAIClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.EmbedModel)

	pipeline := extract.NewPipeline(aiClient, aiClient)
	if cfg.Extraction.MaxChunkChars > 0 {
		pipeline.MaxChunkChars = cfg.Extraction.MaxChunkChars
	}
	if cfg.Extraction.ChunkOverlap > 0 {
		pipeline.ChunkOverlap = cfg.Extraction.ChunkOverlap
	}

	s := &Server{
		Echo:     e,
		Store:    store,
		AI:       aiClient,
		Auth:     auth.NewService(store, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURI),
		Pipeline: pipeline,
		Config:   cfg,
		now:      time.Now,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")

	api.GET("/rfps", s.handleListRFPs)
	api.POST("/rfps", s.handleCreateRFP)
	api.GET("/rfps/:id", s.handleGetRFP)
	api.PATCH("/rfps/:id", s.handleUpdateRFP)
	api.DELETE("/rfps/:id", s.handleDeleteRFP)
	api.GET("/rfps/:id/documents", s.handleListDocuments)
	api.POST("/rfps/:id/upload", s.handleUpload)

	api.GET("/deadlines", s.handleListDeadlines)
	api.POST("/deadlines", s.handleCreateDeadline)
	api.GET("/deadlines/:id", s.handleGetDeadline)
	api.PATCH("/deadlines/:id", s.handleUpdateDeadline)
	api.DELETE("/deadlines/:id", s.handleDeleteDeadline)

	api.POST("/documents/:id/extract", s.handleExtract)

	api.GET("/export", s.handleExport)

	api.GET("/auth/google", s.handleGoogleAuth)
	api.GET("/auth/google/callback", s.handleGoogleCallback)
	api.GET("/auth/google/status", s.handleGoogleStatus)
	api.DELETE("/auth/google", s.handleGoogleDisconnect)

	api.POST("/deadlines/:id/calendar", s.handleSyncDeadline)
	api.DELETE("/deadlines/:id/calendar", s.handleUnsyncDeadline)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
