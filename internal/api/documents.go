package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/david/rfp-tracker/internal/civil"
	"github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/extract"
	"github.com/david/rfp-tracker/internal/parse"
)

func (s *Server) handleListDocuments(c echo.Context) error {
	if _, err := s.Store.GetRFP(c.Request().Context(), c.Param("id")); errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	docs, err := s.Store.ListDocuments(c.Request().Context(), c.Param("id"))
	if err != nil {
		c.Logger().Errorf("Failed to list documents: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, docs)
}

func (s *Server) handleUpload(c echo.Context) error {
	rfpID := c.Param("id")
	if _, err := s.Store.GetRFP(c.Request().Context(), rfpID); errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "RFP not found"})
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file field is required"})
	}

	maxBytes := s.Config.Uploads.MaxSizeMB * 1024 * 1024
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("File exceeds %d MB limit", s.Config.Uploads.MaxSizeMB),
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unable to read upload"})
	}
	defer src.Close()

	if err := os.MkdirAll(s.Config.Uploads.Dir, 0o755); err != nil {
		c.Logger().Errorf("Failed to create uploads dir: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	clean := sanitizeFilename(fileHeader.Filename)
	storedName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), clean)
	storedPath := filepath.Join(s.Config.Uploads.Dir, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		c.Logger().Errorf("Failed to store upload: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(storedPath)
		c.Logger().Errorf("Failed to store upload: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	doc, err := s.Store.CreateDocument(c.Request().Context(), db.CreateDocumentParams{
		RFPID:      rfpID,
		Filename:   clean,
		StoredPath: storedPath,
		MimeType:   detectMimeType(fileHeader.Header.Get(echo.HeaderContentType), clean),
		SizeBytes:  written,
	})
	if err != nil {
		os.Remove(storedPath)
		c.Logger().Errorf("Failed to record document: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusCreated, doc)
}

// handleExtract runs the extraction pipeline over an uploaded document and
// saves the resulting deadlines.
func (s *Server) handleExtract(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := s.Store.GetDocument(ctx, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	data, err := os.ReadFile(doc.StoredPath)
	if err != nil {
		c.Logger().Errorf("Failed to read stored document: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Stored document is unavailable"})
	}

	parsed, err := parse.ExtractText(data, doc.MimeType)
	if errors.Is(err, parse.ErrUnsupportedType) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	var candidates []extract.RawCandidate
	if parsed.IsImage {
		candidates, err = s.Pipeline.FromImage(ctx, data, doc.MimeType)
	} else {
		candidates, err = s.Pipeline.FromText(ctx, parsed.Text)
	}
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrInvalidChunkConfig):
			c.Logger().Errorf("Extraction misconfigured: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Extraction is misconfigured"})
		case errors.Is(err, extract.ErrExtractionFailed), errors.Is(err, extract.ErrMalformedOutput):
			return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		}
	}

	batch := candidatesToParams(doc.RFPID, candidates)
	if len(batch) == 0 {
		return c.JSON(http.StatusOK, []any{})
	}

	saved, err := s.Store.CreateDeadlines(ctx, batch)
	if err != nil {
		c.Logger().Errorf("Failed to save extracted deadlines: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusCreated, s.decorateDeadlines(saved))
}

// candidatesToParams validates model output before it reaches the database:
// candidates with unparseable dates are dropped, unparseable times are
// demoted to all-day.
func candidatesToParams(rfpID string, candidates []extract.RawCandidate) []db.CreateDeadlineParams {
	out := make([]db.CreateDeadlineParams, 0, len(candidates))
	for _, cand := range candidates {
		date, err := civil.ParseDate(cand.Date)
		if err != nil {
			log.Printf("Dropping candidate with invalid date %q (%s)", cand.Date, cand.Label)
			continue
		}

		params := db.CreateDeadlineParams{
			RFPID: rfpID,
			Date:  date,
			Label: cand.Label,
		}
		if params.Label == "" {
			params.Label = "Deadline"
		}
		if cand.Time != "" {
			if _, err := time.Parse("15:04", cand.Time); err == nil {
				t := cand.Time
				params.Time = &t
			} else {
				log.Printf("Dropping invalid time %q on candidate %s", cand.Time, cand.Label)
			}
		}
		if cand.Context != "" {
			ctx := cand.Context
			params.Context = &ctx
		}
		out = append(out, params)
	}
	return out
}

// sanitizeFilename keeps a conservative character set so stored names are
// safe on any filesystem.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" || strings.Trim(out, "._-") == "" {
		return "upload"
	}
	return out
}

func detectMimeType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		// Strip parameters like "; charset=utf-8".
		if t, _, err := mime.ParseMediaType(declared); err == nil {
			return t
		}
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		if t, _, err := mime.ParseMediaType(byExt); err == nil {
			return t
		}
	}
	return "application/octet-stream"
}
