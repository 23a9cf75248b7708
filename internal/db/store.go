package db

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pgvector/pgvector-go"

	"github.com/david/rfp-tracker/internal/civil"
	"github.com/david/rfp-tracker/internal/models"
)

var ErrNotFound = errors.New("not found")

// textPolicy strips all markup from user-provided text before it is
// persisted. Extracted document text passes through here too.
var textPolicy = bluemonday.StrictPolicy()

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func sanitizeText(s string) string {
	clean := textPolicy.Sanitize(s)
	// The policy escapes entities in text nodes; undo that so plain text
	// like "R&D" is stored as typed.
	clean = html.UnescapeString(clean)
	return strings.TrimSpace(strings.ToValidUTF8(clean, ""))
}

func sanitizeTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// ---- RFPs ----

const rfpCols = `id, name, issuer, description, status, notes, created_at, updated_at`

func scanRFP(scan func(dest ...any) error) (models.RFP, error) {
	var r models.RFP
	err := scan(&r.ID, &r.Name, &r.Issuer, &r.Description, &r.Status, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateRFPParams struct {
	Name        string
	Issuer      *string
	Description *string
	Notes       *string
	Embedding   []float32
}

func (s *Store) CreateRFP(ctx context.Context, params CreateRFPParams) (*models.RFP, error) {
	var embedding any
	if len(params.Embedding) > 0 {
		embedding = pgvector.NewVector(params.Embedding)
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO rfps (name, issuer, description, notes, embedding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, rfpCols),
		sanitizeText(params.Name),
		sanitizeTextPtr(params.Issuer),
		sanitizeTextPtr(params.Description),
		sanitizeTextPtr(params.Notes),
		embedding,
	)

	r, err := scanRFP(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("insert rfp failed: %w", err)
	}
	return &r, nil
}

type ListRFPsParams struct {
	Query          string
	QueryEmbedding []float32
	Status         string // "", a concrete status, or "all"
}

// ListRFPs returns RFPs newest-first. With a query embedding, results are
// ordered by cosine similarity instead; a bare query falls back to ILIKE.
func (s *Store) ListRFPs(ctx context.Context, params ListRFPsParams) ([]models.RFP, error) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if params.Status != "" && params.Status != "all" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.Query != "" && len(params.QueryEmbedding) == 0 {
		where += fmt.Sprintf(" AND (name ILIKE '%%' || $%d || '%%' OR issuer ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", argIdx, argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}

	sql := fmt.Sprintf("SELECT %s FROM rfps %s", rfpCols, where)
	if len(params.QueryEmbedding) > 0 {
		sql += fmt.Sprintf(`
			ORDER BY
				CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC,
				COALESCE(1 - (embedding <=> $%d), -1) DESC,
				updated_at DESC
		`, argIdx)
		args = append(args, pgvector.NewVector(params.QueryEmbedding))
	} else {
		sql += " ORDER BY updated_at DESC, created_at DESC"
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	rfps := []models.RFP{}
	for rows.Next() {
		r, err := scanRFP(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		rfps = append(rfps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return rfps, nil
}

func (s *Store) GetRFP(ctx context.Context, id string) (*models.RFP, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM rfps WHERE id = $1", rfpCols), id)
	r, err := scanRFP(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rfp %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get rfp failed: %w", err)
	}
	return &r, nil
}

type UpdateRFPParams struct {
	Name        *string
	Issuer      *string
	Description *string
	Status      *string
	Notes       *string
	Embedding   []float32
}

// UpdateRFP applies a partial update; nil fields are left untouched.
func (s *Store) UpdateRFP(ctx context.Context, id string, params UpdateRFPParams) (*models.RFP, error) {
	sets := []string{"updated_at = NOW()"}
	var args []any
	argIdx := 1

	addSet := func(col string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Name != nil {
		addSet("name", sanitizeText(*params.Name))
	}
	if params.Issuer != nil {
		addSet("issuer", sanitizeTextPtr(params.Issuer))
	}
	if params.Description != nil {
		addSet("description", sanitizeTextPtr(params.Description))
	}
	if params.Status != nil {
		addSet("status", *params.Status)
	}
	if params.Notes != nil {
		addSet("notes", sanitizeTextPtr(params.Notes))
	}
	if len(params.Embedding) > 0 {
		addSet("embedding", pgvector.NewVector(params.Embedding))
	}

	sql := fmt.Sprintf("UPDATE rfps SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), argIdx, rfpCols)
	args = append(args, id)

	row := s.pool.QueryRow(ctx, sql, args...)
	r, err := scanRFP(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rfp %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update rfp failed: %w", err)
	}
	return &r, nil
}

func (s *Store) DeleteRFP(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM rfps WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete rfp failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rfp %s: %w", id, ErrNotFound)
	}
	return nil
}

// ---- Deadlines ----

const deadlineCols = `d.id, d.rfp_id, d.date, d.time, d.label, d.context,
	d.completed, d.google_event_id, d.created_at, d.updated_at, r.name, r.status`

func scanDeadline(scan func(dest ...any) error) (models.DeadlineWithRFP, error) {
	var d models.DeadlineWithRFP
	var date time.Time
	err := scan(&d.ID, &d.RFPID, &date, &d.Time, &d.Label, &d.Context,
		&d.Completed, &d.GoogleEventID, &d.CreatedAt, &d.UpdatedAt, &d.RFPName, &d.RFPStatus)
	if err != nil {
		return d, err
	}
	d.Date = civil.DateOf(date)
	return d, nil
}

type CreateDeadlineParams struct {
	RFPID   string
	Date    civil.Date
	Time    *string
	Label   string
	Context *string
}

func (s *Store) CreateDeadline(ctx context.Context, params CreateDeadlineParams) (*models.DeadlineWithRFP, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO deadlines (rfp_id, date, time, label, context)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		params.RFPID,
		params.Date.String(),
		params.Time,
		sanitizeText(params.Label),
		sanitizeTextPtr(params.Context),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert deadline failed: %w", err)
	}

	return s.GetDeadline(ctx, id)
}

// CreateDeadlines inserts a batch inside one transaction, so a half-saved
// extraction result never leaks into the database.
func (s *Store) CreateDeadlines(ctx context.Context, batch []CreateDeadlineParams) ([]models.DeadlineWithRFP, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, len(batch))
	for i, params := range batch {
		var id string
		err := tx.QueryRow(ctx, `
			INSERT INTO deadlines (rfp_id, date, time, label, context)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`,
			params.RFPID,
			params.Date.String(),
			params.Time,
			sanitizeText(params.Label),
			sanitizeTextPtr(params.Context),
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert deadline %d failed: %w", i, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}

	out := make([]models.DeadlineWithRFP, 0, len(ids))
	for _, id := range ids {
		d, err := s.GetDeadline(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

type ListDeadlinesParams struct {
	RFPID string
	// ActiveOnly keeps incomplete deadlines on active RFPs, the set that
	// bulk calendar export uses.
	ActiveOnly bool
}

func (s *Store) ListDeadlines(ctx context.Context, params ListDeadlinesParams) ([]models.DeadlineWithRFP, error) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if params.RFPID != "" {
		where += fmt.Sprintf(" AND d.rfp_id = $%d", argIdx)
		args = append(args, params.RFPID)
		argIdx++
	}
	if params.ActiveOnly {
		where += fmt.Sprintf(" AND d.completed = FALSE AND r.status = $%d", argIdx)
		args = append(args, models.StatusActive)
		argIdx++
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM deadlines d
		JOIN rfps r ON r.id = d.rfp_id
		%s
		ORDER BY d.date ASC, d.time ASC NULLS LAST, d.created_at ASC
	`, deadlineCols, where)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	deadlines := []models.DeadlineWithRFP{}
	for rows.Next() {
		d, err := scanDeadline(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return deadlines, nil
}

func (s *Store) GetDeadline(ctx context.Context, id string) (*models.DeadlineWithRFP, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM deadlines d
		JOIN rfps r ON r.id = d.rfp_id
		WHERE d.id = $1
	`, deadlineCols)

	d, err := scanDeadline(s.pool.QueryRow(ctx, sql, id).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deadline %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get deadline failed: %w", err)
	}
	return &d, nil
}

type UpdateDeadlineParams struct {
	Date *civil.Date

	// Time and Context carry a Set flag so callers can distinguish "leave
	// alone" from "clear": Set with a nil value nulls the column, which is
	// how a timed deadline is demoted back to all-day.
	SetTime    bool
	Time       *string
	SetContext bool
	Context    *string

	Label     *string
	Completed *bool
}

// UpdateDeadline applies a partial update; unset fields are left untouched.
func (s *Store) UpdateDeadline(ctx context.Context, id string, params UpdateDeadlineParams) (*models.DeadlineWithRFP, error) {
	sets := []string{"updated_at = NOW()"}
	var args []any
	argIdx := 1

	addSet := func(col string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Date != nil {
		addSet("date", params.Date.String())
	}
	if params.SetTime {
		addSet("time", params.Time)
	}
	if params.Label != nil {
		addSet("label", sanitizeText(*params.Label))
	}
	if params.SetContext {
		addSet("context", sanitizeTextPtr(params.Context))
	}
	if params.Completed != nil {
		addSet("completed", *params.Completed)
	}

	sql := fmt.Sprintf("UPDATE deadlines SET %s WHERE id = $%d RETURNING id",
		strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	var updated string
	err := s.pool.QueryRow(ctx, sql, args...).Scan(&updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deadline %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update deadline failed: %w", err)
	}

	return s.GetDeadline(ctx, updated)
}

// SetDeadlineGoogleEventID records (or clears, with nil) the linked
// Google Calendar event.
func (s *Store) SetDeadlineGoogleEventID(ctx context.Context, id string, eventID *string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE deadlines SET google_event_id = $1, updated_at = NOW() WHERE id = $2", eventID, id)
	if err != nil {
		return fmt.Errorf("set google event id failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deadline %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteDeadline(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM deadlines WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete deadline failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deadline %s: %w", id, ErrNotFound)
	}
	return nil
}

// ---- Documents ----

type CreateDocumentParams struct {
	RFPID      string
	Filename   string
	StoredPath string
	MimeType   string
	SizeBytes  int64
}

func (s *Store) CreateDocument(ctx context.Context, params CreateDocumentParams) (*models.Document, error) {
	var doc models.Document
	err := s.pool.QueryRow(ctx, `
		INSERT INTO documents (rfp_id, filename, stored_path, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, rfp_id, filename, stored_path, mime_type, size_bytes, uploaded_at
	`, params.RFPID, params.Filename, params.StoredPath, params.MimeType, params.SizeBytes).Scan(
		&doc.ID, &doc.RFPID, &doc.Filename, &doc.StoredPath, &doc.MimeType, &doc.SizeBytes, &doc.UploadedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document failed: %w", err)
	}
	return &doc, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, rfp_id, filename, stored_path, mime_type, size_bytes, uploaded_at
		FROM documents WHERE id = $1
	`, id).Scan(&doc.ID, &doc.RFPID, &doc.Filename, &doc.StoredPath, &doc.MimeType, &doc.SizeBytes, &doc.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, rfpID string) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, rfp_id, filename, stored_path, mime_type, size_bytes, uploaded_at
		FROM documents WHERE rfp_id = $1
		ORDER BY uploaded_at DESC
	`, rfpID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.RFPID, &doc.Filename, &doc.StoredPath, &doc.MimeType, &doc.SizeBytes, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return docs, nil
}

// ---- Google auth ----

func (s *Store) UpsertGoogleAuth(ctx context.Context, auth models.GoogleAuth) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO google_auth (id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN google_auth.refresh_token ELSE EXCLUDED.refresh_token END,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = NOW()
	`, auth.AccessToken, auth.RefreshToken, auth.TokenType, auth.Expiry)
	if err != nil {
		return fmt.Errorf("upsert google auth failed: %w", err)
	}
	return nil
}

func (s *Store) GetGoogleAuth(ctx context.Context) (*models.GoogleAuth, error) {
	var auth models.GoogleAuth
	err := s.pool.QueryRow(ctx, `
		SELECT id, access_token, refresh_token, token_type, expiry, updated_at
		FROM google_auth WHERE id = 1
	`).Scan(&auth.ID, &auth.AccessToken, &auth.RefreshToken, &auth.TokenType, &auth.Expiry, &auth.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("google auth: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get google auth failed: %w", err)
	}
	return &auth, nil
}

func (s *Store) DeleteGoogleAuth(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM google_auth WHERE id = 1"); err != nil {
		return fmt.Errorf("delete google auth failed: %w", err)
	}
	return nil
}
