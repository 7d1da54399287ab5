package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"archon/internal/archonerr"
	"archon/internal/logging"
)

// PostgresStore is the Store implementation backed by the catalog schema,
// grounded on UserDB's and sefii.Engine's pgx usage: a pooled connection,
// idempotent schema creation, and a small retry wrapper around transient
// connection errors.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to connStr and ensures the catalog schema exists.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect catalog database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

// execWithRetry retries transient connection failures, mirroring
// internal/sefii/engine.go's execWithRetry (3 attempts, linear backoff).
func execWithRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		logging.Log.WithError(err).Warnf("catalog op failed, attempt %d/3", attempt)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return err
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id BIGSERIAL PRIMARY KEY,
			root_path TEXT NOT NULL,
			status TEXT NOT NULL,
			total_files INT NOT NULL DEFAULT 0,
			processed_files INT NOT NULL DEFAULT 0,
			failed_files INT NOT NULL DEFAULT 0,
			embeddings_enabled BOOLEAN NOT NULL DEFAULT false,
			task_handle TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			fatal_error_message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			scan_id BIGINT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
			file_path TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			text_content TEXT NOT NULL DEFAULT '',
			text_length INT NOT NULL DEFAULT 0,
			has_ocr BOOLEAN NOT NULL DEFAULT false,
			archive_path TEXT,
			hash_md5 TEXT,
			hash_sha256 TEXT,
			file_modified_at TIMESTAMPTZ,
			indexed_at TIMESTAMPTZ,
			lexical_ref TEXT,
			vector_refs JSONB NOT NULL DEFAULT '[]',
			UNIQUE(scan_id, file_path)
		)`,
		`CREATE TABLE IF NOT EXISTS scan_errors (
			id BIGSERIAL PRIMARY KEY,
			scan_id BIGINT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
			file_path TEXT NOT NULL,
			error_type TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			type TEXT NOT NULL,
			count INT NOT NULL DEFAULT 1,
			start_char INT,
			UNIQUE(document_id, text, type)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_entries (
			id BIGSERIAL PRIMARY KEY,
			action TEXT NOT NULL,
			document_id BIGINT,
			scan_id BIGINT,
			details TEXT NOT NULL DEFAULT '',
			user_ip TEXT NOT NULL DEFAULT '',
			entry_hash TEXT NOT NULL,
			previous_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if err := execWithRetry(ctx, func() error {
			_, err := s.pool.Exec(ctx, stmt)
			return err
		}); err != nil {
			return fmt.Errorf("ensure catalog schema: %w", err)
		}
	}
	return nil
}

// --- Scans ---

func (s *PostgresStore) CreateScan(ctx context.Context, rootPath string, embeddingsEnabled bool) (*Scan, error) {
	scan := &Scan{RootPath: rootPath, Status: ScanPending, EmbeddingsEnabled: embeddingsEnabled}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scans (root_path, status, embeddings_enabled) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		rootPath, ScanPending, embeddingsEnabled,
	).Scan(&scan.ID, &scan.CreatedAt)
	if err != nil {
		return nil, archonerr.Internal(err, "create scan")
	}
	return scan, nil
}

func (s *PostgresStore) GetScan(ctx context.Context, id int64) (*Scan, error) {
	return s.scanFromRow(s.pool.QueryRow(ctx, scanSelect+` WHERE id = $1`, id))
}

func (s *PostgresStore) FindPendingOrRunningScanByPath(ctx context.Context, rootPath string) (*Scan, error) {
	scan, err := s.scanFromRow(s.pool.QueryRow(ctx,
		scanSelect+` WHERE root_path = $1 AND status IN ('pending','running') ORDER BY id DESC LIMIT 1`, rootPath))
	if errors.Is(err, pgx.ErrNoRows) || archonerr.KindOf(err) == archonerr.KindNotFound {
		return nil, nil
	}
	return scan, err
}

const scanSelect = `SELECT id, root_path, status, total_files, processed_files, failed_files,
	embeddings_enabled, COALESCE(task_handle, ''), created_at, started_at, completed_at,
	COALESCE(fatal_error_message, '') FROM scans`

func (s *PostgresStore) scanFromRow(row pgx.Row) (*Scan, error) {
	var sc Scan
	err := row.Scan(&sc.ID, &sc.RootPath, &sc.Status, &sc.TotalFiles, &sc.ProcessedFiles,
		&sc.FailedFiles, &sc.EmbeddingsEnabled, &sc.TaskHandle, &sc.CreatedAt, &sc.StartedAt,
		&sc.CompletedAt, &sc.FatalErrorMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, archonerr.NotFound("scan not found")
	}
	if err != nil {
		return nil, archonerr.Internal(err, "read scan")
	}
	return &sc, nil
}

func (s *PostgresStore) ListScans(ctx context.Context) ([]*Scan, error) {
	rows, err := s.pool.Query(ctx, scanSelect+` ORDER BY id DESC`)
	if err != nil {
		return nil, archonerr.Internal(err, "list scans")
	}
	defer rows.Close()
	var out []*Scan
	for rows.Next() {
		sc, err := s.scanFromRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateScan(ctx context.Context, sc *Scan) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE scans SET status=$2, total_files=$3, processed_files=$4, failed_files=$5,
		 task_handle=$6, started_at=$7, completed_at=$8, fatal_error_message=$9 WHERE id=$1`,
		sc.ID, sc.Status, sc.TotalFiles, sc.ProcessedFiles, sc.FailedFiles, sc.TaskHandle,
		sc.StartedAt, sc.CompletedAt, sc.FatalErrorMessage,
	)
	if err != nil {
		return archonerr.Internal(err, "update scan")
	}
	return nil
}

func (s *PostgresStore) DeleteScan(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE id = $1`, id)
	if err != nil {
		return archonerr.Internal(err, "delete scan")
	}
	return nil
}

// --- Documents ---

func (s *PostgresStore) CreateDocument(ctx context.Context, d *Document) (*Document, error) {
	refs, _ := json.Marshal(d.VectorRefs)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (scan_id, file_path, file_name, file_type, file_size, text_content,
			text_length, has_ocr, archive_path, hash_md5, hash_sha256, file_modified_at, indexed_at,
			lexical_ref, vector_refs)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 RETURNING id`,
		d.ScanID, d.FilePath, d.FileName, d.FileType, d.FileSize, d.TextContent, d.TextLength,
		d.HasOCR, nullable(d.ArchivePath), nullable(d.HashMD5), nullable(d.HashSHA256),
		nullableTime(d.FileModifiedAt), nullableTime(d.IndexedAt), nullable(d.LexicalRef), refs,
	).Scan(&d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, archonerr.Conflict("document already exists for scan %d path %s", d.ScanID, d.FilePath)
		}
		return nil, archonerr.Internal(err, "create document")
	}
	return d, nil
}

const documentSelect = `SELECT id, scan_id, file_path, file_name, file_type, file_size, text_content,
	text_length, has_ocr, COALESCE(archive_path,''), COALESCE(hash_md5,''), COALESCE(hash_sha256,''),
	file_modified_at, indexed_at, COALESCE(lexical_ref,''), vector_refs FROM documents`

func (s *PostgresStore) docFromRow(row pgx.Row) (*Document, error) {
	var d Document
	var refs []byte
	var fileModified, indexed *time.Time
	err := row.Scan(&d.ID, &d.ScanID, &d.FilePath, &d.FileName, &d.FileType, &d.FileSize,
		&d.TextContent, &d.TextLength, &d.HasOCR, &d.ArchivePath, &d.HashMD5, &d.HashSHA256,
		&fileModified, &indexed, &d.LexicalRef, &refs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, archonerr.NotFound("document not found")
	}
	if err != nil {
		return nil, archonerr.Internal(err, "read document")
	}
	if fileModified != nil {
		d.FileModifiedAt = *fileModified
	}
	if indexed != nil {
		d.IndexedAt = *indexed
	}
	_ = json.Unmarshal(refs, &d.VectorRefs)
	return &d, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id int64) (*Document, error) {
	return s.docFromRow(s.pool.QueryRow(ctx, documentSelect+` WHERE id = $1`, id))
}

func (s *PostgresStore) GetDocumentByPath(ctx context.Context, scanID int64, filePath string) (*Document, error) {
	d, err := s.docFromRow(s.pool.QueryRow(ctx, documentSelect+` WHERE scan_id = $1 AND file_path = $2`, scanID, filePath))
	if archonerr.KindOf(err) == archonerr.KindNotFound {
		return nil, nil
	}
	return d, err
}

func (s *PostgresStore) ListDocumentsByScan(ctx context.Context, scanID int64) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, documentSelect+` WHERE scan_id = $1 ORDER BY id`, scanID)
	if err != nil {
		return nil, archonerr.Internal(err, "list documents")
	}
	defer rows.Close()
	var out []*Document
	for rows.Next() {
		d, err := s.docFromRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, d *Document) error {
	refs, _ := json.Marshal(d.VectorRefs)
	_, err := s.pool.Exec(ctx,
		`UPDATE documents SET text_content=$2, text_length=$3, has_ocr=$4, hash_md5=$5,
		 hash_sha256=$6, indexed_at=$7, lexical_ref=$8, vector_refs=$9 WHERE id=$1`,
		d.ID, d.TextContent, d.TextLength, d.HasOCR, nullable(d.HashMD5), nullable(d.HashSHA256),
		nullableTime(d.IndexedAt), nullable(d.LexicalRef), refs,
	)
	if err != nil {
		return archonerr.Internal(err, "update document")
	}
	return nil
}

func (s *PostgresStore) DeleteDocumentsByScan(ctx context.Context, scanID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE scan_id = $1`, scanID)
	if err != nil {
		return archonerr.Internal(err, "delete documents by scan")
	}
	return nil
}

// --- Scan errors ---

func (s *PostgresStore) RecordScanError(ctx context.Context, e *ScanError) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scan_errors (scan_id, file_path, error_type, message) VALUES ($1,$2,$3,$4)
		 RETURNING id, created_at`,
		e.ScanID, e.FilePath, e.ErrorType, e.Message,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return archonerr.Internal(err, "record scan error")
	}
	return nil
}

func (s *PostgresStore) ListScanErrors(ctx context.Context, scanID int64, limit int) ([]*ScanError, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scan_id, file_path, error_type, message, created_at FROM scan_errors
		 WHERE scan_id = $1 ORDER BY id DESC LIMIT $2`, scanID, limit)
	if err != nil {
		return nil, archonerr.Internal(err, "list scan errors")
	}
	defer rows.Close()
	var out []*ScanError
	for rows.Next() {
		var e ScanError
		if err := rows.Scan(&e.ID, &e.ScanID, &e.FilePath, &e.ErrorType, &e.Message, &e.CreatedAt); err != nil {
			return nil, archonerr.Internal(err, "scan scan_error row")
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- Entities ---

func (s *PostgresStore) UpsertEntity(ctx context.Context, e *Entity) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO entities (document_id, text, type, count, start_char)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (document_id, text, type) DO UPDATE SET count = entities.count + EXCLUDED.count
		 RETURNING id`,
		e.DocumentID, e.Text, e.Type, e.Count, e.StartChar,
	).Scan(&e.ID)
	if err != nil {
		return archonerr.Internal(err, "upsert entity")
	}
	return nil
}

func (s *PostgresStore) ListEntitiesByDocument(ctx context.Context, documentID int64) ([]*Entity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, text, type, count, start_char FROM entities WHERE document_id = $1 ORDER BY count DESC`,
		documentID)
	if err != nil {
		return nil, archonerr.Internal(err, "list entities")
	}
	defer rows.Close()
	var out []*Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Text, &e.Type, &e.Count, &e.StartChar); err != nil {
			return nil, archonerr.Internal(err, "scan entity row")
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListEntityTypes(ctx context.Context) ([]EntityType, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT type FROM entities ORDER BY type`)
	if err != nil {
		return nil, archonerr.Internal(err, "list entity types")
	}
	defer rows.Close()
	var out []EntityType
	for rows.Next() {
		var t EntityType
		if err := rows.Scan(&t); err != nil {
			return nil, archonerr.Internal(err, "scan entity type")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) EntityGraph(ctx context.Context, filter EntityGraphFilter) ([]EntityCooccurrence, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query := `
		SELECT a.text, b.text, COUNT(*) AS weight
		FROM entities a
		JOIN entities b ON a.document_id = b.document_id AND a.text < b.text
		JOIN documents d ON d.id = a.document_id
		WHERE a.count >= $1 AND b.count >= $1`
	args := []any{filter.MinCount}
	argN := 2
	if filter.EntityType != nil {
		query += fmt.Sprintf(" AND a.type = $%d", argN)
		args = append(args, *filter.EntityType)
		argN++
	}
	if filter.ProjectPath != "" {
		query += fmt.Sprintf(" AND d.file_path LIKE $%d", argN)
		args = append(args, filter.ProjectPath+"%")
		argN++
	}
	if filter.Focus != "" {
		query += fmt.Sprintf(" AND (a.text = $%d OR b.text = $%d)", argN, argN)
		args = append(args, filter.Focus)
		argN++
	}
	query += fmt.Sprintf(" GROUP BY a.text, b.text ORDER BY weight DESC LIMIT $%d", argN)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, archonerr.Internal(err, "entity graph query")
	}
	defer rows.Close()
	var out []EntityCooccurrence
	for rows.Next() {
		var c EntityCooccurrence
		if err := rows.Scan(&c.EntityA, &c.EntityB, &c.Weight); err != nil {
			return nil, archonerr.Internal(err, "scan entity graph row")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MergeEntities folds every occurrence of fromText into toText (§6 POST
// /entities/merge), e.g. reconciling "J. Smith" and "John Smith" into one
// analyst-chosen canonical label. Per-document collisions (toText already
// present for the same document+type) fold counts together instead of
// violating the (document_id, text, type) uniqueness UpsertEntity relies on.
func (s *PostgresStore) MergeEntities(ctx context.Context, fromText, toText string) (int64, error) {
	if _, err := s.pool.Exec(ctx, `
		UPDATE entities a
		SET count = a.count + b.count
		FROM entities b
		WHERE a.text = $2 AND b.text = $1
		  AND a.document_id = b.document_id AND a.type = b.type`,
		fromText, toText); err != nil {
		return 0, archonerr.Internal(err, "merge entity counts")
	}
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM entities a USING entities b
		WHERE a.text = $1 AND b.text = $2
		  AND a.document_id = b.document_id AND a.type = b.type`,
		fromText, toText); err != nil {
		return 0, archonerr.Internal(err, "delete merged entity duplicates")
	}
	tag, err := s.pool.Exec(ctx, `UPDATE entities SET text = $2 WHERE text = $1`, fromText, toText)
	if err != nil {
		return 0, archonerr.Internal(err, "rename merged entities")
	}
	return tag.RowsAffected(), nil
}

// --- Audit ---

func (s *PostgresStore) AppendAudit(ctx context.Context, e *AuditEntry) (*AuditEntry, error) {
	// created_at is passed in explicitly (not DEFAULT now()): Chain.Append
	// already folded this exact timestamp into entry_hash, so the stored
	// and hashed values must match exactly or VerifyChain recomputes a
	// different hash from every row and reports tampering that never
	// happened.
	err := s.pool.QueryRow(ctx,
		`INSERT INTO audit_entries (action, document_id, scan_id, details, user_ip, entry_hash, previous_hash, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		e.Action, e.DocumentID, e.ScanID, e.Details, e.UserIP, e.EntryHash, e.PreviousHash, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return nil, archonerr.Internal(err, "append audit entry")
	}
	return e, nil
}

func (s *PostgresStore) LastAuditEntry(ctx context.Context) (*AuditEntry, error) {
	e, err := s.auditFromRow(s.pool.QueryRow(ctx, auditSelect+` ORDER BY id DESC LIMIT 1`))
	if archonerr.KindOf(err) == archonerr.KindNotFound {
		return nil, nil
	}
	return e, err
}

const auditSelect = `SELECT id, action, document_id, scan_id, details, user_ip, entry_hash, previous_hash, created_at FROM audit_entries`

func (s *PostgresStore) auditFromRow(row pgx.Row) (*AuditEntry, error) {
	var e AuditEntry
	err := row.Scan(&e.ID, &e.Action, &e.DocumentID, &e.ScanID, &e.Details, &e.UserIP,
		&e.EntryHash, &e.PreviousHash, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, archonerr.NotFound("no audit entries")
	}
	if err != nil {
		return nil, archonerr.Internal(err, "read audit entry")
	}
	return &e, nil
}

func (s *PostgresStore) ListAudit(ctx context.Context, limit, offset int) ([]*AuditEntry, error) {
	rows, err := s.pool.Query(ctx, auditSelect+` ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, archonerr.Internal(err, "list audit entries")
	}
	defer rows.Close()
	var out []*AuditEntry
	for rows.Next() {
		e, err := s.auditFromRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListAuditByDocument(ctx context.Context, documentID int64) ([]*AuditEntry, error) {
	rows, err := s.pool.Query(ctx, auditSelect+` WHERE document_id = $1 ORDER BY id`, documentID)
	if err != nil {
		return nil, archonerr.Internal(err, "list audit by document")
	}
	defer rows.Close()
	var out []*AuditEntry
	for rows.Next() {
		e, err := s.auditFromRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, role) VALUES ($1,$2,$3,$4,$5)
		 RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return archonerr.Conflict("username or email already exists")
		}
		return archonerr.Internal(err, "create user")
	}
	return nil
}

const userSelect = `SELECT id, username, email, password_hash, role, created_at, updated_at FROM users`

func (s *PostgresStore) userFromRow(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, archonerr.NotFound("user not found")
	}
	if err != nil {
		return nil, archonerr.Internal(err, "read user")
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.userFromRow(s.pool.QueryRow(ctx, userSelect+` WHERE username = $1`, username))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.userFromRow(s.pool.QueryRow(ctx, userSelect+` WHERE id = $1`, id))
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, archonerr.Internal(err, "count users")
	}
	return n, nil
}

// --- helpers ---

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
