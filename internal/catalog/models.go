// Package catalog is Archon's durable store (C1) for scans, documents,
// entities, audit entries, and users, the single source of truth for
// mutable ingestion state.
package catalog

import "time"

// ScanStatus is one of a Scan's terminal or in-flight states (§3).
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
	ScanCancelled ScanStatus = "cancelled"
)

// Scan is one ingestion job, owning the Document rows it produces.
type Scan struct {
	ID                int64
	RootPath          string
	Status            ScanStatus
	TotalFiles        int
	ProcessedFiles    int
	FailedFiles       int
	EmbeddingsEnabled bool
	TaskHandle         string
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	FatalErrorMessage string
}

// Terminal reports whether s has reached a status it cannot leave.
func (s *Scan) Terminal() bool {
	switch s.Status {
	case ScanCompleted, ScanFailed, ScanCancelled:
		return true
	default:
		return false
	}
}

// FileType classifies a Document for filtering and extractor dispatch.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeImage   FileType = "image"
	FileTypeText    FileType = "text"
	FileTypeVideo   FileType = "video"
	FileTypeEmail   FileType = "email"
	FileTypeUnknown FileType = "unknown"
)

// Document is one ingested file (or virtual archive/email member).
type Document struct {
	ID             int64
	ScanID         int64
	FilePath       string
	FileName       string
	FileType       FileType
	FileSize       int64
	TextContent    string
	TextLength     int
	HasOCR         bool
	ArchivePath    string // nullable virtual trail, e.g. "outer.zip/inner/"
	HashMD5        string
	HashSHA256     string
	FileModifiedAt time.Time
	IndexedAt      time.Time
	LexicalRef     string
	VectorRefs     []string
}

// EntityType is a normalized named-entity category.
type EntityType string

const (
	EntityPerson EntityType = "PER"
	EntityOrg    EntityType = "ORG"
	EntityLoc    EntityType = "LOC"
	EntityMisc   EntityType = "MISC"
	EntityDate   EntityType = "DATE"
)

// Entity is one (document, text, type) occurrence tally.
type Entity struct {
	ID         int64
	DocumentID int64
	Text       string
	Type       EntityType
	Count      int
	StartChar  *int
}

// ScanError is a non-fatal per-file ingestion failure recorded against a scan.
type ScanError struct {
	ID        int64
	ScanID    int64
	FilePath  string
	ErrorType string
	Message   string
	CreatedAt time.Time
}

// AuditAction names a mutating event recorded in the hash chain.
type AuditAction string

const (
	AuditScanCreated     AuditAction = "scan_created"
	AuditScanCompleted   AuditAction = "scan_completed"
	AuditScanCancelled   AuditAction = "scan_cancelled"
	AuditDocumentIndexed AuditAction = "document_indexed"
	AuditEntityMerged    AuditAction = "entity_merged"
	AuditSearchPerformed AuditAction = "search_performed"
	AuditChatMessage     AuditAction = "chat_message"
)

// AuditEntry is one append-only, hash-chained audit row (§3, §4.11).
type AuditEntry struct {
	ID           int64
	Action       AuditAction
	DocumentID   *int64
	ScanID       *int64
	Details      string // JSON string, may be empty
	UserIP       string
	EntryHash    string
	PreviousHash string
	CreatedAt    time.Time
}

// Role is a user's access level. admin ⊃ analyst ⊃ viewer.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// Allows reports whether r grants at least the privileges of required.
func (r Role) Allows(required Role) bool {
	rank := func(role Role) int {
		switch role {
		case RoleAdmin:
			return 3
		case RoleAnalyst:
			return 2
		case RoleViewer:
			return 1
		default:
			return 0
		}
	}
	return rank(r) >= rank(required)
}

// User is a catalog-backed account used by internal/auth.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
