package catalog

import "context"

// Store is C1's contract: the durable catalog of scans, documents, entities,
// audit entries, and users. internal/scan, internal/audit, and internal/auth
// depend on this interface rather than a concrete database, the same habit
// of depending on narrow persistence interfaces (databases.FullTextSearch,
// databases.VectorStore) instead of driver types seen elsewhere in this
// codebase.
type Store interface {
	// Scans
	CreateScan(ctx context.Context, rootPath string, embeddingsEnabled bool) (*Scan, error)
	GetScan(ctx context.Context, id int64) (*Scan, error)
	FindPendingOrRunningScanByPath(ctx context.Context, rootPath string) (*Scan, error)
	ListScans(ctx context.Context) ([]*Scan, error)
	UpdateScan(ctx context.Context, s *Scan) error
	DeleteScan(ctx context.Context, id int64) error

	// Documents
	CreateDocument(ctx context.Context, d *Document) (*Document, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	GetDocumentByPath(ctx context.Context, scanID int64, filePath string) (*Document, error)
	ListDocumentsByScan(ctx context.Context, scanID int64) ([]*Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocumentsByScan(ctx context.Context, scanID int64) error

	// Scan errors
	RecordScanError(ctx context.Context, e *ScanError) error
	ListScanErrors(ctx context.Context, scanID int64, limit int) ([]*ScanError, error)

	// Entities
	UpsertEntity(ctx context.Context, e *Entity) error
	ListEntitiesByDocument(ctx context.Context, documentID int64) ([]*Entity, error)
	ListEntityTypes(ctx context.Context) ([]EntityType, error)
	EntityGraph(ctx context.Context, filter EntityGraphFilter) ([]EntityCooccurrence, error)
	MergeEntities(ctx context.Context, fromText, toText string) (int64, error)

	// Audit
	AppendAudit(ctx context.Context, entry *AuditEntry) (*AuditEntry, error)
	LastAuditEntry(ctx context.Context) (*AuditEntry, error)
	ListAudit(ctx context.Context, limit, offset int) ([]*AuditEntry, error)
	ListAuditByDocument(ctx context.Context, documentID int64) ([]*AuditEntry, error)

	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	CountUsers(ctx context.Context) (int, error)

	Close()
}

// EntityGraphFilter narrows the §6 GET /entities/graph query.
type EntityGraphFilter struct {
	EntityType  *EntityType
	MinCount    int
	Limit       int
	ProjectPath string
	Focus       string
}

// EntityCooccurrence is one edge in the entity co-occurrence graph: two
// entity texts that appear together in at least one document.
type EntityCooccurrence struct {
	EntityA string
	EntityB string
	Weight  int
}
