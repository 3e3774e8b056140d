package audit

import (
	"context"

	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// AuditRepository defines the interface for audit storage operations.
type AuditRepository interface {
	// Append links entry to the chain and stores it
	Append(ctx context.Context, entry *AuditEntry) error

	FindByID(ctx context.Context, id types.ID) (*AuditEntry, error)

	// List returns matching entries and the total before paging
	List(ctx context.Context, filter ListEntriesFilter) ([]AuditEntry, int, error)

	GetByResource(ctx context.Context, resourceType string, resourceID types.ID, limit int) ([]AuditEntry, error)

	// VerifyChain verifies the integrity of the first limit entries (0 = all)
	VerifyChain(ctx context.Context, limit int, includeDetails bool) (*VerifyResult, error)

	GetLastHash() string
	Count(ctx context.Context) (int, error)
}

var _ AuditRepository = (*MemoryRepository)(nil)
