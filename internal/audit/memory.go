package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/metrics"
	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// MemoryRepository is an append-only, hash-chained audit log held in memory
type MemoryRepository struct {
	mu       sync.RWMutex
	entries  []AuditEntry
	lastHash string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append appends a new audit entry (thread-safe)
func (r *MemoryRepository) Append(ctx context.Context, entry *AuditEntry) error {
	if entry == nil {
		return errors.BadRequest("audit entry is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = types.NewID()
	}
	entry.PrevHash = r.lastHash
	entry.Sequence = int64(len(r.entries)) + 1
	entry.Hash = entry.calculateHash()

	r.entries = append(r.entries, *entry)
	r.lastHash = entry.Hash

	metrics.RecordAuditEntry()
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id types.ID) (*AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if r.entries[i].ID == id {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, errors.NotFound("audit entry", id.String())
}

// List lists audit entries with filters, newest first
func (r *MemoryRepository) List(ctx context.Context, filter ListEntriesFilter) ([]AuditEntry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]AuditEntry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if matches(&r.entries[i], filter) {
			matched = append(matched, r.entries[i])
		}
	}
	total := len(matched)

	offset := filter.Offset
	if offset > total {
		offset = total
	}
	if offset < 0 {
		offset = 0
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return matched[offset:end], total, nil
}

func (r *MemoryRepository) GetByResource(ctx context.Context, resourceType string, resourceID types.ID, limit int) ([]AuditEntry, error) {
	entries, _, err := r.List(ctx, ListEntriesFilter{
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		Limit:        limit,
	})
	return entries, err
}

// VerifyChain recomputes every hash and checks each link to its predecessor
func (r *MemoryRepository) VerifyChain(ctx context.Context, limit int, includeDetails bool) (*VerifyResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.entries)
	if limit > 0 && limit < n {
		n = limit
	}

	result := &VerifyResult{Valid: true}
	prevHash := ""
	for i := 0; i < n; i++ {
		e := &r.entries[i]
		computed := e.calculateHash()
		contentOK := computed == e.Hash
		linkOK := e.PrevHash == prevHash

		if !contentOK {
			result.ContentInvalid++
			result.Violations = append(result.Violations, fmt.Sprintf("entry %d: content hash mismatch", e.Sequence))
		}
		if !linkOK {
			result.LinkageInvalid++
			result.Violations = append(result.Violations, fmt.Sprintf("entry %d: broken link to previous entry", e.Sequence))
		}
		if includeDetails {
			result.Entries = append(result.Entries, VerifyEntryResult{
				ID:           e.ID,
				Sequence:     e.Sequence,
				Hash:         e.Hash,
				ComputedHash: computed,
				PrevHash:     e.PrevHash,
				Valid:        contentOK && linkOK,
			})
		}
		result.Checked++
		prevHash = e.Hash
	}
	result.Valid = result.ContentInvalid == 0 && result.LinkageInvalid == 0
	return result, nil
}

func (r *MemoryRepository) GetLastHash() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastHash
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

func matches(e *AuditEntry, f ListEntriesFilter) bool {
	if f.ActorID != nil && e.ActorID != *f.ActorID {
		return false
	}
	if f.ActorType != nil && e.ActorType != *f.ActorType {
		return false
	}
	if f.Action != "" && !strings.HasPrefix(e.Action, f.Action) {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if f.ResourceID != nil && (e.ResourceID == nil || *e.ResourceID != *f.ResourceID) {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}
