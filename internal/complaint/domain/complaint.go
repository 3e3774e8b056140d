// Package domain holds the complaint record and the lifecycle policy that
// decides which status changes are legal, who may make them and who may see
// a complaint.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// Status defines the lifecycle state of a complaint
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusAssigned, StatusInProgress, StatusResolved, StatusRejected}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusResolved, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// Open reports whether the complaint still awaits resolution.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusAssigned || s == StatusInProgress
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Category defines the area of public service a complaint concerns
type Category string

const (
	CategoryRoads       Category = "roads"
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategorySanitation  Category = "sanitation"
	CategoryOther       Category = "other"
)

func Categories() []Category {
	return []Category{CategoryRoads, CategoryWater, CategoryElectricity, CategorySanitation, CategoryOther}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryRoads, CategoryWater, CategoryElectricity, CategorySanitation, CategoryOther:
		return true
	default:
		return false
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Complaint is a citizen-filed grievance tracked through the status lifecycle
type Complaint struct {
	ID          types.ID `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Category    Category `json:"category"`
	Status      Status   `json:"status"`
	ImageURL    string   `json:"image_url,omitempty"`

	// Ownership
	OwnerID    types.ID `json:"owner_id"`
	AssignedTo types.ID `json:"assigned_to,omitempty"`

	// Resolution
	ResolutionNotes  string   `json:"resolution_notes,omitempty"`
	ResolutionImages []string `json:"resolution_images,omitempty"`
	Rating           *int     `json:"rating,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version increases with every update
	Version int64 `json:"version"`
}

// Clone returns a deep copy sharing no slices or pointers with c.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ResolutionImages != nil {
		cp.ResolutionImages = append([]string(nil), c.ResolutionImages...)
	}
	if c.Rating != nil {
		r := *c.Rating
		cp.Rating = &r
	}
	return &cp
}

// Draft carries the fields a citizen supplies when filing a complaint
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Category    Category `json:"category"`
	ImageURL    string   `json:"image_url,omitempty"`
	OwnerID     types.ID `json:"owner_id"`
}

// Validate checks the draft fields
func (d Draft) Validate() error {
	details := map[string]string{}
	if strings.TrimSpace(d.Title) == "" {
		details["title"] = "title is required"
	}
	if !d.Category.Valid() {
		details["category"] = fmt.Sprintf("unknown category %q", d.Category)
	}
	if d.OwnerID.IsZero() {
		details["owner_id"] = "owner is required"
	}
	if len(details) > 0 {
		return errors.Validation("invalid complaint", details)
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Location         *string   `json:"location,omitempty"`
	Category         *Category `json:"category,omitempty"`
	Status           *Status   `json:"status,omitempty"`
	ImageURL         *string   `json:"image_url,omitempty"`
	AssignedTo       *types.ID `json:"assigned_to,omitempty"`
	ResolutionNotes  *string   `json:"resolution_notes,omitempty"`
	ResolutionImages []string  `json:"resolution_images,omitempty"`
	Rating           *int      `json:"rating,omitempty"`

	// ExpectedVersion, when set, must equal the stored version
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

// Validate checks the enumerated fields of the patch
func (p Patch) Validate() error {
	details := map[string]string{}
	if p.Status != nil && !p.Status.Valid() {
		details["status"] = fmt.Sprintf("unknown status %q", *p.Status)
	}
	if p.Category != nil && !p.Category.Valid() {
		details["category"] = fmt.Sprintf("unknown category %q", *p.Category)
	}
	if len(details) > 0 {
		return errors.Validation("invalid complaint update", details)
	}
	return nil
}

// Apply merges the present fields into c. Identity, ownership and
// timestamps are never touched.
func (p Patch) Apply(c *Complaint) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Location != nil {
		c.Location = *p.Location
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.AssignedTo != nil {
		c.AssignedTo = *p.AssignedTo
	}
	if p.ResolutionNotes != nil {
		c.ResolutionNotes = *p.ResolutionNotes
	}
	if p.ResolutionImages != nil {
		c.ResolutionImages = append([]string(nil), p.ResolutionImages...)
	}
	if p.Rating != nil {
		r := *p.Rating
		c.Rating = &r
	}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
