package domain

import (
	"strings"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/shared/errors"
	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// FeedbackLabel prefixes citizen feedback merged into resolution notes.
const FeedbackLabel = "Citizen feedback: "

const (
	MinRating = 1
	MaxRating = 5
)

// transitions lists the roles allowed to take each edge of the lifecycle.
// Resolved and rejected have no outgoing edges.
var transitions = map[Status]map[Status][]identity.Role{
	StatusPending: {
		StatusAssigned: {identity.RoleAgent, identity.RoleAdmin},
		StatusRejected: {identity.RoleAgent, identity.RoleAdmin},
	},
	StatusAssigned: {
		StatusInProgress: {identity.RoleAgent},
		StatusRejected:   {identity.RoleAgent, identity.RoleAdmin},
	},
	StatusInProgress: {
		StatusResolved: {identity.RoleAgent},
		StatusRejected: {identity.RoleAgent, identity.RoleAdmin},
	},
}

// Edge reports whether the lifecycle has a transition from -> to for any role.
func Edge(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// CanTransition reports whether role may move a complaint from -> to.
func CanTransition(role identity.Role, from, to Status) bool {
	for _, r := range transitions[from][to] {
		if r == role {
			return true
		}
	}
	return false
}

// Transition checks that actor may move c to the target status.
// Agents act only on complaints assigned to them. The one exception is
// picking up a pending complaint; rejecting one is left to admins.
func Transition(actor *identity.User, c *Complaint, to Status) error {
	if actor == nil {
		return errors.Unauthorized("sign in required")
	}
	if !Edge(c.Status, to) {
		return errors.InvalidTransition(string(c.Status), string(to))
	}
	if !CanTransition(actor.Role, c.Status, to) {
		return errors.Forbidden("role " + string(actor.Role) + " cannot move complaint to " + string(to))
	}
	if actor.IsAgent() && !pickup(c.Status, to) && c.AssignedTo != actor.ID {
		return errors.Forbidden("complaint is assigned to another agent")
	}
	return nil
}

// pickup reports whether from -> to is an agent accepting unassigned work.
func pickup(from, to Status) bool {
	return from == StatusPending && to == StatusAssigned
}

// AssignPatch builds the pending -> assigned change. An agent may only
// assign to themselves; an empty agentID means the actor.
func AssignPatch(actor *identity.User, c *Complaint, agentID types.ID) (Patch, error) {
	if err := Transition(actor, c, StatusAssigned); err != nil {
		return Patch{}, err
	}
	if agentID.IsZero() {
		if !actor.IsAgent() {
			return Patch{}, errors.Validation("agent is required", map[string]string{"agent_id": "required"})
		}
		agentID = actor.ID
	}
	if actor.IsAgent() && agentID != actor.ID {
		return Patch{}, errors.Forbidden("agents can only assign complaints to themselves")
	}
	return Patch{
		Status:          Ptr(StatusAssigned),
		AssignedTo:      Ptr(agentID),
		ExpectedVersion: Ptr(c.Version),
	}, nil
}

// StartPatch builds the assigned -> in-progress change.
func StartPatch(actor *identity.User, c *Complaint) (Patch, error) {
	if err := Transition(actor, c, StatusInProgress); err != nil {
		return Patch{}, err
	}
	return Patch{
		Status:          Ptr(StatusInProgress),
		ExpectedVersion: Ptr(c.Version),
	}, nil
}

// ResolvePatch builds the in-progress -> resolved change. Notes and images
// extend whatever the complaint already holds.
func ResolvePatch(actor *identity.User, c *Complaint, notes string, images []string) (Patch, error) {
	if err := Transition(actor, c, StatusResolved); err != nil {
		return Patch{}, err
	}
	p := Patch{
		Status:          Ptr(StatusResolved),
		ExpectedVersion: Ptr(c.Version),
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		p.ResolutionNotes = Ptr(appendNotes(c.ResolutionNotes, notes))
	}
	if len(images) > 0 {
		merged := append([]string(nil), c.ResolutionImages...)
		p.ResolutionImages = append(merged, images...)
	}
	return p, nil
}

// RejectPatch builds the change to rejected from any open status.
func RejectPatch(actor *identity.User, c *Complaint, notes string) (Patch, error) {
	if err := Transition(actor, c, StatusRejected); err != nil {
		return Patch{}, err
	}
	p := Patch{
		Status:          Ptr(StatusRejected),
		ExpectedVersion: Ptr(c.Version),
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		p.ResolutionNotes = Ptr(appendNotes(c.ResolutionNotes, notes))
	}
	return p, nil
}

// CanRate reports whether requester may rate c: only the filer, and only
// once the complaint is resolved.
func CanRate(c *Complaint, requester *identity.User) bool {
	return c != nil && requester != nil &&
		c.Status == StatusResolved && requester.ID == c.OwnerID
}

// RatingPatch builds the rating change. Feedback is appended to the
// resolution notes under FeedbackLabel; the rating overwrites any earlier one.
// Blank feedback records the rating only and leaves the notes as they were,
// rather than appending a bare label.
func RatingPatch(requester *identity.User, c *Complaint, rating int, feedback string) (Patch, error) {
	if !CanRate(c, requester) {
		return Patch{}, errors.Forbidden("only the filer can rate a resolved complaint")
	}
	if rating < MinRating || rating > MaxRating {
		return Patch{}, errors.Validation("rating must be between 1 and 5", map[string]string{"rating": "out of range"})
	}
	p := Patch{
		Rating:          Ptr(rating),
		ExpectedVersion: Ptr(c.Version),
	}
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		p.ResolutionNotes = Ptr(MergeFeedback(c.ResolutionNotes, feedback))
	}
	return p, nil
}

// MergeFeedback appends labelled citizen feedback to existing notes.
func MergeFeedback(notes, feedback string) string {
	return appendNotes(notes, FeedbackLabel+feedback)
}

func appendNotes(notes, addition string) string {
	if notes == "" {
		return addition
	}
	return notes + "\n\n" + addition
}

// Visible reports whether actor may see c.
func Visible(actor *identity.User, c *Complaint) bool {
	if actor == nil || c == nil {
		return false
	}
	switch actor.Role {
	case identity.RoleCitizen:
		return c.OwnerID == actor.ID
	case identity.RoleAgent:
		return c.AssignedTo == actor.ID
	case identity.RoleAdmin:
		return true
	default:
		return false
	}
}

// Action is an operation a view may offer on a complaint
type Action string

const (
	ActionAssign  Action = "assign"
	ActionStart   Action = "start"
	ActionResolve Action = "resolve"
	ActionReject  Action = "reject"
	ActionRate    Action = "rate"
)

// Actions lists what actor may do with c right now.
func Actions(actor *identity.User, c *Complaint) []Action {
	if actor == nil || c == nil {
		return nil
	}
	actions := []Action{}
	if Transition(actor, c, StatusAssigned) == nil {
		actions = append(actions, ActionAssign)
	}
	if Transition(actor, c, StatusInProgress) == nil {
		actions = append(actions, ActionStart)
	}
	if Transition(actor, c, StatusResolved) == nil {
		actions = append(actions, ActionResolve)
	}
	if Transition(actor, c, StatusRejected) == nil {
		actions = append(actions, ActionReject)
	}
	if CanRate(c, actor) {
		actions = append(actions, ActionRate)
	}
	return actions
}
