// Package workflow holds the quote approval state machine. Every status
// change a quote can go through is listed in one table keyed by
// (source status, event); nothing else is allowed to move a quote.
package workflow

import (
	"fmt"

	"github.com/google/uuid"

	"erp-service/internal/models"
	"erp-service/internal/rbac"
)

// Event is a requested workflow action.
type Event string

const (
	EventSubmitForServiceApproval Event = "submit_for_service_approval"
	EventApproveByServiceManager  Event = "approve_by_service_manager"
	EventApproveByDG              Event = "approve_by_dg"
	EventReject                   Event = "reject"
	EventReturnToDraft            Event = "return_to_draft"
	EventClientAccept             Event = "client_accept"
	EventClientReject             Event = "client_reject"
	EventExpire                   Event = "expire"
)

// Subject carries the quote attributes guards look at.
type Subject struct {
	CreatedBy uuid.UUID
	ServiceID *uuid.UUID
}

// SubjectOf extracts the guard inputs from a quote.
func SubjectOf(q *models.Quote) Subject {
	return Subject{CreatedBy: q.CreatedBy, ServiceID: q.ServiceID}
}

// Guard decides whether a principal may fire a transition on a subject.
type Guard func(p rbac.Principal, s Subject) rbac.Decision

// Effect names the approval-record change that accompanies a transition.
type Effect string

const (
	EffectNone                  Effect = ""
	EffectOpenServiceApproval   Effect = "open_service_approval"
	EffectApproveServiceOpenDG  Effect = "approve_service_open_dg"
	EffectRejectServiceApproval Effect = "reject_service_approval"
	EffectApproveDGApproval     Effect = "approve_dg_approval"
	EffectRejectDGApproval      Effect = "reject_dg_approval"
)

// Transition is one row of the table.
type Transition struct {
	From   models.QuoteStatus
	Event  Event
	To     models.QuoteStatus
	Guard  Guard
	Effect Effect
}

// Authorize runs the transition guard.
func (t Transition) Authorize(p rbac.Principal, s Subject) rbac.Decision {
	if t.Guard == nil {
		return rbac.Allow()
	}
	return t.Guard(p, s)
}

// StateError reports an event that has no transition from the current status.
type StateError struct {
	From  models.QuoteStatus
	Event Event
}

func (e *StateError) Error() string {
	return fmt.Sprintf("quote in status %s cannot accept %s", e.From, e.Event)
}

var transitions = []Transition{
	{
		From: models.QuoteStatusDraft, Event: EventSubmitForServiceApproval,
		To: models.QuoteStatusSubmittedForServiceApproval, Guard: ownerOnly("submit"),
		Effect: EffectOpenServiceApproval,
	},
	{
		From: models.QuoteStatusSubmittedForServiceApproval, Event: EventApproveByServiceManager,
		To: models.QuoteStatusSubmittedForDGApproval, Guard: serviceManagerOfQuote("approve"),
		Effect: EffectApproveServiceOpenDG,
	},
	{
		From: models.QuoteStatusSubmittedForServiceApproval, Event: EventReject,
		To: models.QuoteStatusRejectedByServiceManager, Guard: serviceManagerOfQuote("reject"),
		Effect: EffectRejectServiceApproval,
	},
	{
		From: models.QuoteStatusSubmittedForDGApproval, Event: EventApproveByDG,
		To: models.QuoteStatusApprovedByDG, Guard: generalDirector("approve"),
		Effect: EffectApproveDGApproval,
	},
	{
		From: models.QuoteStatusSubmittedForDGApproval, Event: EventReject,
		To: models.QuoteStatusRejectedByDG, Guard: generalDirector("reject"),
		Effect: EffectRejectDGApproval,
	},
	{
		From: models.QuoteStatusRejectedByServiceManager, Event: EventReturnToDraft,
		To: models.QuoteStatusDraft, Guard: ownerOnly("return to draft"),
	},
	{
		From: models.QuoteStatusRejectedByDG, Event: EventReturnToDraft,
		To: models.QuoteStatusDraft, Guard: ownerOnly("return to draft"),
	},
	{
		From: models.QuoteStatusApprovedByDG, Event: EventClientAccept,
		To: models.QuoteStatusAcceptedByClient, Guard: clientDecision,
	},
	{
		From: models.QuoteStatusApprovedByDG, Event: EventClientReject,
		To: models.QuoteStatusRejectedByClient, Guard: clientDecision,
	},
	{From: models.QuoteStatusDraft, Event: EventExpire, To: models.QuoteStatusExpired, Guard: systemOnly},
	{From: models.QuoteStatusSubmittedForServiceApproval, Event: EventExpire, To: models.QuoteStatusExpired, Guard: systemOnly},
	{From: models.QuoteStatusSubmittedForDGApproval, Event: EventExpire, To: models.QuoteStatusExpired, Guard: systemOnly},
	{From: models.QuoteStatusApprovedByDG, Event: EventExpire, To: models.QuoteStatusExpired, Guard: systemOnly},
}

type transitionKey struct {
	from  models.QuoteStatus
	event Event
}

var table = func() map[transitionKey]Transition {
	m := make(map[transitionKey]Transition, len(transitions))
	for _, t := range transitions {
		m[transitionKey{t.From, t.Event}] = t
	}
	return m
}()

// Terminal statuses accept no event.
var Terminal = map[models.QuoteStatus]bool{
	models.QuoteStatusAcceptedByClient: true,
	models.QuoteStatusRejectedByClient: true,
	models.QuoteStatusExpired:          true,
}

// Unreachable statuses are declared for compatibility but no transition
// targets them: a service manager approval forwards the quote straight to
// SUBMITTED_FOR_DG_APPROVAL.
var Unreachable = map[models.QuoteStatus]bool{
	models.QuoteStatusApprovedByServiceManager: true,
}

// Resolve finds the transition for event from status. Reject resolves to a
// different row depending on the approval level the quote is waiting at.
func Resolve(from models.QuoteStatus, event Event) (Transition, error) {
	t, ok := table[transitionKey{from, event}]
	if !ok {
		return Transition{}, &StateError{From: from, Event: event}
	}
	return t, nil
}

// Transitions returns a copy of the full table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// ExpirableStatuses lists the statuses the expiry job may act on.
func ExpirableStatuses() []models.QuoteStatus {
	var out []models.QuoteStatus
	for _, t := range transitions {
		if t.Event == EventExpire {
			out = append(out, t.From)
		}
	}
	return out
}

func ownerOnly(action string) Guard {
	return func(p rbac.Principal, s Subject) rbac.Decision {
		if p.UserID != uuid.Nil && p.UserID == s.CreatedBy {
			return rbac.Allow()
		}
		return rbac.Deny(fmt.Sprintf("only the creator of the quote can %s it", action))
	}
}

func serviceManagerOfQuote(action string) Guard {
	return func(p rbac.Principal, s Subject) rbac.Decision {
		if d := rbac.Authorize(p, rbac.RequireRole(rbac.RoleServiceManager), nil); !d.Allowed {
			return rbac.Deny(fmt.Sprintf("only a service manager can %s a quote at this stage", action))
		}
		if s.ServiceID == nil || p.ServiceID == nil || *s.ServiceID != *p.ServiceID {
			return rbac.Deny(fmt.Sprintf("only the service manager of the quote's service can %s it", action))
		}
		return rbac.Allow()
	}
}

func generalDirector(action string) Guard {
	return func(p rbac.Principal, _ Subject) rbac.Decision {
		if d := rbac.Authorize(p, rbac.RequireRole(rbac.RoleGeneralDirector), nil); !d.Allowed {
			return rbac.Deny(fmt.Sprintf("only the general director can %s a quote at this stage", action))
		}
		return rbac.Allow()
	}
}

func clientDecision(p rbac.Principal, s Subject) rbac.Decision {
	return rbac.AuthorizeAll(p, s.ServiceID,
		rbac.RequirePermission(rbac.PermQuotesUpdate),
		rbac.RequireServiceScope(),
	)
}

func systemOnly(p rbac.Principal, _ Subject) rbac.Decision {
	if p.System {
		return rbac.Allow()
	}
	return rbac.Deny("quotes expire automatically")
}
