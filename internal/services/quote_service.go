package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/apperrors"
	"erp-service/internal/cache"
	"erp-service/internal/models"
	"erp-service/internal/notify"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
	"erp-service/internal/workflow"
)

const (
	defaultQuoteValidity = 30 * 24 * time.Hour
	expiryBatchSize      = 100
)

var (
	ErrQuoteNotFound          = apperrors.NotFound("Quote not found")
	ErrCustomerNotFound       = apperrors.NotFound("Customer not found")
	ErrNoServiceManager       = apperrors.NotFound("No active service manager found for the quote's service")
	ErrNoGeneralDirector      = apperrors.Validation("No active general director is available to approve the quote")
	ErrQuoteModified          = apperrors.PreconditionFailed("Quote was modified by another request, reload and retry")
	ErrQuoteNotEditable       = apperrors.PreconditionFailed("Only quotes in DRAFT can be edited")
	ErrOnlyOwnerCanEditQuote  = apperrors.Authorization("only the creator of the quote can edit it")
	ErrQuoteNumberUnavailable = apperrors.Conflict("Quote number already taken, retry the request")
)

// QuoteItemInput is one line of a new quote.
type QuoteItemInput struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unitPrice"`
	VATRate     float64 `json:"vatRate"`
}

// CreateQuoteInput is the body of POST /quotes.
type CreateQuoteInput struct {
	CustomerID uuid.UUID        `json:"customerId" binding:"required"`
	Items      []QuoteItemInput `json:"items" binding:"required"`
	IssueDate  *string          `json:"issueDate,omitempty"`
	ValidUntil *string          `json:"validUntil,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// UpdateQuoteInput is the body of PATCH /quotes/:id. Only DRAFT quotes accept it.
type UpdateQuoteInput struct {
	ValidUntil *string `json:"validUntil,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// DecisionInput carries the optional comment on approve/reject.
type DecisionInput struct {
	Comments string `json:"comments"`
}

// QuoteListParams are the query filters of GET /quotes.
type QuoteListParams struct {
	Status     string
	CustomerID *uuid.UUID
	Search     string
	repository.Page
}

// quoteCache is the slice of *cache.Cache the quote read path uses.
type quoteCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// QuoteService runs quote creation, scoping and the approval workflow.
type QuoteService struct {
	quotes    repository.QuoteRepositoryInterface
	customers repository.CustomerRepositoryInterface
	users     repository.UserRepositoryInterface
	sequences repository.SequenceRepositoryInterface
	cache     quoteCache
	notifier  *notify.Dispatcher
	logger    *logrus.Entry
	now       func() time.Time
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quotes repository.QuoteRepositoryInterface,
	customers repository.CustomerRepositoryInterface,
	users repository.UserRepositoryInterface,
	sequences repository.SequenceRepositoryInterface,
	c *cache.Cache,
	notifier *notify.Dispatcher,
	logger *logrus.Logger,
) *QuoteService {
	return &QuoteService{
		quotes:    quotes,
		customers: customers,
		users:     users,
		sequences: sequences,
		cache:     c,
		notifier:  notifier,
		logger:    logger.WithField("component", "quote_service"),
		now:       time.Now,
	}
}

// Create prices the items, assigns the next DEV number and stores the quote in DRAFT.
func (s *QuoteService) Create(ctx context.Context, p rbac.Principal, input CreateQuoteInput) (*models.Quote, error) {
	if verr := validateQuoteItems(input.Items); verr != nil {
		return nil, verr
	}

	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, notFoundOr(err, "Customer not found")
	}
	if !customerVisible(p, customer) {
		return nil, ErrCustomerNotFound
	}

	today := truncateDay(s.now())
	issueDate := today
	if input.IssueDate != nil && strings.TrimSpace(*input.IssueDate) != "" {
		if issueDate, err = parseDate("issueDate", *input.IssueDate); err != nil {
			return nil, err
		}
	}
	validUntil, err := parseOptionalDate("validUntil", input.ValidUntil)
	if err != nil {
		return nil, err
	}
	if validUntil == nil {
		d := issueDate.Add(defaultQuoteValidity)
		validUntil = &d
	}
	if validUntil.Before(issueDate) {
		return nil, apperrors.Validation("Validation failed", "validUntil must not be before issueDate")
	}

	quote := &models.Quote{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		CreatedBy:  p.UserID,
		ServiceID:  p.ServiceID,
		IssueDate:  issueDate,
		ValidUntil: validUntil,
		Notes:      input.Notes,
		Status:     models.QuoteStatusDraft,
		Version:    1,
	}
	quote.Items, quote.SubtotalHT, quote.TotalVAT, quote.TotalTTC = priceItems(quote.ID, input.Items)

	seq, err := s.sequences.Next(ctx, models.SequenceQuote, issueDate.Year())
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to allocate quote number: %w", err))
	}
	quote.Number = formatNumber(models.SequencePrefixes[models.SequenceQuote], issueDate.Year(), seq)

	if err := s.quotes.Create(ctx, quote); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrQuoteNumberUnavailable
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"quote_id": quote.ID,
		"number":   quote.Number,
		"user_id":  p.UserID,
	}).Info("Quote created")

	quote.Customer = customer
	return quote, nil
}

func validateQuoteItems(items []QuoteItemInput) error {
	if len(items) == 0 {
		return apperrors.Validation("Validation failed", "items must contain at least one line")
	}
	var details []string
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			details = append(details, fmt.Sprintf("items[%d].description is required", i))
		}
		if item.Quantity <= 0 {
			details = append(details, fmt.Sprintf("items[%d].quantity must be greater than 0", i))
		}
		if item.UnitPrice < 0 {
			details = append(details, fmt.Sprintf("items[%d].unitPrice must not be negative", i))
		}
		if item.VATRate < 0 || item.VATRate > 100 {
			details = append(details, fmt.Sprintf("items[%d].vatRate must be between 0 and 100", i))
		}
	}
	if len(details) > 0 {
		return apperrors.Validation("Validation failed", details...)
	}
	return nil
}

// priceItems computes line totals and the frozen quote totals. VAT is rounded per line.
func priceItems(quoteID uuid.UUID, inputs []QuoteItemInput) (items []models.QuoteItem, subtotal, vat, total float64) {
	items = make([]models.QuoteItem, len(inputs))
	for i, in := range inputs {
		lineHT := models.RoundMoney(in.Quantity * in.UnitPrice)
		items[i] = models.QuoteItem{
			ID:          uuid.New(),
			QuoteID:     quoteID,
			Position:    i + 1,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			VATRate:     in.VATRate,
			TotalHT:     lineHT,
		}
		subtotal += lineHT
		vat += models.RoundMoney(lineHT * in.VATRate / 100)
	}
	subtotal = models.RoundMoney(subtotal)
	vat = models.RoundMoney(vat)
	return items, subtotal, vat, models.RoundMoney(subtotal + vat)
}

// Get returns a quote visible to p. Quotes outside p's scope are reported as missing.
func (s *QuoteService) Get(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !QuoteVisible(p, quote) {
		return nil, ErrQuoteNotFound
	}
	return quote, nil
}

func (s *QuoteService) load(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var cached models.Quote
	if hit, err := s.cache.Get(ctx, cache.QuoteKey(id), &cached); err != nil {
		s.logger.WithError(err).Debug("Quote cache read failed")
	} else if hit {
		return &cached, nil
	}

	quote, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Quote not found")
	}
	// Only terminal quotes are cached; no transition or edit touches them again.
	if workflow.Terminal[quote.Status] {
		if err := s.cache.Set(ctx, cache.QuoteKey(id), quote); err != nil {
			s.logger.WithError(err).Debug("Quote cache write failed")
		}
	}
	return quote, nil
}

// List returns the page of quotes visible to p.
func (s *QuoteService) List(ctx context.Context, p rbac.Principal, params QuoteListParams) (*ListResult[models.Quote], error) {
	filter := repository.QuoteFilter{
		CustomerID: params.CustomerID,
		Search:     params.Search,
		Page:       params.Page.Normalize(),
	}
	if params.Status != "" {
		status := models.QuoteStatus(strings.ToUpper(params.Status))
		if !status.IsValid() {
			return nil, apperrors.Validation("Validation failed", fmt.Sprintf("unknown status %q", params.Status))
		}
		filter.Statuses = []models.QuoteStatus{status}
	}

	if !scopeQuoteFilter(p, &filter) {
		return newListResult[models.Quote](nil, 0, filter.Page), nil
	}

	quotes, total, err := s.quotes.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return newListResult(quotes, total, filter.Page), nil
}

// scopeQuoteFilter narrows filter to what p may see. It returns false when
// the requested statuses and the visible ones do not intersect.
func scopeQuoteFilter(p rbac.Principal, filter *repository.QuoteFilter) bool {
	switch {
	case p.SeesAllServices():
	case p.Role == rbac.RoleAccountant:
		if len(filter.Statuses) == 0 {
			filter.Statuses = append([]models.QuoteStatus(nil), models.PostDGApprovalStatuses...)
			break
		}
		var allowed []models.QuoteStatus
		for _, st := range filter.Statuses {
			if isPostDGApproval(st) {
				allowed = append(allowed, st)
			}
		}
		if len(allowed) == 0 {
			return false
		}
		filter.Statuses = allowed
	case p.Role == rbac.RoleServiceManager && p.ServiceID != nil:
		filter.ServiceID = p.ServiceID
	default:
		owner := p.UserID
		filter.CreatedBy = &owner
	}
	return true
}

// QuoteVisible applies the read scoping rules to a single quote.
func QuoteVisible(p rbac.Principal, q *models.Quote) bool {
	switch {
	case p.SeesAllServices():
		return true
	case q.CreatedBy == p.UserID:
		return true
	case p.Role == rbac.RoleAccountant:
		return isPostDGApproval(q.Status)
	case p.Role == rbac.RoleServiceManager:
		return p.ServiceID != nil && q.ServiceID != nil && *p.ServiceID == *q.ServiceID
	}
	return false
}

func isPostDGApproval(status models.QuoteStatus) bool {
	for _, st := range models.PostDGApprovalStatuses {
		if st == status {
			return true
		}
	}
	return false
}

// UpdateDraft edits validUntil and notes of the caller's own DRAFT quote.
func (s *QuoteService) UpdateDraft(ctx context.Context, p rbac.Principal, id uuid.UUID, input UpdateQuoteInput) (*models.Quote, error) {
	quote, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if quote.CreatedBy != p.UserID {
		return nil, ErrOnlyOwnerCanEditQuote
	}
	if quote.Status != models.QuoteStatusDraft {
		return nil, ErrQuoteNotEditable
	}

	validUntil := quote.ValidUntil
	if input.ValidUntil != nil {
		if validUntil, err = parseOptionalDate("validUntil", input.ValidUntil); err != nil {
			return nil, err
		}
		if validUntil != nil && validUntil.Before(quote.IssueDate) {
			return nil, apperrors.Validation("Validation failed", "validUntil must not be before issueDate")
		}
	}
	notes := quote.Notes
	if input.Notes != nil {
		notes = *input.Notes
	}

	if err := s.quotes.UpdateDraftFields(ctx, id, validUntil, notes); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrQuoteNotEditable
		}
		return nil, apperrors.Internal(err)
	}
	return s.reload(ctx, id)
}

func (s *QuoteService) reload(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Quote not found")
	}
	return quote, nil
}

// SubmitForServiceApproval sends a DRAFT quote to the service manager of its service.
func (s *QuoteService) SubmitForServiceApproval(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return s.fire(ctx, p, id, workflow.EventSubmitForServiceApproval, "")
}

// ApproveByServiceManager records the service-level approval and forwards the quote to the general director.
func (s *QuoteService) ApproveByServiceManager(ctx context.Context, p rbac.Principal, id uuid.UUID, input DecisionInput) (*models.Quote, error) {
	return s.fire(ctx, p, id, workflow.EventApproveByServiceManager, input.Comments)
}

// ApproveByDG records the final approval.
func (s *QuoteService) ApproveByDG(ctx context.Context, p rbac.Principal, id uuid.UUID, input DecisionInput) (*models.Quote, error) {
	return s.fire(ctx, p, id, workflow.EventApproveByDG, input.Comments)
}

// Reject rejects at whichever level the quote is currently waiting.
func (s *QuoteService) Reject(ctx context.Context, p rbac.Principal, id uuid.UUID, input DecisionInput) (*models.Quote, error) {
	return s.fire(ctx, p, id, workflow.EventReject, input.Comments)
}

// ReturnToDraft reopens a rejected quote for editing.
func (s *QuoteService) ReturnToDraft(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return s.fire(ctx, p, id, workflow.EventReturnToDraft, "")
}

// ClientAccept records the customer's acceptance of an approved quote.
func (s *QuoteService) ClientAccept(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return s.fire(ctx, p, id, workflow.EventClientAccept, "")
}

// ClientReject records the customer's refusal of an approved quote.
func (s *QuoteService) ClientReject(ctx context.Context, p rbac.Principal, id uuid.UUID) (*models.Quote, error) {
	return s.fire(ctx, p, id, workflow.EventClientReject, "")
}

// ListApprovals returns the approval rows of a visible quote.
func (s *QuoteService) ListApprovals(ctx context.Context, p rbac.Principal, id uuid.UUID) ([]models.QuoteApproval, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	approvals, err := s.quotes.ListApprovals(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if approvals == nil {
		approvals = []models.QuoteApproval{}
	}
	return approvals, nil
}

// fire runs one workflow event: state check, guard, approver lookup, then the
// conditional status update and approval writes in a single transaction.
func (s *QuoteService) fire(ctx context.Context, p rbac.Principal, id uuid.UUID, event workflow.Event, comments string) (*models.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Quote not found")
	}
	return s.apply(ctx, p, quote, event, comments)
}

func (s *QuoteService) apply(ctx context.Context, p rbac.Principal, quote *models.Quote, event workflow.Event, comments string) (*models.Quote, error) {
	tr, err := workflow.Resolve(quote.Status, event)
	if err != nil {
		var stateErr *workflow.StateError
		if errors.As(err, &stateErr) {
			return nil, apperrors.PreconditionFailed(fmt.Sprintf("Quote is in status %s and cannot be %s", quote.Status, describeEvent(event)))
		}
		return nil, apperrors.Internal(err)
	}
	if d := tr.Authorize(p, workflow.SubjectOf(quote)); !d.Allowed {
		return nil, apperrors.Authorization(d.Reason)
	}

	var nextApprover *models.User
	switch tr.Effect {
	case workflow.EffectOpenServiceApproval:
		if quote.ServiceID == nil {
			return nil, ErrNoServiceManager
		}
		if nextApprover, err = s.users.FindActiveApprover(ctx, rbac.RoleServiceManager, quote.ServiceID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNoServiceManager
			}
			return nil, apperrors.Internal(err)
		}
	case workflow.EffectApproveServiceOpenDG:
		if nextApprover, err = s.users.FindActiveApprover(ctx, rbac.RoleGeneralDirector, nil); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNoGeneralDirector
			}
			return nil, apperrors.Internal(err)
		}
	}

	now := s.now().UTC()
	err = s.quotes.WithTransaction(ctx, func(txRepo repository.QuoteRepositoryInterface) error {
		if err := txRepo.TransitionStatus(ctx, quote.ID, tr.From, tr.To); err != nil {
			return err
		}
		for _, approval := range approvalWrites(tr.Effect, quote.ID, p.UserID, nextApprover, comments, now) {
			if err := txRepo.UpsertApproval(ctx, approval); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrQuoteModified
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"quote_id": quote.ID,
		"number":   quote.Number,
		"event":    event,
		"from":     tr.From,
		"to":       tr.To,
		"user_id":  p.UserID,
	}).Info("Quote transitioned")

	s.notifyTransition(ctx, quote, tr, nextApprover, comments)

	updated, err := s.reload(ctx, quote.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// approvalWrites lists the approval rows a transition effect produces.
func approvalWrites(effect workflow.Effect, quoteID, actorID uuid.UUID, next *models.User, comments string, now time.Time) []*models.QuoteApproval {
	pending := func(level models.ApprovalLevel) *models.QuoteApproval {
		return &models.QuoteApproval{
			ID:            uuid.New(),
			QuoteID:       quoteID,
			ApprovalLevel: level,
			ApproverID:    next.ID,
			Status:        models.ApprovalStatusPending,
		}
	}
	decided := func(level models.ApprovalLevel, status models.ApprovalStatus) *models.QuoteApproval {
		a := &models.QuoteApproval{
			ID:            uuid.New(),
			QuoteID:       quoteID,
			ApprovalLevel: level,
			ApproverID:    actorID,
			Status:        status,
			Comments:      comments,
		}
		if status == models.ApprovalStatusApproved {
			a.ApprovedAt = &now
		} else {
			a.RejectedAt = &now
		}
		return a
	}

	switch effect {
	case workflow.EffectOpenServiceApproval:
		return []*models.QuoteApproval{pending(models.ApprovalLevelServiceManager)}
	case workflow.EffectApproveServiceOpenDG:
		return []*models.QuoteApproval{
			decided(models.ApprovalLevelServiceManager, models.ApprovalStatusApproved),
			pending(models.ApprovalLevelGeneralDirector),
		}
	case workflow.EffectRejectServiceApproval:
		return []*models.QuoteApproval{decided(models.ApprovalLevelServiceManager, models.ApprovalStatusRejected)}
	case workflow.EffectApproveDGApproval:
		return []*models.QuoteApproval{decided(models.ApprovalLevelGeneralDirector, models.ApprovalStatusApproved)}
	case workflow.EffectRejectDGApproval:
		return []*models.QuoteApproval{decided(models.ApprovalLevelGeneralDirector, models.ApprovalStatusRejected)}
	}
	return nil
}

func (s *QuoteService) notifyTransition(ctx context.Context, quote *models.Quote, tr workflow.Transition, next *models.User, comments string) {
	n := notify.Notification{
		ResourceType: models.ResourceQuote,
		ResourceID:   &quote.ID,
	}

	switch tr.Effect {
	case workflow.EffectOpenServiceApproval:
		n.RecipientID = next.ID
		n.Type = models.NotificationQuoteAwaitingServiceApproval
		n.Title = fmt.Sprintf("Quote %s awaits your approval", quote.Number)
		n.Message = fmt.Sprintf("Quote %s (%.2f TTC) was submitted for service approval.", quote.Number, quote.TotalTTC)
	case workflow.EffectApproveServiceOpenDG:
		n.RecipientID = next.ID
		n.Type = models.NotificationQuoteAwaitingDGApproval
		n.Title = fmt.Sprintf("Quote %s awaits your approval", quote.Number)
		n.Message = fmt.Sprintf("Quote %s (%.2f TTC) was approved by the service manager.", quote.Number, quote.TotalTTC)
	case workflow.EffectApproveDGApproval:
		n.RecipientID = quote.CreatedBy
		n.Type = models.NotificationQuoteApproved
		n.Title = fmt.Sprintf("Quote %s approved", quote.Number)
		n.Message = fmt.Sprintf("Quote %s was approved by the general director.", quote.Number)
	case workflow.EffectRejectServiceApproval, workflow.EffectRejectDGApproval:
		n.RecipientID = quote.CreatedBy
		n.Type = models.NotificationQuoteRejected
		n.Title = fmt.Sprintf("Quote %s rejected", quote.Number)
		n.Message = fmt.Sprintf("Quote %s was rejected.", quote.Number)
		if comments != "" {
			n.Message += " Comments: " + comments
		}
	default:
		if tr.Event != workflow.EventExpire {
			return
		}
		n.RecipientID = quote.CreatedBy
		n.Type = models.NotificationQuoteExpired
		n.Title = fmt.Sprintf("Quote %s expired", quote.Number)
		n.Message = fmt.Sprintf("Quote %s passed its validity date while %s.", quote.Number, tr.From)
	}

	s.notifier.Dispatch(ctx, n)
}

// ExpireOverdue moves every expirable quote whose validUntil is before today
// to EXPIRED. Quotes that changed status concurrently or fail to expire are
// skipped; the sweep walks past them in (validUntil, id) order.
func (s *QuoteService) ExpireOverdue(ctx context.Context) ([]models.Quote, error) {
	today := truncateDay(s.now())
	system := rbac.SystemPrincipal()

	var expired []models.Quote
	var cursor *repository.ExpiryCursor
	for {
		batch, err := s.quotes.FindExpired(ctx, workflow.ExpirableStatuses(), today, cursor, expiryBatchSize)
		if err != nil {
			return expired, fmt.Errorf("failed to find overdue quotes: %w", err)
		}

		for i := range batch {
			q := &batch[i]
			updated, err := s.apply(ctx, system, q, workflow.EventExpire, "")
			if err != nil {
				if errors.Is(err, ErrQuoteModified) {
					continue
				}
				s.logger.WithError(err).WithField("quote_id", q.ID).Warn("Failed to expire quote")
				continue
			}
			expired = append(expired, *updated)
		}

		if len(batch) < expiryBatchSize {
			return expired, nil
		}
		last := batch[len(batch)-1]
		cursor = &repository.ExpiryCursor{ValidUntil: *last.ValidUntil, ID: last.ID}
	}
}

func describeEvent(event workflow.Event) string {
	switch event {
	case workflow.EventSubmitForServiceApproval:
		return "submitted for service approval"
	case workflow.EventApproveByServiceManager:
		return "approved by a service manager"
	case workflow.EventApproveByDG:
		return "approved by the general director"
	case workflow.EventReject:
		return "rejected"
	case workflow.EventReturnToDraft:
		return "returned to draft"
	case workflow.EventClientAccept:
		return "accepted by the client"
	case workflow.EventClientReject:
		return "rejected by the client"
	case workflow.EventExpire:
		return "expired"
	}
	return string(event)
}
