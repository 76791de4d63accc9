package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the workflow state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft                       QuoteStatus = "DRAFT"
	QuoteStatusSubmittedForServiceApproval QuoteStatus = "SUBMITTED_FOR_SERVICE_APPROVAL"
	QuoteStatusApprovedByServiceManager    QuoteStatus = "APPROVED_BY_SERVICE_MANAGER"
	QuoteStatusRejectedByServiceManager    QuoteStatus = "REJECTED_BY_SERVICE_MANAGER"
	QuoteStatusSubmittedForDGApproval      QuoteStatus = "SUBMITTED_FOR_DG_APPROVAL"
	QuoteStatusApprovedByDG                QuoteStatus = "APPROVED_BY_DG"
	QuoteStatusRejectedByDG                QuoteStatus = "REJECTED_BY_DG"
	QuoteStatusAcceptedByClient            QuoteStatus = "ACCEPTED_BY_CLIENT"
	QuoteStatusRejectedByClient            QuoteStatus = "REJECTED_BY_CLIENT"
	QuoteStatusExpired                     QuoteStatus = "EXPIRED"
)

// AllQuoteStatuses lists every declared status.
var AllQuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusSubmittedForServiceApproval,
	QuoteStatusApprovedByServiceManager,
	QuoteStatusRejectedByServiceManager,
	QuoteStatusSubmittedForDGApproval,
	QuoteStatusApprovedByDG,
	QuoteStatusRejectedByDG,
	QuoteStatusAcceptedByClient,
	QuoteStatusRejectedByClient,
	QuoteStatusExpired,
}

// IsValid reports whether s is a declared status.
func (s QuoteStatus) IsValid() bool {
	for _, known := range AllQuoteStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PostDGApprovalStatuses are the states visible to accountants.
var PostDGApprovalStatuses = []QuoteStatus{
	QuoteStatusApprovedByDG,
	QuoteStatusAcceptedByClient,
	QuoteStatusRejectedByClient,
}

// ApprovalLevel is one stage of the approval pipeline.
type ApprovalLevel string

const (
	ApprovalLevelServiceManager  ApprovalLevel = "SERVICE_MANAGER"
	ApprovalLevelGeneralDirector ApprovalLevel = "GENERAL_DIRECTOR"
)

// ApprovalStatus is the decision recorded at one level.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Quote is a priced offer to a customer that goes through approval.
type Quote struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Number     string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"number"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customerId"`
	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null;index" json:"createdBy"`
	ServiceID  *uuid.UUID `gorm:"type:uuid;index" json:"serviceId,omitempty"`

	IssueDate  time.Time  `gorm:"type:date;not null" json:"issueDate"`
	ValidUntil *time.Time `gorm:"type:date" json:"validUntil,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`

	// Frozen at creation.
	SubtotalHT float64 `gorm:"type:decimal(15,2);not null" json:"subtotalHt"`
	TotalVAT   float64 `gorm:"type:decimal(15,2);not null" json:"totalVat"`
	TotalTTC   float64 `gorm:"type:decimal(15,2);not null" json:"totalTtc"`

	Status  QuoteStatus `gorm:"type:varchar(40);not null;default:'DRAFT';index" json:"status"`
	Version int         `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Items     []QuoteItem     `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
	Approvals []QuoteApproval `gorm:"foreignKey:QuoteID" json:"approvals,omitempty"`
	Customer  *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName returns the table name for Quote
func (Quote) TableName() string {
	return "quotes"
}

// ApprovalFor returns the approval record at level, if any.
func (q *Quote) ApprovalFor(level ApprovalLevel) *QuoteApproval {
	for i := range q.Approvals {
		if q.Approvals[i].ApprovalLevel == level {
			return &q.Approvals[i]
		}
	}
	return nil
}

// QuoteItem is one priced line of a quote.
type QuoteItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QuoteID     uuid.UUID `gorm:"type:uuid;not null;index" json:"quoteId"`
	Position    int       `gorm:"not null" json:"position"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Quantity    float64   `gorm:"type:decimal(15,3);not null" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(15,2);not null" json:"unitPrice"`
	VATRate     float64   `gorm:"type:decimal(5,2);not null" json:"vatRate"`
	TotalHT     float64   `gorm:"type:decimal(15,2);not null" json:"totalHt"`
}

// TableName returns the table name for QuoteItem
func (QuoteItem) TableName() string {
	return "quote_items"
}

// QuoteApproval records the decision at one approval level. There is at most
// one row per (quote, level).
type QuoteApproval struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QuoteID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_quote_approvals_quote_level" json:"quoteId"`
	ApprovalLevel ApprovalLevel  `gorm:"type:varchar(30);not null;uniqueIndex:idx_quote_approvals_quote_level" json:"approvalLevel"`
	ApproverID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"approverId"`
	Status        ApprovalStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Comments      string         `gorm:"type:text" json:"comments,omitempty"`
	ApprovedAt    *time.Time     `json:"approvedAt,omitempty"`
	RejectedAt    *time.Time     `json:"rejectedAt,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for QuoteApproval
func (QuoteApproval) TableName() string {
	return "quote_approvals"
}
