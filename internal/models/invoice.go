package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// Invoice bills a customer, usually from an approved quote.
type Invoice struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Number     string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"number"`
	QuoteID    *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"quoteId,omitempty"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customerId"`
	ServiceID  *uuid.UUID `gorm:"type:uuid;index" json:"serviceId,omitempty"`
	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`

	IssueDate time.Time `gorm:"type:date;not null" json:"issueDate"`
	DueDate   time.Time `gorm:"type:date;not null" json:"dueDate"`

	SubtotalHT float64 `gorm:"type:decimal(15,2);not null" json:"subtotalHt"`
	TotalVAT   float64 `gorm:"type:decimal(15,2);not null" json:"totalVat"`
	TotalTTC   float64 `gorm:"type:decimal(15,2);not null" json:"totalTtc"`
	AmountPaid float64 `gorm:"type:decimal(15,2);not null;default:0" json:"amountPaid"`

	Status InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Notes  string        `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// TableName returns the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Balance is the amount still owed.
func (i *Invoice) Balance() float64 {
	return RoundMoney(i.TotalTTC - i.AmountPaid)
}

// InvoiceItem is one billed line, copied from the quote line.
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoiceId"`
	Position    int       `gorm:"not null" json:"position"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Quantity    float64   `gorm:"type:decimal(15,3);not null" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(15,2);not null" json:"unitPrice"`
	VATRate     float64   `gorm:"type:decimal(5,2);not null" json:"vatRate"`
	TotalHT     float64   `gorm:"type:decimal(15,2);not null" json:"totalHt"`
}

// TableName returns the table name for InvoiceItem
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
)

// IsValid reports whether m is a declared payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCard, PaymentMethodMobileMoney:
		return true
	}
	return false
}

// Payment is money received against an invoice.
type Payment struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"invoiceId"`
	Amount     float64       `gorm:"type:decimal(15,2);not null" json:"amount"`
	Method     PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Reference  string        `gorm:"type:varchar(100)" json:"reference,omitempty"`
	PaidAt     time.Time     `gorm:"not null" json:"paidAt"`
	RecordedBy uuid.UUID     `gorm:"type:uuid;not null" json:"recordedBy"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
