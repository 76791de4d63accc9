package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a successful mutation.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	Action     string         `gorm:"type:varchar(60);not null;index" json:"action"`
	Resource   string         `gorm:"type:varchar(50);not null;index" json:"resource"`
	ResourceID *uuid.UUID     `gorm:"type:uuid;index" json:"resourceId,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	IPAddress  string         `gorm:"type:varchar(64)" json:"ipAddress,omitempty"`
	UserAgent  string         `gorm:"type:text" json:"userAgent,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName returns the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditActionLogin            = "LOGIN"
	AuditActionCreate           = "CREATE"
	AuditActionUpdate           = "UPDATE"
	AuditActionSubmit           = "SUBMIT_FOR_SERVICE_APPROVAL"
	AuditActionApproveService   = "APPROVE_BY_SERVICE_MANAGER"
	AuditActionApproveDG        = "APPROVE_BY_DG"
	AuditActionReject           = "REJECT"
	AuditActionReturnToDraft    = "RETURN_TO_DRAFT"
	AuditActionClientAccept     = "CLIENT_ACCEPT"
	AuditActionClientReject     = "CLIENT_REJECT"
	AuditActionExpire           = "EXPIRE"
	AuditActionCreateFromQuote  = "CREATE_FROM_QUOTE"
	AuditActionSend             = "SEND"
	AuditActionCancel           = "CANCEL"
	AuditActionRecordPayment    = "RECORD_PAYMENT"
	AuditActionSetPermissions   = "SET_PERMISSIONS"
	AuditActionResetPermissions = "RESET_PERMISSIONS"
	AuditActionExport           = "EXPORT"
)

// Audited resources
const (
	ResourceQuote    = "quote"
	ResourceInvoice  = "invoice"
	ResourcePayment  = "payment"
	ResourceCustomer = "customer"
	ResourceUser     = "user"
	ResourceService  = "service"
	ResourceReport   = "report"
)
