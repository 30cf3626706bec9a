package domain

import "time"

// SuppressionReason enumerates why a tenant blocked an identity.
type SuppressionReason string

const (
	SuppressExistingCustomer SuppressionReason = "existing_customer"
	SuppressCompetitor       SuppressionReason = "competitor"
	SuppressManual           SuppressionReason = "manual"
)

// Suppression is a tenant-scoped do-not-contact record. Entries are
// immutable once created; the admission path only ever reads them.
type Suppression struct {
	ID        string            `json:"id" db:"id"`
	TenantID  string            `json:"tenant_id" db:"tenant_id"`
	Email     string            `json:"email" db:"email"`
	Reason    SuppressionReason `json:"reason" db:"reason"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
