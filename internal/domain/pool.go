package domain

import "time"

// EmailStatus is the verification state of a pool entry's email address.
type EmailStatus string

const (
	EmailVerified EmailStatus = "verified"
	EmailGuessed  EmailStatus = "guessed"
	EmailInvalid  EmailStatus = "invalid"
	EmailCatchAll EmailStatus = "catch_all"
	EmailUnknown  EmailStatus = "unknown"
)

// PoolStatus tracks where a pool entry sits in the allocation lifecycle.
type PoolStatus string

const (
	PoolAvailable    PoolStatus = "available"
	PoolAssigned     PoolStatus = "assigned"
	PoolConverted    PoolStatus = "converted"
	PoolBounced      PoolStatus = "bounced"
	PoolUnsubscribed PoolStatus = "unsubscribed"
	PoolInvalid      PoolStatus = "invalid"
)

// Blocked reports whether the status permanently blocks outbound contact.
// Converted is terminal too, but it is not a contact block — converted
// leads are handled by the assignment state checks.
func (s PoolStatus) Blocked() bool {
	return s == PoolBounced || s == PoolUnsubscribed || s == PoolInvalid
}

// PoolEntry is a globally deduplicated enriched contact identity, keyed
// by normalized email. It is shared across all tenants until claimed.
type PoolEntry struct {
	ID             string      `json:"id" db:"id"`
	Email          string      `json:"email" db:"email"`
	FirstName      string      `json:"first_name" db:"first_name"`
	LastName       string      `json:"last_name" db:"last_name"`
	Title          string      `json:"title" db:"title"`
	Seniority      string      `json:"seniority" db:"seniority"`
	CompanyName    string      `json:"company_name" db:"company_name"`
	Industry       string      `json:"industry" db:"industry"`
	Country        string      `json:"country" db:"country"`
	EmployeeCount  int         `json:"employee_count" db:"employee_count"`
	Confidence     float64     `json:"confidence" db:"confidence"`
	EmailStatus    EmailStatus `json:"email_status" db:"email_status"`
	PoolStatus     PoolStatus  `json:"pool_status" db:"pool_status"`
	IsBounced      bool        `json:"is_bounced" db:"is_bounced"`
	IsUnsubscribed bool        `json:"is_unsubscribed" db:"is_unsubscribed"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}
