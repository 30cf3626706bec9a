package domain

import "time"

// ResourceType identifies the kind of shared sending asset.
type ResourceType string

const (
	ResourceEmailDomain ResourceType = "email_domain"
	ResourcePhoneNumber ResourceType = "phone_number"
	ResourceSocialSeat  ResourceType = "social_seat"
)

// ResourceStatus is the provisioning lifecycle of a sending resource.
// Health is tracked separately: a resource can be active yet critical.
type ResourceStatus string

const (
	ResourceProvisioned ResourceStatus = "provisioned"
	ResourceWarming     ResourceStatus = "warming"
	ResourceActive      ResourceStatus = "active"
	ResourceRetired     ResourceStatus = "retired"
)

// HealthStatus classifies a resource by its rolling quality metrics.
type HealthStatus string

const (
	HealthGood     HealthStatus = "good"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// ResourceEntry is a shared sending asset (email domain, phone number,
// social seat) with a health-derived daily capacity.
type ResourceEntry struct {
	ID              string         `json:"id" db:"id"`
	TenantID        string         `json:"tenant_id" db:"tenant_id"`
	ResourceType    ResourceType   `json:"resource_type" db:"resource_type"`
	Identifier      string         `json:"identifier" db:"identifier"` // e.g. the domain or E.164 number
	Status          ResourceStatus `json:"status" db:"status"`
	HealthStatus    HealthStatus   `json:"health_status" db:"health_status"`
	Sends30d        int            `json:"sends_30d" db:"sends_30d"`
	Bounces30d      int            `json:"bounces_30d" db:"bounces_30d"`
	Complaints30d   int            `json:"complaints_30d" db:"complaints_30d"`
	DailyLimit      int            `json:"daily_limit" db:"daily_limit"`
	ReputationScore float64        `json:"reputation_score" db:"reputation_score"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// SendOutcome is a terminal delivery fact reported back by a channel
// sender. Outcomes feed the rolling health windows.
type SendOutcome string

const (
	OutcomeDelivered SendOutcome = "delivered"
	OutcomeBounced   SendOutcome = "bounced"
	OutcomeComplaint SendOutcome = "complaint"
)

// Capacity is the computed sending budget for a resource today.
type Capacity struct {
	ResourceID           string       `json:"resource_id"`
	DailyLimit           int          `json:"daily_limit"`
	UsedToday            int          `json:"used_today"`
	Remaining            int          `json:"remaining"`
	ResponseBuffer       int          `json:"response_buffer"`
	AvailableForOutbound int          `json:"available_for_outbound"`
	HealthStatus         HealthStatus `json:"health_status"`
}
