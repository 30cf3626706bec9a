package domain

import "time"

// Channel identifies an outbound contact channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelLinkedIn Channel = "linkedin"
	ChannelVoice    Channel = "voice"
	ChannelMail     Channel = "mail"
)

// Channels lists every valid channel. Configuration validation walks
// this list so that a rate limit exists for each.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelLinkedIn, ChannelVoice, ChannelMail}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	for _, k := range Channels {
		if c == k {
			return true
		}
	}
	return false
}

// AssignmentStatus tracks the lifecycle of an exclusive lead binding.
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentReleased  AssignmentStatus = "released"
	AssignmentConverted AssignmentStatus = "converted"
)

// ReplyIntent classifies a recorded reply from the lead.
type ReplyIntent string

const (
	IntentInterested    ReplyIntent = "interested"
	IntentNeutral       ReplyIntent = "neutral"
	IntentNotInterested ReplyIntent = "not_interested"
	IntentUnsubscribe   ReplyIntent = "unsubscribe"
	IntentDoNotContact  ReplyIntent = "do_not_contact"
)

// Negative reports whether the intent blocks further contact.
func (i ReplyIntent) Negative() bool {
	return i == IntentNotInterested || i == IntentUnsubscribe || i == IntentDoNotContact
}

// Assignment is the exclusive binding of one PoolEntry to one tenant.
// At most one active assignment may reference a given pool entry.
type Assignment struct {
	ID              string           `json:"id" db:"id"`
	PoolEntryID     string           `json:"pool_entry_id" db:"pool_entry_id"`
	TenantID        string           `json:"tenant_id" db:"tenant_id"`
	Status          AssignmentStatus `json:"status" db:"status"`
	TotalTouches    int              `json:"total_touches" db:"total_touches"`
	MaxTouches      int              `json:"max_touches" db:"max_touches"`
	ChannelsUsed    []Channel        `json:"channels_used" db:"channels_used"`
	LastContactedAt *time.Time       `json:"last_contacted_at,omitempty" db:"last_contacted_at"`
	CoolingUntil    *time.Time       `json:"cooling_until,omitempty" db:"cooling_until"`
	HasReplied      bool             `json:"has_replied" db:"has_replied"`
	ReplyIntent     ReplyIntent      `json:"reply_intent,omitempty" db:"reply_intent"`
	ReleaseReason   string           `json:"release_reason,omitempty" db:"release_reason"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}
