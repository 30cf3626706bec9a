package admission

import "github.com/ignite/lead-engine/internal/domain"

// BlockCode identifies which checklist stage denied a send. Denials
// are expected outcomes, not faults.
type BlockCode string

const (
	BlockNone                 BlockCode = ""
	BlockLeadNotFound         BlockCode = "lead_not_found"
	BlockBouncedGlobally      BlockCode = "bounced_globally"
	BlockUnsubscribedGlobally BlockCode = "unsubscribed_globally"
	BlockInvalidEmail         BlockCode = "invalid_email"
	BlockNotAssigned          BlockCode = "not_assigned"
	BlockMaxTouchesReached    BlockCode = "max_touches_reached"
	BlockCoolingPeriod        BlockCode = "cooling_period"
	BlockTooRecent            BlockCode = "too_recent"
	BlockWarmupNotReady       BlockCode = "warmup_not_ready"
	BlockInternalError        BlockCode = "internal_error"
)

// PoolStatusBlock returns the code for a terminal pool status,
// e.g. pool_status_bounced.
func PoolStatusBlock(s domain.PoolStatus) BlockCode {
	return BlockCode("pool_status_" + string(s))
}

// SuppressedBlock returns the code for a tenant suppression match,
// e.g. suppressed_competitor.
func SuppressedBlock(r domain.SuppressionReason) BlockCode {
	return BlockCode("suppressed_" + string(r))
}

// RepliedBlock returns the code for a blocking reply intent,
// e.g. replied_unsubscribe.
func RepliedBlock(i domain.ReplyIntent) BlockCode {
	return BlockCode("replied_" + string(i))
}

// RateLimitBlock returns the code for an exhausted channel ceiling,
// e.g. rate_limit_email.
func RateLimitBlock(c domain.Channel) BlockCode {
	return BlockCode("rate_limit_" + string(c))
}

// Decision is the structured result of a Validate call.
type Decision struct {
	Allowed bool      `json:"allowed"`
	Code    BlockCode `json:"block_code,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

func deny(code BlockCode, reason string) Decision {
	return Decision{Allowed: false, Code: code, Reason: reason}
}

func allow() Decision {
	return Decision{Allowed: true}
}
