// Package admission implements the pre-send checklist every channel
// sender must pass before attempting contact.
//
// Validate is an ordered, short-circuiting chain: cheap global checks
// run before the stages that touch counters, so a lead that was going
// to be denied anyway rarely consumes quota. The stage order is a
// contract; tests assert exactly which block code fires when several
// conditions hold at once.
//
// Validate is read-only except for the rate-limit counter, whose check
// and increment are a single atomic operation. On any storage or
// counter error the gate fails closed: it denies and surfaces the
// error, and the caller must not send.
package admission
