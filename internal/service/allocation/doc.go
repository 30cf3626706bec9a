// Package allocation implements the engine that binds pool entries to
// tenants exactly once.
//
// Allocation is a claim race by design: concurrent runs filter the same
// candidate set and each candidate is taken with a contention-skipping
// claim (TryClaim), so losing a race is cheap — the loser moves on to
// the next candidate instead of blocking or erroring. Exclusivity is
// guaranteed by the storage layer, not by in-process locks.
package allocation
