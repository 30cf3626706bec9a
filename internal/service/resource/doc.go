// Package resource manages shared sending assets (email domains, phone
// numbers, social seats) and their health-derived daily capacity.
//
// Health is recomputed from a rolling window of send outcomes by the
// maintenance job, never from the hot send path. Capacity reads are
// pure derivations over the stored entry and today's usage counter.
package resource
