// Package pool implements the global lead pool store.
//
// The pool is the single deduplicated repository of enriched contact
// identities, keyed by normalized email. Records flow in from the
// enrichment feed, get claimed by tenants through the allocation
// engine, and are permanently retired on bounce or unsubscribe.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package pool
