// Package suppression implements the tenant-scoped do-not-contact list.
//
// Each tenant maintains its own list of emails it must never contact:
// existing customers, competitors, manual additions. The admission path
// performs a point lookup by (tenant, email) before every send; entries
// are immutable once created and only ever removed explicitly.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package suppression
