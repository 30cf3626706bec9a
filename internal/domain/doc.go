// Package domain contains the core types shared across the lead
// allocation engine: pool entries, assignments, sending resources,
// suppressions and tenants.
//
// Types here are pure data. Business rules live in the service
// packages; persistence lives in the repository packages. Nothing in
// this package imports database/sql or net/http.
package domain
