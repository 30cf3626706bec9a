package domain

import "time"

// Tenant is a paying client of the platform. CreatedAt drives the
// email warmup window in the admission checklist.
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AccountAgeDays returns the whole days elapsed since the tenant was
// created, as seen from now.
func (t Tenant) AccountAgeDays(now time.Time) int {
	return int(now.Sub(t.CreatedAt).Hours() / 24)
}
