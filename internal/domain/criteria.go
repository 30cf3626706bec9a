package domain

// AllocationCriteria is a tenant's ICP filter for claiming pool
// entries. Optional predicates are nil pointers so that an unset filter
// is distinguishable from a filter on the zero value.
type AllocationCriteria struct {
	Industry      *string       `json:"industry,omitempty"`
	Country       *string       `json:"country,omitempty"`
	EmployeeMin   *int          `json:"employee_min,omitempty"`
	EmployeeMax   *int          `json:"employee_max,omitempty"`
	Seniority     *string       `json:"seniority,omitempty"`
	TitleContains *string       `json:"title_contains,omitempty"`
	EmailStatuses []EmailStatus `json:"email_statuses,omitempty"`
	MaxTouches    int           `json:"max_touches,omitempty"`
}
