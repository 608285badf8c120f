package domain

import "time"

// DepartmentAll is the wildcard department on SLA configurations.
const DepartmentAll = "All"

// SLAConfig maps a category and department to response/resolution targets.
type SLAConfig struct {
	ID               string
	CategoryID       string
	Department       string
	ResponseHours    int
	ResolutionHours  int
	UseBusinessHours bool
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
