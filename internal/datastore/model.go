// model.go this code defines the data model for the application
package datastore

// Report represents a single persisted triage report. Rows are append-only:
// the application never mutates or deletes a report once written.
type Report struct {
	ID        uint    `gorm:"primaryKey"`
	Category  string  `gorm:"index:idx_reports_category"`
	WhatIsIt  string  `gorm:"column:whatIsIt;index:idx_reports_whatisit"`
	Latitude  float64
	Longitude float64
	Timestamp string `gorm:"index:idx_reports_timestamp"`
	Priority  int
}
