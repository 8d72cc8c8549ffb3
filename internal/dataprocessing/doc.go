// Package dataprocessing turns raw sheet rows into projects and computes the
// dashboard aggregates over them.
//
// The Normalizer maps one sheet.RawRow to a domain.Project: canonical
// status, Spanish day-month dates resolved against the current year,
// European amounts, progress through the five milestones and the critical
// flag. Everything else in the package is a pure function over
// []domain.Project:
//
//	projects := normalizer.NormalizeAll(table, now)
//	visible := dataprocessing.Filter(projects, filter)
//	summary := dataprocessing.Summarize(visible, now)
//
// Functions never mutate their input; SortByDeadline returns a sorted copy.
package dataprocessing
