// Package store persists the last successfully fetched project sheet so a
// restart can serve data before the first refresh completes.
//
// A snapshot keeps the raw cells, not normalized projects: dates in the
// sheet carry no year and critical flags depend on the current day, so
// restored data is normalized again on load.
package store
