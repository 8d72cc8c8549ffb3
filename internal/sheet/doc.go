// Package sheet models the raw tabular data fetched from the project
// spreadsheet: a header row plus ordered data rows whose cells can be read
// either by header name or by column position.
//
// Column positions are significant. A few columns (the raw project type and
// the presentation link) are read by index rather than header, so rows keep
// their original cell order and trailing cells may be absent.
package sheet
