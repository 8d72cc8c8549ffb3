// Package source fetches the raw project sheet.
//
// Two implementations exist: SheetsSource reads a range through the Google
// Sheets v4 API and WorkbookSource reads a local .xlsx file with excelize.
// Both return a *sheet.Table whose first row is the header.
package source
