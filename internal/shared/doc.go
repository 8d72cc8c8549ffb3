// Package shared holds helpers used across packages. The testutil
// subpackage provides a capturing slog handler and spreadsheet fixtures for
// tests; nothing in it is imported by production code.
package shared
