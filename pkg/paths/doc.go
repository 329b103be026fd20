// Package paths provides centralized path handling for formulary.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for every directory the installer touches:
// formula descriptors, install receipts, archive staging and the log file.
package paths
