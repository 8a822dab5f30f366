// Package slug turns arbitrary strings into URL-safe identifiers.
//
//	slug.Make("Café & Restaurant")          // "cafe-restaurant"
//	slug.Make("Weekly Check-in", slug.Separator("_")) // "weekly_check_in"
//
// Latin diacritics are folded to ASCII; characters outside [a-z0-9] become
// separators, and runs of separators collapse.
package slug
