// Package shared holds helpers used across packages without belonging to
// any layer. The testutil subpackage captures slog records in tests.
package shared
