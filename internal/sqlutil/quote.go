// Package sqlutil holds small helpers for hand-assembled SQL fragments.
package sqlutil

import "strings"

// QuoteIdentifier wraps a column or table name in backticks, doubling any
// embedded backtick so the identifier stays a single token.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
