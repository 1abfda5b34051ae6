// Package planner turns a requested field set plus query arguments into
// concrete fetch specifications: which columns to select, which relations
// to eagerly include, and the SQL for feed listings.
package planner

// SQLQuery represents a planned SQL statement with bound args.
type SQLQuery struct {
	SQL  string
	Args []interface{}
}
