package planner

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// BlogFilter narrows a feed listing. Zero values mean "no constraint".
type BlogFilter struct {
	Genres        []string
	Search        string
	AuthorID      int64
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Condition builds the WHERE predicate for the filter, or nil when the
// filter is empty.
func (f BlogFilter) Condition() (sq.Sqlizer, error) {
	var conds []sq.Sqlizer

	if len(f.Genres) > 0 {
		overlap, err := genreOverlap(f.Genres)
		if err != nil {
			return nil, err
		}
		conds = append(conds, overlap)
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		conds = append(conds, sq.Or{
			sq.Expr("`blogs`.`title` LIKE ?", pattern),
			sq.Expr("JSON_SEARCH(`blogs`.`content`, 'one', ?) IS NOT NULL", pattern),
		})
	}

	if f.AuthorID != 0 {
		conds = append(conds, sq.Eq{"`blogs`.`author_id`": f.AuthorID})
	}

	if f.CreatedAfter != nil {
		conds = append(conds, sq.GtOrEq{"`blogs`.`created_at`": *f.CreatedAfter})
	}
	if f.CreatedBefore != nil {
		conds = append(conds, sq.LtOrEq{"`blogs`.`created_at`": *f.CreatedBefore})
	}

	switch len(conds) {
	case 0:
		return nil, nil
	case 1:
		return conds[0], nil
	default:
		return sq.And(conds), nil
	}
}

// genreOverlap matches blogs whose genre array shares any tag with the
// given list. Genre is stored as a JSON string array.
func genreOverlap(genres []string) (sq.Sqlizer, error) {
	encoded, err := json.Marshal(genres)
	if err != nil {
		return nil, fmt.Errorf("encode genre filter: %w", err)
	}
	return sq.Expr("JSON_OVERLAPS(`blogs`.`genre`, CAST(? AS JSON))", string(encoded)), nil
}
