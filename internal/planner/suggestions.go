package planner

import (
	sq "github.com/Masterminds/squirrel"

	"blogql/internal/fieldset"
	"blogql/internal/sqlutil"
)

// DefaultSuggestionLimit is the fallback page size for follower suggestions.
const DefaultSuggestionLimit = 10

// PlanFollowerSuggestions builds the cursor-paginated suggestion query:
// every user except the viewer, ordered by id ascending, starting after
// the last-seen id. One extra row beyond the limit is fetched so the
// caller can tell whether more pages exist.
func PlanFollowerSuggestions(sel *fieldset.Selection, viewerID, afterID int64, limit int) (SQLQuery, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	builder := sq.Select(userColumnsQualified(sel)...).
		From("`users`").
		Where(sq.NotEq{"`users`.`id`": viewerID}).
		OrderBy("`users`.`id` ASC").
		Limit(uint64(limit + 1)).
		PlaceholderFormat(sq.Question)
	if afterID > 0 {
		builder = builder.Where(sq.Gt{"`users`.`id`": afterID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

func userColumnsQualified(sel *fieldset.Selection) []string {
	cols := UserColumns(sel)
	qualified := make([]string, len(cols))
	for i, col := range cols {
		qualified[i] = "`users`." + sqlutil.QuoteIdentifier(col)
	}
	return qualified
}
