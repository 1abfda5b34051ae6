package planner

// Correlated count subqueries used for engagement-ranked orderings.
// MySQL evaluates these per row in ORDER BY without requiring the count
// in the projection.
const (
	likesCountExpr    = "(SELECT COUNT(*) FROM `likes` WHERE `likes`.`blog_id` = `blogs`.`id`)"
	commentsCountExpr = "(SELECT COUNT(*) FROM `comments` WHERE `comments`.`blog_id` = `blogs`.`id`)"
)

// SortMode enumerates the feed orderings.
type SortMode string

const (
	SortLatest        SortMode = "latest"
	SortOldest        SortMode = "oldest"
	SortMostLiked     SortMode = "most_liked"
	SortMostCommented SortMode = "most_commented"
	SortTrending      SortMode = "trending"
)

// OrderClauses returns the SQL ORDER BY terms for the mode. Unknown modes
// fall back to latest. Trending breaks ties by like count, then comment
// count, then recency, in that priority order.
func (m SortMode) OrderClauses() []string {
	switch m {
	case SortOldest:
		return []string{"`blogs`.`created_at` ASC"}
	case SortMostLiked:
		return []string{likesCountExpr + " DESC", "`blogs`.`created_at` DESC"}
	case SortMostCommented:
		return []string{commentsCountExpr + " DESC", "`blogs`.`created_at` DESC"}
	case SortTrending:
		return []string{
			likesCountExpr + " DESC",
			commentsCountExpr + " DESC",
			"`blogs`.`created_at` DESC",
		}
	default:
		return []string{"`blogs`.`created_at` DESC"}
	}
}
