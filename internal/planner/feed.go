package planner

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"blogql/internal/fieldset"
	"blogql/internal/sqlutil"
)

// FeedPlan holds the planned SQL for one feed page: the row query and the
// independent count query. The two are issued concurrently by the store.
type FeedPlan struct {
	Rows  SQLQuery
	Count SQLQuery
	Page  Page
}

// ForYouSignals are the viewer's personalization inputs, fetched before
// planning: the union of genre tags across liked blogs, the followed
// author ids, and the already-liked blog ids to exclude.
type ForYouSignals struct {
	LikedGenres       []string
	FollowedAuthorIDs []int64
	LikedBlogIDs      []int64
}

// ColdStart reports whether the viewer has no personalization signal yet,
// in which case the feed falls back to trending.
func (s ForYouSignals) ColdStart() bool {
	return len(s.LikedGenres) == 0 && len(s.FollowedAuthorIDs) == 0
}

// PlanFeed builds the row and count queries for the general blog listing.
func PlanFeed(sel *fieldset.Selection, filter BlogFilter, mode SortMode, page Page) (*FeedPlan, error) {
	cond, err := filter.Condition()
	if err != nil {
		return nil, err
	}
	return buildFeedPlan(sel, cond, mode.OrderClauses(), page)
}

// PlanForYouFeed builds the personalized feed: blogs sharing a genre with
// the viewer's liked blogs or authored by someone the viewer follows,
// excluding blogs already liked, ranked by like count then recency.
// Callers must handle the cold-start case before planning.
func PlanForYouFeed(sel *fieldset.Selection, signals ForYouSignals, page Page) (*FeedPlan, error) {
	if signals.ColdStart() {
		return nil, fmt.Errorf("for-you feed requires personalization signals")
	}

	var candidates sq.Or
	if len(signals.LikedGenres) > 0 {
		overlap, err := genreOverlap(signals.LikedGenres)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, overlap)
	}
	if len(signals.FollowedAuthorIDs) > 0 {
		candidates = append(candidates, sq.Eq{"`blogs`.`author_id`": signals.FollowedAuthorIDs})
	}

	cond := sq.Sqlizer(candidates)
	if len(signals.LikedBlogIDs) > 0 {
		cond = sq.And{candidates, sq.NotEq{"`blogs`.`id`": signals.LikedBlogIDs}}
	}

	order := []string{likesCountExpr + " DESC", "`blogs`.`created_at` DESC"}
	return buildFeedPlan(sel, cond, order, page)
}

// PlanFollowingFeed builds the follow-graph feed over the given authors.
// An empty author set must be short-circuited by the caller to an empty
// page; planning it is an error rather than a match-everything predicate.
func PlanFollowingFeed(sel *fieldset.Selection, followedAuthorIDs []int64, page Page) (*FeedPlan, error) {
	if len(followedAuthorIDs) == 0 {
		return nil, fmt.Errorf("following feed requires a non-empty author set")
	}
	cond := sq.Eq{"`blogs`.`author_id`": followedAuthorIDs}
	return buildFeedPlan(sel, cond, SortLatest.OrderClauses(), page)
}

// PlanRandomWindow builds a window of limit rows at the given offset under
// a fixed creation-time order. Combined with RandomOffset this samples
// contiguous windows approximately uniformly; it is a discovery feed, not
// statistical sampling.
func PlanRandomWindow(sel *fieldset.Selection, limit, offset int) (SQLQuery, error) {
	query, args, err := sq.Select(blogColumnsQualified(sel)...).
		From("`blogs`").
		OrderBy("`blogs`.`created_at` ASC", "`blogs`.`id` ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanBlogCount builds the unfiltered corpus count query.
func PlanBlogCount() (SQLQuery, error) {
	query, args, err := sq.Select("COUNT(*)").From("`blogs`").PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// RandomOffset draws a window offset in [0, max(0, total-limit)] using the
// provided uniform source (rand.Intn in production).
func RandomOffset(totalCount, limit int, intn func(int) int) int {
	maxSkip := totalCount - limit
	if maxSkip <= 0 {
		return 0
	}
	return intn(maxSkip + 1)
}

func buildFeedPlan(sel *fieldset.Selection, cond sq.Sqlizer, order []string, page Page) (*FeedPlan, error) {
	rows := sq.Select(blogColumnsQualified(sel)...).
		From("`blogs`").
		OrderBy(order...).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		PlaceholderFormat(sq.Question)
	count := sq.Select("COUNT(*)").From("`blogs`").PlaceholderFormat(sq.Question)

	if cond != nil {
		rows = rows.Where(cond)
		count = count.Where(cond)
	}

	rowsSQL, rowsArgs, err := rows.ToSql()
	if err != nil {
		return nil, err
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, err
	}

	return &FeedPlan{
		Rows:  SQLQuery{SQL: rowsSQL, Args: rowsArgs},
		Count: SQLQuery{SQL: countSQL, Args: countArgs},
		Page:  page,
	}, nil
}

func blogColumnsQualified(sel *fieldset.Selection) []string {
	cols := BlogColumns(sel)
	qualified := make([]string, len(cols))
	for i, col := range cols {
		qualified[i] = "`blogs`." + sqlutil.QuoteIdentifier(col)
	}
	return qualified
}
