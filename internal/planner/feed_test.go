package planner

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogql/internal/fieldset"
)

func TestPlanFeedProjectionExcludesImageUnlessRequested(t *testing.T) {
	sel := fieldset.New("id", "title")
	plan, err := PlanFeed(sel, BlogFilter{}, SortLatest, NormalizePage(1, 10))
	require.NoError(t, err)
	assert.NotContains(t, plan.Rows.SQL, "`blogs`.`image`")

	sel = fieldset.New("id", "title", "image")
	plan, err = PlanFeed(sel, BlogFilter{}, SortLatest, NormalizePage(1, 10))
	require.NoError(t, err)
	assert.Contains(t, plan.Rows.SQL, "`blogs`.`image`")
}

func TestPlanFeedPagination(t *testing.T) {
	plan, err := PlanFeed(fieldset.New("id"), BlogFilter{}, SortLatest, NormalizePage(3, 10))
	require.NoError(t, err)
	assert.Contains(t, plan.Rows.SQL, "LIMIT 10")
	assert.Contains(t, plan.Rows.SQL, "OFFSET 20")
	assert.NotContains(t, plan.Count.SQL, "LIMIT")
}

func TestPlanFeedTrendingOrder(t *testing.T) {
	plan, err := PlanFeed(fieldset.New("id"), BlogFilter{}, SortTrending, NormalizePage(1, 10))
	require.NoError(t, err)

	sql := plan.Rows.SQL
	likes := "(SELECT COUNT(*) FROM `likes` WHERE `likes`.`blog_id` = `blogs`.`id`) DESC"
	comments := "(SELECT COUNT(*) FROM `comments` WHERE `comments`.`blog_id` = `blogs`.`id`) DESC"
	iLikes := indexOf(t, sql, likes)
	iComments := indexOf(t, sql, comments)
	iCreated := indexOf(t, sql, "`blogs`.`created_at` DESC")
	assert.Less(t, iLikes, iComments, "like count must rank before comment count")
	assert.Less(t, iComments, iCreated, "comment count must rank before recency")
}

func TestPlanFeedFilters(t *testing.T) {
	filter := BlogFilter{
		Genres:   []string{"tech", "go"},
		Search:   "generics",
		AuthorID: 9,
	}
	plan, err := PlanFeed(fieldset.New("id"), filter, SortLatest, NormalizePage(1, 10))
	require.NoError(t, err)

	assert.Contains(t, plan.Rows.SQL, "JSON_OVERLAPS(`blogs`.`genre`, CAST(? AS JSON))")
	assert.Contains(t, plan.Rows.SQL, "`blogs`.`title` LIKE ?")
	assert.Contains(t, plan.Rows.SQL, "JSON_SEARCH(`blogs`.`content`, 'one', ?) IS NOT NULL")
	assert.Contains(t, plan.Rows.SQL, "`blogs`.`author_id` = ?")
	assert.Contains(t, plan.Rows.Args, `["tech","go"]`)
	assert.Contains(t, plan.Rows.Args, "%generics%")

	// Count query carries the same predicate.
	assert.Contains(t, plan.Count.SQL, "JSON_OVERLAPS")
	assert.Contains(t, plan.Count.Args, int64(9))
}

func TestPlanForYouFeed(t *testing.T) {
	signals := ForYouSignals{
		LikedGenres:       []string{"tech"},
		FollowedAuthorIDs: []int64{3, 4},
		LikedBlogIDs:      []int64{11, 12},
	}
	plan, err := PlanForYouFeed(fieldset.New("id"), signals, NormalizePage(1, 10))
	require.NoError(t, err)

	assert.Contains(t, plan.Rows.SQL, "JSON_OVERLAPS")
	assert.Contains(t, plan.Rows.SQL, "`blogs`.`author_id` IN (?,?)")
	assert.Contains(t, plan.Rows.SQL, "`blogs`.`id` NOT IN (?,?)")
	likes := "(SELECT COUNT(*) FROM `likes` WHERE `likes`.`blog_id` = `blogs`.`id`) DESC"
	assert.Less(t, indexOf(t, plan.Rows.SQL, likes), indexOf(t, plan.Rows.SQL, "`blogs`.`created_at` DESC"))
}

func TestPlanForYouFeedColdStartRejected(t *testing.T) {
	_, err := PlanForYouFeed(fieldset.New("id"), ForYouSignals{LikedBlogIDs: []int64{1}}, NormalizePage(1, 10))
	assert.Error(t, err)
	assert.True(t, ForYouSignals{}.ColdStart())
	assert.False(t, ForYouSignals{LikedGenres: []string{"x"}}.ColdStart())
	assert.False(t, ForYouSignals{FollowedAuthorIDs: []int64{1}}.ColdStart())
}

func TestPlanFollowingFeed(t *testing.T) {
	plan, err := PlanFollowingFeed(fieldset.New("id"), []int64{5, 6}, NormalizePage(1, 10))
	require.NoError(t, err)
	assert.Contains(t, plan.Rows.SQL, "`blogs`.`author_id` IN (?,?)")
	assert.Contains(t, plan.Rows.SQL, "`blogs`.`created_at` DESC")

	_, err = PlanFollowingFeed(fieldset.New("id"), nil, NormalizePage(1, 10))
	assert.Error(t, err, "empty author set must be short-circuited by the caller")
}

func TestRandomOffsetBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		offset := RandomOffset(100, 10, rng.Intn)
		assert.GreaterOrEqual(t, offset, 0)
		assert.LessOrEqual(t, offset, 90)
	}

	assert.Equal(t, 0, RandomOffset(5, 10, rng.Intn), "corpus smaller than page pins offset to zero")
	assert.Equal(t, 0, RandomOffset(0, 10, rng.Intn))
}

func TestPlanRandomWindowFixedOrder(t *testing.T) {
	q, err := PlanRandomWindow(fieldset.New("id"), 10, 37)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "ORDER BY `blogs`.`created_at` ASC, `blogs`.`id` ASC")
	assert.Contains(t, q.SQL, "LIMIT 10 OFFSET 37")
}

func TestPlanFollowerSuggestions(t *testing.T) {
	q, err := PlanFollowerSuggestions(fieldset.New("id", "username"), 2, 15, 10)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "`users`.`id` <> ?")
	assert.Contains(t, q.SQL, "`users`.`id` > ?")
	assert.Contains(t, q.SQL, "ORDER BY `users`.`id` ASC")
	assert.Contains(t, q.SQL, "LIMIT 11")

	// No cursor: no seek condition.
	q, err = PlanFollowerSuggestions(fieldset.New("id"), 2, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "`users`.`id` > ?")
	assert.Contains(t, q.SQL, "LIMIT 11")
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "expected %q to contain %q", s, sub)
	return idx
}
