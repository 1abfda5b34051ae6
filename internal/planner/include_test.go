package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"blogql/internal/fieldset"
)

func TestPlanBlogIncludesRelationsFollowSelection(t *testing.T) {
	sel := fieldset.New("id", "title", "likesCount").
		Set("author", fieldset.New("username")).
		Set("comments", fieldset.New("content"))

	inc := PlanBlogIncludes(sel, 0)
	assert.True(t, inc.Author)
	assert.True(t, inc.Comments)
	assert.False(t, inc.Likes)
	assert.False(t, inc.Bookmarks)
	assert.True(t, inc.LikesCount)
	assert.False(t, inc.CommentsCount)
}

func TestPlanBlogIncludesViewerScopedFlags(t *testing.T) {
	sel := fieldset.New("hasLiked", "hasBookmarked")

	anon := PlanBlogIncludes(sel, 0)
	assert.False(t, anon.ViewerLiked, "anonymous viewers never trigger scoped lookups")
	assert.False(t, anon.ViewerBookmarked)

	viewer := PlanBlogIncludes(sel, 42)
	assert.True(t, viewer.ViewerLiked)
	assert.True(t, viewer.ViewerBookmarked)
}

func TestPlanBlogIncludesEmptyRelationNotIncluded(t *testing.T) {
	// Requesting the relation field with no sub-fields is treated as not
	// requested; the transformer would have nothing to shape anyway.
	sel := fieldset.New("id", "author")
	inc := PlanBlogIncludes(sel, 0)
	assert.False(t, inc.Author)
	assert.False(t, inc.Any())

	assert.True(t, PlanBlogIncludes(fieldset.New("likesCount"), 0).Any())
}

func TestPlanUserIncludes(t *testing.T) {
	sel := fieldset.New("username", "followerCount", "isFollowing")

	anon := PlanUserIncludes(sel, 0)
	assert.True(t, anon.FollowerCount)
	assert.False(t, anon.FollowingCount)
	assert.False(t, anon.ViewerFollows)

	viewer := PlanUserIncludes(sel, 7)
	assert.True(t, viewer.ViewerFollows)
}

func TestPlanCommentIncludes(t *testing.T) {
	sel := fieldset.New("content", "likeCount", "replyCount").
		Set("replies", fieldset.New("content", "hasLiked").Set("user", fieldset.New("username")))

	inc := PlanCommentIncludes(sel, 7)
	assert.True(t, inc.User, "reply user selection forces user include")
	assert.True(t, inc.UserFields.Has("username"), "user fetch carries the requested sub-fields")
	assert.True(t, inc.Replies)
	assert.True(t, inc.ReplyCount)
	assert.True(t, inc.LikeCount)
	assert.True(t, inc.ViewerLiked, "hasLiked on replies triggers viewer lookup")

	anon := PlanCommentIncludes(sel, 0)
	assert.False(t, anon.ViewerLiked)
}

func TestBlogColumnsImageConditional(t *testing.T) {
	assert.NotContains(t, BlogColumns(fieldset.New("id", "title")), "image")
	assert.Contains(t, BlogColumns(fieldset.New("image")), "image")
	assert.Contains(t, UserColumns(fieldset.New("image")), "image")
	assert.NotContains(t, UserColumns(fieldset.New("username")), "image")
}
