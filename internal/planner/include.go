package planner

import (
	"blogql/internal/fieldset"
)

// BlogInclude describes which related records and aggregates to fetch
// alongside a page of blogs. Relations are included only when some field
// beneath them was requested; counts are computed by aggregate query
// regardless of whether the relation rows themselves are loaded.
type BlogInclude struct {
	Author    bool
	Comments  bool
	Likes     bool
	Bookmarks bool

	LikesCount     bool
	CommentsCount  bool
	BookmarksCount bool

	// Viewer-scoped single-record lookups. Only set for authenticated
	// viewers; anonymous callers resolve the flags to false without I/O.
	ViewerLiked      bool
	ViewerBookmarked bool
}

// Any reports whether the include requires any related fetch at all.
func (inc BlogInclude) Any() bool {
	return inc.Author || inc.Comments || inc.Likes || inc.Bookmarks ||
		inc.LikesCount || inc.CommentsCount || inc.BookmarksCount ||
		inc.ViewerLiked || inc.ViewerBookmarked
}

// PlanBlogIncludes derives the fetch specification for blogs from the
// requested field set and the viewer's identity (0 for anonymous).
func PlanBlogIncludes(sel *fieldset.Selection, viewerID int64) BlogInclude {
	inc := BlogInclude{
		Author:         !sel.Child("author").IsEmpty(),
		Comments:       !sel.Child("comments").IsEmpty(),
		Likes:          !sel.Child("likes").IsEmpty(),
		Bookmarks:      !sel.Child("bookmarks").IsEmpty(),
		LikesCount:     sel.Has("likesCount"),
		CommentsCount:  sel.Has("commentsCount"),
		BookmarksCount: sel.Has("bookmarksCount"),
	}
	if viewerID != 0 {
		inc.ViewerLiked = sel.Has("hasLiked")
		inc.ViewerBookmarked = sel.Has("hasBookmarked")
	}
	return inc
}

// UserInclude describes related fetches for user records.
type UserInclude struct {
	FollowerCount  bool
	FollowingCount bool
	ViewerFollows  bool
}

// PlanUserIncludes derives the fetch specification for users.
func PlanUserIncludes(sel *fieldset.Selection, viewerID int64) UserInclude {
	inc := UserInclude{
		FollowerCount:  sel.Has("followerCount"),
		FollowingCount: sel.Has("followingCount"),
	}
	if viewerID != 0 {
		inc.ViewerFollows = sel.Has("isFollowing")
	}
	return inc
}

// CommentInclude describes related fetches for comment listings. UserFields
// carries the union of the root and reply user sub-selections so the author
// fetch projects exactly the columns the client asked for.
type CommentInclude struct {
	User        bool
	UserFields  *fieldset.Selection
	Replies     bool
	ReplyCount  bool
	LikeCount   bool
	ViewerLiked bool
}

// PlanCommentIncludes derives the fetch specification for comments. The
// reply sub-selection inherits user/like lookups from its own fields.
func PlanCommentIncludes(sel *fieldset.Selection, viewerID int64) CommentInclude {
	replies := sel.Child("replies")
	userFields := fieldset.Union(sel.Child("user"), replies.Child("user"))
	inc := CommentInclude{
		User:       !userFields.IsEmpty(),
		UserFields: userFields,
		Replies:    !replies.IsEmpty(),
		ReplyCount: sel.Has("replyCount"),
		LikeCount:  sel.Has("likeCount") || replies.Has("likeCount"),
	}
	if viewerID != 0 {
		inc.ViewerLiked = sel.Has("hasLiked") || replies.Has("hasLiked")
	}
	return inc
}

// BlogColumns projects the blogs table columns needed to satisfy the
// selection. Identity, slug, ordering, and relation-key columns are always
// included; the image blob is fetched only when the client asked for it.
func BlogColumns(sel *fieldset.Selection) []string {
	cols := []string{"id", "slug", "title", "description", "content", "genre", "author_id", "created_at"}
	if sel.Has("image") {
		cols = append(cols, "image")
	}
	return cols
}

// UserColumns projects the users table columns for a nested author or a
// user listing. The avatar blob is fetched only when requested.
func UserColumns(sel *fieldset.Selection) []string {
	cols := []string{"id", "username", "email", "full_name", "user_bio", "profile_image", "provider_id", "created_at"}
	if sel.Has("image") {
		cols = append(cols, "image")
	}
	return cols
}
