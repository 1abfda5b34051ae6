// Package transform shapes raw store records into client-facing GraphQL
// values. Every function is pure: binary blobs become base64 strings only
// when the field was requested, relations not requested stay nil, and
// derived flags come solely from viewer-scoped records fetched upstream.
package transform

import (
	"encoding/base64"

	"blogql/internal/fieldset"
	"blogql/internal/model"
)

// Blog shapes one blog record under the given selection.
func Blog(b *model.Blog, sel *fieldset.Selection) map[string]interface{} {
	if b == nil {
		return nil
	}

	out := map[string]interface{}{
		"id":             b.ID,
		"slug":           b.Slug,
		"title":          b.Title,
		"description":    strOrNil(b.Description),
		"content":        string(b.Content),
		"genre":          b.Genre,
		"createdAt":      b.CreatedAt,
		"image":          encodeImage(b.Image, sel.Has("image")),
		"likesCount":     b.LikesCount,
		"commentsCount":  b.CommentsCount,
		"bookmarksCount": b.BookmarksCount,
		"hasLiked":       b.ViewerLiked,
		"hasBookmarked":  b.ViewerBookmarked,
	}

	if authorSel := sel.Child("author"); !authorSel.IsEmpty() && b.Author != nil {
		out["author"] = User(b.Author, authorSel)
	} else {
		out["author"] = nil
	}

	out["comments"] = Comments(b.Comments, sel.Child("comments"))
	out["likes"] = Likes(b.Likes, sel.Child("likes"))
	out["bookmarks"] = Bookmarks(b.Bookmarks, sel.Child("bookmarks"))

	return out
}

// Blogs shapes a page of blog records.
func Blogs(blogs []*model.Blog, sel *fieldset.Selection) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(blogs))
	for _, b := range blogs {
		out = append(out, Blog(b, sel))
	}
	return out
}

// User shapes one user record. The avatar blob and the external profile
// image URL are both withheld unless requested.
func User(u *model.User, sel *fieldset.Selection) map[string]interface{} {
	if u == nil {
		return nil
	}
	out := map[string]interface{}{
		"id":             u.ID,
		"username":       u.Username,
		"email":          u.Email,
		"fullName":       strOrNil(u.FullName),
		"userBio":        strOrNil(u.UserBio),
		"createdAt":      u.CreatedAt,
		"image":          encodeImage(u.Image, sel.Has("image")),
		"followerCount":  u.FollowerCount,
		"followingCount": u.FollowingCount,
		"isFollowing":    u.ViewerFollows,
	}
	if sel.Has("profileImage") {
		out["profileImage"] = strOrNil(u.ProfileImage)
	} else {
		out["profileImage"] = nil
	}
	return out
}

// Users shapes a list of user records.
func Users(users []*model.User, sel *fieldset.Selection) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		out = append(out, User(u, sel))
	}
	return out
}

// Comment shapes one comment, including its single-level replies.
func Comment(c *model.Comment, sel *fieldset.Selection) map[string]interface{} {
	if c == nil {
		return nil
	}
	out := map[string]interface{}{
		"id":              c.ID,
		"content":         c.Content,
		"blogId":          c.BlogID,
		"userId":          c.AuthorID,
		"parentCommentId": int64OrNil(c.ParentCommentID),
		"createdAt":       c.CreatedAt,
		"likeCount":       c.LikeCount,
		"replyCount":      c.ReplyCount,
		"hasLiked":        c.ViewerLiked,
	}

	if userSel := sel.Child("user"); !userSel.IsEmpty() && c.User != nil {
		out["user"] = User(c.User, userSel)
	} else {
		out["user"] = nil
	}

	if repliesSel := sel.Child("replies"); !repliesSel.IsEmpty() {
		out["replies"] = Comments(c.Replies, repliesSel)
	} else {
		out["replies"] = []map[string]interface{}{}
	}

	return out
}

// Comments shapes a list of comments; a nil selection yields an empty
// list rather than unresolved records.
func Comments(comments []*model.Comment, sel *fieldset.Selection) []map[string]interface{} {
	if sel.IsEmpty() {
		return []map[string]interface{}{}
	}
	out := make([]map[string]interface{}, 0, len(comments))
	for _, c := range comments {
		out = append(out, Comment(c, sel))
	}
	return out
}

// Like shapes one like with its optionally included user and blog.
func Like(l *model.Like, sel *fieldset.Selection) map[string]interface{} {
	if l == nil {
		return nil
	}
	out := map[string]interface{}{
		"id":        l.ID,
		"blogId":    l.BlogID,
		"userId":    l.UserID,
		"createdAt": l.CreatedAt,
	}
	if userSel := sel.Child("user"); !userSel.IsEmpty() && l.User != nil {
		out["user"] = User(l.User, userSel)
	} else {
		out["user"] = nil
	}
	if blogSel := sel.Child("blog"); !blogSel.IsEmpty() && l.Blog != nil {
		out["blog"] = Blog(l.Blog, blogSel)
	} else {
		out["blog"] = nil
	}
	return out
}

// Likes shapes a list of likes.
func Likes(likes []*model.Like, sel *fieldset.Selection) []map[string]interface{} {
	if sel.IsEmpty() {
		return []map[string]interface{}{}
	}
	out := make([]map[string]interface{}, 0, len(likes))
	for _, l := range likes {
		out = append(out, Like(l, sel))
	}
	return out
}

// Bookmark shapes one bookmark with its optionally included relations.
func Bookmark(b *model.Bookmark, sel *fieldset.Selection) map[string]interface{} {
	if b == nil {
		return nil
	}
	out := map[string]interface{}{
		"id":        b.ID,
		"blogId":    b.BlogID,
		"userId":    b.UserID,
		"createdAt": b.CreatedAt,
	}
	if userSel := sel.Child("user"); !userSel.IsEmpty() && b.User != nil {
		out["user"] = User(b.User, userSel)
	} else {
		out["user"] = nil
	}
	if blogSel := sel.Child("blog"); !blogSel.IsEmpty() && b.Blog != nil {
		out["blog"] = Blog(b.Blog, blogSel)
	} else {
		out["blog"] = nil
	}
	return out
}

// Bookmarks shapes a list of bookmarks.
func Bookmarks(bookmarks []*model.Bookmark, sel *fieldset.Selection) []map[string]interface{} {
	if sel.IsEmpty() {
		return []map[string]interface{}{}
	}
	out := make([]map[string]interface{}, 0, len(bookmarks))
	for _, b := range bookmarks {
		out = append(out, Bookmark(b, sel))
	}
	return out
}

// encodeImage converts a stored blob to its transfer encoding only when
// the field was requested and a value exists.
func encodeImage(image []byte, requested bool) interface{} {
	if !requested || len(image) == 0 {
		return nil
	}
	return base64.StdEncoding.EncodeToString(image)
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func int64OrNil(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
