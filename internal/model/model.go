// Package model defines the persisted entities of the blogging platform.
// Relation fields are nil/zero unless a fetch explicitly included them;
// the transform package decides how they surface in a response.
package model

import (
	"encoding/json"
	"time"
)

// User is a registered account. PasswordHash is nil for accounts created
// through an OAuth provider only.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	FullName     *string
	UserBio      *string
	Image        []byte
	ProfileImage *string
	ProviderID   *string
	CreatedAt    time.Time

	// Populated by eager includes.
	FollowerCount  int
	FollowingCount int
	ViewerFollows  bool
}

// Blog is an authored post. Content is the structured rich-text body
// stored verbatim as JSON.
type Blog struct {
	ID          int64
	Slug        string
	Title       string
	Description *string
	Content     json.RawMessage
	Image       []byte
	Genre       []string
	AuthorID    int64
	CreatedAt   time.Time

	// Populated by eager includes.
	Author    *User
	Comments  []*Comment
	Likes     []*Like
	Bookmarks []*Bookmark

	LikesCount     int
	CommentsCount  int
	BookmarksCount int

	ViewerLiked      bool
	ViewerBookmarked bool
}

// Comment belongs to exactly one blog. ParentCommentID forms a
// single-level reply tree: a reply's parent is always a root comment.
type Comment struct {
	ID              int64
	Content         string
	BlogID          int64
	AuthorID        int64
	ParentCommentID *int64
	CreatedAt       time.Time

	// Populated by eager includes.
	User    *User
	Replies []*Comment

	LikeCount   int
	ReplyCount  int
	ViewerLiked bool
}

// Like marks a (blog, user) pair; at most one exists per pair.
type Like struct {
	ID        int64
	BlogID    int64
	UserID    int64
	CreatedAt time.Time

	User *User
	Blog *Blog
}

// CommentLike marks a (comment, user) pair.
type CommentLike struct {
	ID        int64
	CommentID int64
	UserID    int64
	CreatedAt time.Time
}

// Bookmark marks a (user, blog) pair.
type Bookmark struct {
	ID        int64
	UserID    int64
	BlogID    int64
	CreatedAt time.Time

	User *User
	Blog *Blog
}

// Follow is a directed edge from follower to followed user.
type Follow struct {
	ID          int64
	FollowerID  int64
	FollowingID int64
	CreatedAt   time.Time
}
