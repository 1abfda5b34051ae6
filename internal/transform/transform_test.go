package transform

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogql/internal/fieldset"
	"blogql/internal/model"
)

func strPtr(s string) *string { return &s }

func sampleBlog() *model.Blog {
	return &model.Blog{
		ID:          7,
		Slug:        "go-generics",
		Title:       "Go Generics",
		Description: strPtr("A tour"),
		Content:     []byte(`{"blocks":[]}`),
		Genre:       []string{"tech"},
		Image:       []byte{0x89, 0x50, 0x4e, 0x47},
		AuthorID:    3,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBlogImageEncodedOnlyWhenRequested(t *testing.T) {
	b := sampleBlog()

	withImage := Blog(b, fieldset.New("id", "image"))
	require.NotNil(t, withImage["image"])
	decoded, err := base64.StdEncoding.DecodeString(withImage["image"].(string))
	require.NoError(t, err)
	assert.Equal(t, b.Image, decoded)

	withoutImage := Blog(b, fieldset.New("id", "title"))
	assert.Nil(t, withoutImage["image"])
}

func TestBlogNilImageStaysNil(t *testing.T) {
	b := sampleBlog()
	b.Image = nil

	out := Blog(b, fieldset.New("id", "image"))
	assert.Nil(t, out["image"])
}

func TestBlogUnrequestedRelationsAreNil(t *testing.T) {
	b := sampleBlog()
	b.Author = &model.User{ID: 3, Username: "ada"}

	out := Blog(b, fieldset.New("id", "title"))
	assert.Nil(t, out["author"])
	assert.Empty(t, out["comments"])
	assert.Empty(t, out["likes"])
	assert.Empty(t, out["bookmarks"])
}

func TestBlogIncludesRequestedAuthor(t *testing.T) {
	b := sampleBlog()
	b.Author = &model.User{ID: 3, Username: "ada", Email: "ada@example.com"}

	sel := fieldset.New("id")
	sel.Set("author", fieldset.New("id", "username"))

	out := Blog(b, sel)
	author, ok := out["author"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(3), author["id"])
	assert.Equal(t, "ada", author["username"])
}

func TestBlogViewerFlagsDefaultFalse(t *testing.T) {
	out := Blog(sampleBlog(), fieldset.New("hasLiked", "hasBookmarked"))
	assert.Equal(t, false, out["hasLiked"])
	assert.Equal(t, false, out["hasBookmarked"])
}

func TestBlogCountsAndFlagsPassThrough(t *testing.T) {
	b := sampleBlog()
	b.LikesCount = 12
	b.CommentsCount = 4
	b.BookmarksCount = 2
	b.ViewerLiked = true

	out := Blog(b, fieldset.New("likesCount", "hasLiked"))
	assert.Equal(t, 12, out["likesCount"])
	assert.Equal(t, 4, out["commentsCount"])
	assert.Equal(t, true, out["hasLiked"])
	assert.Equal(t, false, out["hasBookmarked"])
}

func TestUserProfileImageOnlyWhenRequested(t *testing.T) {
	u := &model.User{ID: 1, Username: "ada", ProfileImage: strPtr("https://img.example/a.png")}

	withField := User(u, fieldset.New("profileImage"))
	assert.Equal(t, "https://img.example/a.png", withField["profileImage"])

	withoutField := User(u, fieldset.New("username"))
	assert.Nil(t, withoutField["profileImage"])
}

func TestUserAvatarBlobEncoded(t *testing.T) {
	u := &model.User{ID: 1, Username: "ada", Image: []byte{1, 2, 3}}

	out := User(u, fieldset.New("image"))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), out["image"])
}

func TestCommentWithReplies(t *testing.T) {
	parentID := int64(10)
	c := &model.Comment{
		ID:       10,
		BlogID:   7,
		AuthorID: 3,
		Content:  "nice read",
		User:     &model.User{ID: 3, Username: "ada"},
		Replies: []*model.Comment{
			{ID: 11, BlogID: 7, AuthorID: 4, Content: "agreed", ParentCommentID: &parentID},
		},
		LikeCount:  2,
		ReplyCount: 1,
	}

	sel := fieldset.New("id", "content", "likeCount")
	sel.Set("user", fieldset.New("username"))
	repliesSel := fieldset.New("id", "content", "parentCommentId")
	sel.Set("replies", repliesSel)

	out := Comment(c, sel)
	assert.Equal(t, 2, out["likeCount"])
	assert.Equal(t, 1, out["replyCount"])

	user, ok := out["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ada", user["username"])

	replies, ok := out["replies"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, replies, 1)
	assert.Equal(t, int64(10), replies[0]["parentCommentId"])
}

func TestCommentWithoutRepliesSelection(t *testing.T) {
	c := &model.Comment{ID: 10, Replies: []*model.Comment{{ID: 11}}}

	out := Comment(c, fieldset.New("id"))
	assert.Empty(t, out["replies"])
	assert.Nil(t, out["user"])
}

func TestLikeAndBookmarkRelations(t *testing.T) {
	l := &model.Like{ID: 1, BlogID: 7, UserID: 3, User: &model.User{ID: 3, Username: "ada"}}
	sel := fieldset.New("id")
	sel.Set("user", fieldset.New("username"))

	out := Like(l, sel)
	user, ok := out["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ada", user["username"])
	assert.Nil(t, out["blog"])

	bm := &model.Bookmark{ID: 2, BlogID: 7, UserID: 3, Blog: sampleBlog()}
	bsel := fieldset.New("id")
	bsel.Set("blog", fieldset.New("slug"))

	bout := Bookmark(bm, bsel)
	blog, ok := bout["blog"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "go-generics", blog["slug"])
}

func TestNilRecords(t *testing.T) {
	assert.Nil(t, Blog(nil, fieldset.New("id")))
	assert.Nil(t, User(nil, fieldset.New("id")))
	assert.Nil(t, Comment(nil, fieldset.New("id")))
}
