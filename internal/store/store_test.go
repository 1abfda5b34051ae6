package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogql/internal/dbexec"
	"blogql/internal/fieldset"
	"blogql/internal/model"
	"blogql/internal/planner"
)

func newMockStore(t *testing.T) (*Store, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return New(dbexec.NewStandardExecutor(db)), db, mock
}

func expectQuery(t *testing.T, mock sqlmock.Sqlmock, sql string, args []interface{}, rows *sqlmock.Rows) {
	t.Helper()

	expectation := mock.ExpectQuery(regexp.QuoteMeta(sql))
	if len(args) > 0 {
		expectation = expectation.WithArgs(toDriverValues(args)...)
	}
	expectation.WillReturnRows(rows)
}

func toDriverValues(args []interface{}) []driver.Value {
	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg
	}
	return values
}

func blogColumnsNoImage() []string {
	return []string{"id", "slug", "title", "description", "content", "genre", "author_id", "created_at"}
}

func TestFetchFeedPage(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	sel := fieldset.New("id", "title", "slug")
	page := planner.NormalizePage(1, 2)
	plan, err := planner.PlanFeed(sel, planner.BlogFilter{}, planner.SortLatest, page)
	require.NoError(t, err)

	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(blogColumnsNoImage()).
		AddRow(1, "first-post", "First Post", nil, []byte(`{}`), []byte(`["tech"]`), 10, now).
		AddRow(2, "second-post", "Second Post", "a teaser", []byte(`{}`), []byte(`[]`), 11, now)
	expectQuery(t, mock, plan.Rows.SQL, plan.Rows.Args, rows)
	expectQuery(t, mock, plan.Count.SQL, plan.Count.Args,
		sqlmock.NewRows([]string{"count"}).AddRow(5))

	result, err := s.FetchFeedPage(context.Background(), plan, sel, planner.PlanBlogIncludes(sel, 0), 0)
	require.NoError(t, err)
	require.Len(t, result.Blogs, 2)
	assert.Equal(t, "first-post", result.Blogs[0].Slug)
	assert.Equal(t, []string{"tech"}, result.Blogs[0].Genre)
	assert.Nil(t, result.Blogs[0].Description)
	require.NotNil(t, result.Blogs[1].Description)
	assert.Equal(t, "a teaser", *result.Blogs[1].Description)

	assert.Equal(t, 1, result.PageInfo.CurrentPage)
	assert.Equal(t, 3, result.PageInfo.TotalPages)
	assert.Equal(t, 5, result.PageInfo.TotalCount)
	assert.True(t, result.PageInfo.HasNextPage)
	assert.False(t, result.PageInfo.HasPreviousPage)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchFeedPageAppliesCounts(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	sel := fieldset.New("id", "likesCount")
	page := planner.NormalizePage(1, 10)
	plan, err := planner.PlanFeed(sel, planner.BlogFilter{}, planner.SortLatest, page)
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows(blogColumnsNoImage()).
		AddRow(7, "a", "A", nil, []byte(`{}`), []byte(`[]`), 1, now)
	expectQuery(t, mock, plan.Rows.SQL, plan.Rows.Args, rows)
	expectQuery(t, mock, plan.Count.SQL, plan.Count.Args,
		sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT `blog_id`, COUNT\\(\\*\\) FROM `likes`").
		WillReturnRows(sqlmock.NewRows([]string{"blog_id", "count"}).AddRow(7, 3))

	result, err := s.FetchFeedPage(context.Background(), plan, sel, planner.PlanBlogIncludes(sel, 0), 0)
	require.NoError(t, err)
	require.Len(t, result.Blogs, 1)
	assert.Equal(t, 3, result.Blogs[0].LikesCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlogBySlugNotFound(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM `blogs` WHERE `slug` = \\?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(blogColumnsNoImage()))

	sel := fieldset.New("id")
	_, err := s.BlogBySlug(context.Background(), "missing", sel, planner.PlanBlogIncludes(sel, 0), 0)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlugExists(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM `blogs` WHERE `slug` = \\?").
		WithArgs("taken").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM `blogs` WHERE `slug` = \\?").
		WithArgs("free").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := s.SlugExists(context.Background(), "taken")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.SlugExists(context.Background(), "free")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeRemovesExistingMarker(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM `likes`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	liked, err := s.ToggleLike(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.False(t, liked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeInsertsMissingMarker(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM `likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `likes`").
		WillReturnResult(sqlmock.NewResult(12, 1))

	liked, err := s.ToggleLike(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.True(t, liked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFollowRejectsSelf(t *testing.T) {
	s, db, _ := newMockStore(t)
	defer db.Close()

	_, err := s.ToggleFollow(context.Background(), 3, 3)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestToggleLikeMissingBlogIsNotFound(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM `likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `likes`").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "a foreign key constraint fails"})

	_, err := s.ToggleLike(context.Background(), 404, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentsByBlogIDProjectsUserSelection(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("FROM `comments` WHERE `blog_id` = \\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "blog_id", "user_id", "parent_comment_id", "created_at"}).
			AddRow(1, "hello", 7, 3, nil, now))
	avatar := []byte{0xff, 0xd8, 0xff}
	mock.ExpectQuery("SELECT `id`, `username`, `email`, `full_name`, `user_bio`, `profile_image`, `provider_id`, `created_at`, `image` FROM `users`").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "user_bio", "profile_image", "provider_id", "created_at", "image"}).
			AddRow(3, "ada", "ada@example.com", nil, nil, nil, nil, now, avatar))

	sel := fieldset.New("content").Set("user", fieldset.New("username", "image"))
	comments, err := s.CommentsByBlogID(context.Background(), 7, sel, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].User)
	assert.Equal(t, "ada", comments[0].User.Username)
	assert.Equal(t, avatar, comments[0].User.Image)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommentRejectsNestedReply(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	grandparent := int64(4)
	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE `id` = \\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "blog_id", "user_id", "parent_comment_id", "created_at"}).
			AddRow(5, "a reply", 7, 2, grandparent, time.Now()))

	parentID := int64(5)
	_, err := s.CreateComment(context.Background(), 7, 3, "nested", &parentID)
	assert.ErrorIs(t, err, ErrReplyDepth)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommentMissingParent(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE `id` = \\?").
		WithArgs(int64(44)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "blog_id", "user_id", "parent_comment_id", "created_at"}))

	parentID := int64(44)
	_, err := s.CreateComment(context.Background(), 7, 3, "orphan reply", &parentID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommentRejectsCrossBlogParent(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM `comments` WHERE `id` = \\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "blog_id", "user_id", "parent_comment_id", "created_at"}).
			AddRow(5, "root", 99, 2, nil, time.Now()))

	parentID := int64(5)
	_, err := s.CreateComment(context.Background(), 7, 3, "reply", &parentID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCommentRequiresOwnership(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM `comments`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteComment(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsernameAvailable(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM `users` WHERE `username` = \\?").
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	available, err := s.UsernameAvailable(context.Background(), "ada")
	require.NoError(t, err)
	assert.False(t, available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchFollowerSuggestionsTrimsProbeRow(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	sel := fieldset.New("id", "username")
	q, err := planner.PlanFollowerSuggestions(sel, 1, 0, 2)
	require.NoError(t, err)

	userCols := []string{"id", "username", "email", "full_name", "user_bio", "profile_image", "provider_id", "created_at"}
	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow(2, "b", "b@x.com", nil, nil, nil, nil, now).
		AddRow(3, "c", "c@x.com", nil, nil, nil, nil, now).
		AddRow(4, "d", "d@x.com", nil, nil, nil, nil, now)
	expectQuery(t, mock, q.SQL, q.Args, rows)

	page, err := s.FetchFollowerSuggestions(context.Background(), q, sel, 2, 1)
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "b", page.Users[0].Username)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchForYouSignals(t *testing.T) {
	s, db, mock := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery("FROM `likes` JOIN `blogs`").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "genre"}).
			AddRow(10, []byte(`["tech","go"]`)).
			AddRow(11, []byte(`["tech"]`)))
	mock.ExpectQuery("SELECT `following_id` FROM `follows`").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"following_id"}).AddRow(20).AddRow(21))

	signals, err := s.FetchForYouSignals(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "go"}, signals.LikedGenres)
	assert.Equal(t, []int64{10, 11}, signals.LikedBlogIDs)
	assert.Equal(t, []int64{20, 21}, signals.FollowedAuthorIDs)
	assert.False(t, signals.ColdStart())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupReplies(t *testing.T) {
	parent := int64(1)
	comments := []*model.Comment{
		{ID: 1},
		{ID: 2, ParentCommentID: &parent},
		{ID: 3},
	}

	roots := groupReplies(comments)
	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0].ID)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, int64(2), roots[0].Replies[0].ID)
	assert.Empty(t, roots[1].Replies)
}
