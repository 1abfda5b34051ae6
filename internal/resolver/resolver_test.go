package resolver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogql/internal/auth"
	"blogql/internal/dbexec"
	"blogql/internal/fieldset"
	"blogql/internal/planner"
	"blogql/internal/store"
)

func expectQuery(t *testing.T, mock sqlmock.Sqlmock, sql string, args []interface{}, rows *sqlmock.Rows) {
	t.Helper()

	expectation := mock.ExpectQuery(regexp.QuoteMeta(sql))
	if len(args) > 0 {
		values := make([]driver.Value, len(args))
		for i, arg := range args {
			values[i] = arg
		}
		expectation = expectation.WithArgs(values...)
	}
	expectation.WillReturnRows(rows)
}

func newTestResolver(t *testing.T) (*Resolver, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	r := New(Config{
		Store:  store.New(dbexec.NewStandardExecutor(db)),
		Issuer: auth.NewIssuer([]byte("test-secret"), "blogql-test"),
	})
	return r, db, mock
}

func execute(t *testing.T, r *Resolver, query string, viewerID int64) *graphql.Result {
	t.Helper()

	schema, err := r.Schema()
	require.NoError(t, err)

	ctx := context.Background()
	if viewerID != 0 {
		ctx = auth.WithViewer(ctx, viewerID)
	}
	return graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       ctx,
	})
}

func dataMap(t *testing.T, result *graphql.Result, field string) map[string]interface{} {
	t.Helper()

	require.Empty(t, result.Errors, "unexpected GraphQL errors: %v", result.Errors)
	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	value, ok := data[field].(map[string]interface{})
	require.True(t, ok, "field %q missing or not an object", field)
	return value
}

const authResultFragment = `
	... on AuthPayload { accessToken refreshToken }
	... on AuthError { message code }
`

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	r, db, _ := newTestResolver(t)
	defer db.Close()

	result := execute(t, r, `mutation { register(username: "ada", email: "not-an-email", password: "long-enough") {`+authResultFragment+`} }`, 0)
	payload := dataMap(t, result, "register")
	assert.Equal(t, CodeInvalidEmail, payload["code"])
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	r, db, _ := newTestResolver(t)
	defer db.Close()

	result := execute(t, r, `mutation { register(username: "ada", email: "ada@example.com", password: "short") {`+authResultFragment+`} }`, 0)
	payload := dataMap(t, result, "register")
	assert.Equal(t, CodeInvalidPassword, payload["code"])
}

func TestLoginUnknownEmail(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectQuery("FROM `users` WHERE `email` = \\?").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "provider_id"}))

	result := execute(t, r, `mutation { login(email: "ghost@example.com", password: "whatever1") {`+authResultFragment+`} }`, 0)
	payload := dataMap(t, result, "login")
	assert.Equal(t, CodeInvalidCredentials, payload["code"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginOAuthOnlyAccount(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectQuery("FROM `users` WHERE `email` = \\?").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "provider_id"}).
			AddRow(3, "ada", "ada@example.com", nil, "google-123"))

	result := execute(t, r, `mutation { login(email: "ada@example.com", password: "whatever1") {`+authResultFragment+`} }`, 0)
	payload := dataMap(t, result, "login")
	assert.Equal(t, CodeOAuthAccount, payload["code"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSuccess(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	mock.ExpectQuery("FROM `users` WHERE `email` = \\?").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "provider_id"}).
			AddRow(3, "ada", "ada@example.com", hash, nil))

	result := execute(t, r, `mutation { login(email: "ada@example.com", password: "correct-horse") {`+authResultFragment+`} }`, 0)
	payload := dataMap(t, result, "login")
	require.NotContains(t, payload, "code")
	assert.NotEmpty(t, payload["accessToken"])
	assert.NotEmpty(t, payload["refreshToken"])

	userID, err := r.issuer.Verify(payload["accessToken"].(string), auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(3), userID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	pair, err := r.issuer.IssuePair(3)
	require.NoError(t, err)

	mock.ExpectQuery("FROM `users` WHERE `id` = \\?").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "provider_id"}).
			AddRow(3, "ada", "ada@example.com", []byte("x"), nil))

	result := execute(t, r, `mutation { refreshToken(refreshToken: "`+pair.RefreshToken+`") {`+authResultFragment+`} }`, 0)
	payload := dataMap(t, result, "refreshToken")
	require.NotContains(t, payload, "code")
	assert.NotEmpty(t, payload["accessToken"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	r, db, _ := newTestResolver(t)
	defer db.Close()

	pair, err := r.issuer.IssuePair(3)
	require.NoError(t, err)

	result := execute(t, r, `mutation { refreshToken(refreshToken: "`+pair.AccessToken+`") {`+authResultFragment+`} }`, 0)
	payload := dataMap(t, result, "refreshToken")
	assert.Equal(t, CodeInvalidCredentials, payload["code"])
}

func TestBlogsQueryEnvelope(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	blogSel := fieldset.New("id", "title")
	plan, err := planner.PlanFeed(blogSel, planner.BlogFilter{}, planner.SortLatest, planner.NormalizePage(1, 2))
	require.NoError(t, err)

	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "slug", "title", "description", "content", "genre", "author_id", "created_at"}).
		AddRow(1, "first", "First", nil, []byte(`{}`), []byte(`[]`), 10, now).
		AddRow(2, "second", "Second", nil, []byte(`{}`), []byte(`[]`), 10, now)
	expectQuery(t, mock, plan.Rows.SQL, plan.Rows.Args, rows)
	expectQuery(t, mock, plan.Count.SQL, plan.Count.Args,
		sqlmock.NewRows([]string{"count"}).AddRow(5))

	result := execute(t, r, `{ blogs(input: {limit: 2}) { blogs { id title } currentPage totalPages totalCount hasNextPage hasPreviousPage } }`, 0)
	page := dataMap(t, result, "blogs")

	blogs, ok := page["blogs"].([]interface{})
	require.True(t, ok)
	require.Len(t, blogs, 2)
	first := blogs[0].(map[string]interface{})
	assert.Equal(t, "First", first["title"])

	assert.Equal(t, 1, page["currentPage"])
	assert.Equal(t, 3, page["totalPages"])
	assert.Equal(t, 5, page["totalCount"])
	assert.Equal(t, true, page["hasNextPage"])
	assert.Equal(t, false, page["hasPreviousPage"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowingBlogsShortCircuitsEmptyFollowSet(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectQuery("SELECT `following_id` FROM `follows`").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"following_id"}))

	result := execute(t, r, `{ followingBlogs { blogs { id } totalPages totalCount hasNextPage } }`, 3)
	page := dataMap(t, result, "followingBlogs")

	blogs, ok := page["blogs"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, blogs)
	assert.Equal(t, 0, page["totalPages"])
	assert.Equal(t, 0, page["totalCount"])
	assert.Equal(t, false, page["hasNextPage"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowingBlogsRequiresAuth(t *testing.T) {
	r, db, _ := newTestResolver(t)
	defer db.Close()

	result := execute(t, r, `{ followingBlogs { totalCount } }`, 0)
	require.NotEmpty(t, result.Errors)
}

func TestRandomBlogsUsesCachedCorpusCount(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()
	r.randIntn = func(n int) int { return 0 }

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM `blogs`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	blogRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "slug", "title", "description", "content", "genre", "author_id", "created_at"}).
			AddRow(1, "only", "Only", nil, []byte(`{}`), []byte(`[]`), 10, now)
	}
	mock.ExpectQuery("FROM `blogs` ORDER BY `blogs`.`created_at` ASC").WillReturnRows(blogRows())
	mock.ExpectQuery("FROM `blogs` ORDER BY `blogs`.`created_at` ASC").WillReturnRows(blogRows())

	for i := 0; i < 2; i++ {
		result := execute(t, r, `{ randomBlogs(limit: 5) { id slug } }`, 0)
		require.Empty(t, result.Errors)
	}

	// The corpus count query ran once; the second request hit the cache.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeMutation(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM `likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `likes`").
		WillReturnResult(sqlmock.NewResult(9, 1))

	result := execute(t, r, `mutation { toggleLike(blogId: "7") { success message liked } }`, 3)
	payload := dataMap(t, result, "toggleLike")
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, true, payload["liked"])
	assert.Equal(t, "Blog liked", payload["message"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeEchoesCreatedLike(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("DELETE FROM `likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `likes`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT `id`, `blog_id`, `user_id`, `created_at` FROM `likes` WHERE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "blog_id", "user_id", "created_at"}).
			AddRow(9, 7, 3, now))
	mock.ExpectQuery("FROM `users` WHERE `id` IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "user_bio", "profile_image", "provider_id", "created_at"}).
			AddRow(3, "ada", "ada@example.com", nil, nil, nil, nil, now))

	result := execute(t, r, `mutation { toggleLike(blogId: "7") { liked like { id user { username } } } }`, 3)
	payload := dataMap(t, result, "toggleLike")
	assert.Equal(t, true, payload["liked"])
	like, ok := payload["like"].(map[string]interface{})
	require.True(t, ok, "like member missing from response")
	user, ok := like["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ada", user["username"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeRemovalLeavesLikeNull(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM `likes`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result := execute(t, r, `mutation { toggleLike(blogId: "7") { liked like { id } } }`, 3)
	payload := dataMap(t, result, "toggleLike")
	assert.Equal(t, false, payload["liked"])
	assert.Nil(t, payload["like"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeMissingBlog(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM `likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `likes`").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "a foreign key constraint fails"})

	result := execute(t, r, `mutation { toggleLike(blogId: "404") { success } }`, 3)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "Blog not found")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFollowEchoesFollowedUser(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("DELETE FROM `follows`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `follows`").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("FROM `users` WHERE `id` IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "user_bio", "profile_image", "provider_id", "created_at"}).
			AddRow(9, "grace", "grace@example.com", nil, nil, nil, nil, now))

	result := execute(t, r, `mutation { toggleFollow(userId: "9") { isFollowing user { username } } }`, 3)
	payload := dataMap(t, result, "toggleFollow")
	assert.Equal(t, true, payload["isFollowing"])
	user, ok := payload["user"].(map[string]interface{})
	require.True(t, ok, "user member missing from response")
	assert.Equal(t, "grace", user["username"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFollowSelf(t *testing.T) {
	r, db, _ := newTestResolver(t)
	defer db.Close()

	result := execute(t, r, `mutation { toggleFollow(userId: "3") { success message isFollowing } }`, 3)
	payload := dataMap(t, result, "toggleFollow")
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, false, payload["isFollowing"])
}

func TestToggleLikeRequiresAuth(t *testing.T) {
	r, db, _ := newTestResolver(t)
	defer db.Close()

	result := execute(t, r, `mutation { toggleLike(blogId: "7") { success } }`, 0)
	require.NotEmpty(t, result.Errors)
}

func TestCreateCommentUnknownParent(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectQuery("SELECT `author_id` FROM `blogs`").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow(2))
	mock.ExpectQuery("FROM `comments` WHERE `id` = \\?").
		WithArgs(int64(44)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "blog_id", "user_id", "parent_comment_id", "created_at"}))

	result := execute(t, r, `mutation { createComment(blogId: "7", content: "hi", parentCommentId: "44") { id } }`, 3)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "Parent comment not found")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectQuery("FROM `comments` WHERE `id` = \\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "blog_id", "user_id", "parent_comment_id", "created_at"}).
			AddRow(5, "hi", 7, 99, nil, time.Now()))

	result := execute(t, r, `mutation { deleteComment(commentId: "5") { success message } }`, 3)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "your own comments")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUsernameAvailable(t *testing.T) {
	r, db, mock := newTestResolver(t)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM `users` WHERE `username` = \\?").
		WithArgs("fresh").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	result := execute(t, r, `{ isUsernameAvailable(username: "fresh") }`, 0)
	require.Empty(t, result.Errors)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, true, data["isUsernameAvailable"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentUserAnonymous(t *testing.T) {
	r, db, _ := newTestResolver(t)
	defer db.Close()

	result := execute(t, r, `{ currentUser { id username } }`, 0)
	require.Empty(t, result.Errors)
	data := result.Data.(map[string]interface{})
	assert.Nil(t, data["currentUser"])
}
