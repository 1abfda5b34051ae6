package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"blogql/internal/dbexec"
	"blogql/internal/fieldset"
	"blogql/internal/model"
	"blogql/internal/planner"
)

// ErrSelfFollow is returned when a user attempts to follow themselves.
var ErrSelfFollow = errors.New("cannot follow yourself")

// ToggleLike flips the viewer's like marker for a blog and reports the
// resulting state: true when the blog is now liked.
func (s *Store) ToggleLike(ctx context.Context, blogID, userID int64) (bool, error) {
	return s.toggleMarker(ctx, "`likes`", map[string]any{
		"`blog_id`": blogID,
		"`user_id`": userID,
	})
}

// ToggleBookmark flips the viewer's bookmark marker for a blog.
func (s *Store) ToggleBookmark(ctx context.Context, blogID, userID int64) (bool, error) {
	return s.toggleMarker(ctx, "`bookmarks`", map[string]any{
		"`blog_id`": blogID,
		"`user_id`": userID,
	})
}

// ToggleCommentLike flips the viewer's like marker for a comment.
func (s *Store) ToggleCommentLike(ctx context.Context, commentID, userID int64) (bool, error) {
	return s.toggleMarker(ctx, "`comment_likes`", map[string]any{
		"`comment_id`": commentID,
		"`user_id`":    userID,
	})
}

// ToggleFollow flips the follow edge from the viewer to the target user
// and reports whether the viewer now follows the target.
func (s *Store) ToggleFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}
	return s.toggleMarker(ctx, "`follows`", map[string]any{
		"`follower_id`":  followerID,
		"`following_id`": followingID,
	})
}

// LikeForViewer loads the viewer's like row for a blog, with the user and
// blog relations shaped under the selection. Toggle mutations use it to
// echo the created record back to the client.
func (s *Store) LikeForViewer(ctx context.Context, blogID, viewerID int64, sel *fieldset.Selection) (*model.Like, error) {
	return s.markerForViewer(ctx, "`likes`", blogID, viewerID, sel)
}

// BookmarkForViewer loads the viewer's bookmark row for a blog.
func (s *Store) BookmarkForViewer(ctx context.Context, blogID, viewerID int64, sel *fieldset.Selection) (*model.Bookmark, error) {
	row, err := s.markerForViewer(ctx, "`bookmarks`", blogID, viewerID, sel)
	if err != nil {
		return nil, err
	}
	return &model.Bookmark{
		ID:        row.ID,
		BlogID:    row.BlogID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
		User:      row.User,
		Blog:      row.Blog,
	}, nil
}

func (s *Store) markerForViewer(ctx context.Context, table string, blogID, viewerID int64, sel *fieldset.Selection) (*model.Like, error) {
	query, args, err := builder().
		Select("`id`", "`blog_id`", "`user_id`", "`created_at`").
		From(table).
		Where(sq.Eq{"`blog_id`": blogID, "`user_id`": viewerID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	markers, err := collectRows(rows, func(r dbexec.Rows) (*model.Like, error) {
		var l model.Like
		if err := r.Scan(&l.ID, &l.BlogID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		return &l, nil
	})
	if err != nil {
		return nil, err
	}
	if len(markers) == 0 {
		return nil, ErrNotFound
	}
	marker := markers[0]

	if userSel := sel.Child("user"); !userSel.IsEmpty() {
		users, err := s.usersByIDs(ctx, []int64{viewerID}, userSel)
		if err != nil {
			return nil, err
		}
		if err := s.ApplyUserIncludes(ctx, users, planner.PlanUserIncludes(userSel, viewerID), viewerID); err != nil {
			return nil, err
		}
		if len(users) > 0 {
			marker.User = users[0]
		}
	}
	if blogSel := sel.Child("blog"); !blogSel.IsEmpty() {
		blog, err := s.BlogByID(ctx, blogID, blogSel, planner.PlanBlogIncludes(blogSel, viewerID), viewerID)
		if err != nil {
			return nil, err
		}
		marker.Blog = blog
	}
	return marker, nil
}

// toggleMarker deletes the marker row if present, otherwise inserts it.
// A duplicate-key race on insert means another request set the marker
// first, so the resulting state is still active.
func (s *Store) toggleMarker(ctx context.Context, table string, key map[string]any) (bool, error) {
	res, err := s.exec1(ctx, builder().Delete(table).Where(sq.Eq(key)))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return false, nil
	}

	insert := builder().Insert(table)
	cols := make([]string, 0, len(key))
	vals := make([]any, 0, len(key))
	for _, col := range sortedKeys(key) {
		cols = append(cols, col)
		vals = append(vals, key[col])
	}
	if _, err := s.exec1(ctx, insert.Columns(cols...).Values(vals...)); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// FetchForYouSignals gathers the viewer's personalization inputs: the
// union of genres across liked blogs, followed author ids, and the liked
// blog ids themselves.
func (s *Store) FetchForYouSignals(ctx context.Context, viewerID int64) (planner.ForYouSignals, error) {
	var signals planner.ForYouSignals

	query, args, err := builder().
		Select("`blogs`.`id`", "`blogs`.`genre`").
		From("`likes`").
		Join("`blogs` ON `blogs`.`id` = `likes`.`blog_id`").
		Where(sq.Eq{"`likes`.`user_id`": viewerID}).
		ToSql()
	if err != nil {
		return signals, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return signals, err
	}
	type likedBlog struct {
		id    int64
		genre []byte
	}
	liked, err := collectRows(rows, func(r dbexec.Rows) (likedBlog, error) {
		var lb likedBlog
		err := r.Scan(&lb.id, &lb.genre)
		return lb, err
	})
	if err != nil {
		return signals, err
	}

	genreSet := make(map[string]struct{})
	for _, lb := range liked {
		signals.LikedBlogIDs = append(signals.LikedBlogIDs, lb.id)
		if len(lb.genre) == 0 {
			continue
		}
		var genres []string
		if err := json.Unmarshal(lb.genre, &genres); err != nil {
			continue
		}
		for _, g := range genres {
			if _, ok := genreSet[g]; ok {
				continue
			}
			genreSet[g] = struct{}{}
			signals.LikedGenres = append(signals.LikedGenres, g)
		}
	}

	followed, err := s.FollowedAuthorIDs(ctx, viewerID)
	if err != nil {
		return signals, err
	}
	signals.FollowedAuthorIDs = followed
	return signals, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
