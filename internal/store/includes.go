package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"blogql/internal/dbexec"
	"blogql/internal/fieldset"
	"blogql/internal/model"
	"blogql/internal/observability"
	"blogql/internal/planner"
)

// recordIncludeBatch reports the shape of one batched relation fetch when
// request metrics are present on the context.
func recordIncludeBatch(ctx context.Context, relation string, parents, rows int) {
	if m := observability.GraphQLMetricsFromContext(ctx); m != nil {
		m.RecordIncludeBatch(ctx, relation, int64(parents), int64(rows))
	}
}

// ApplyBlogIncludes attaches the planned related records and aggregates
// to a page of blogs. Each include is one batched query over the page's
// blog ids rather than a query per row.
func (s *Store) ApplyBlogIncludes(ctx context.Context, blogs []*model.Blog, sel *fieldset.Selection, inc planner.BlogInclude, viewerID int64) error {
	if len(blogs) == 0 || !inc.Any() {
		return nil
	}

	ids := make([]int64, len(blogs))
	byID := make(map[int64]*model.Blog, len(blogs))
	for i, b := range blogs {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	if inc.Author {
		if err := s.attachAuthors(ctx, blogs, sel.Child("author"), viewerID); err != nil {
			return err
		}
	}
	if inc.Comments {
		if err := s.attachComments(ctx, ids, byID, sel.Child("comments"), viewerID); err != nil {
			return err
		}
	}
	if inc.Likes {
		if err := s.attachLikes(ctx, ids, byID, sel.Child("likes"), viewerID); err != nil {
			return err
		}
	}
	if inc.Bookmarks {
		if err := s.attachBookmarks(ctx, ids, byID, sel.Child("bookmarks"), viewerID); err != nil {
			return err
		}
	}

	if inc.LikesCount {
		counts, err := s.groupCount(ctx, "`likes`", "`blog_id`", ids)
		if err != nil {
			return err
		}
		for id, n := range counts {
			byID[id].LikesCount = n
		}
	}
	if inc.CommentsCount {
		counts, err := s.groupCount(ctx, "`comments`", "`blog_id`", ids)
		if err != nil {
			return err
		}
		for id, n := range counts {
			byID[id].CommentsCount = n
		}
	}
	if inc.BookmarksCount {
		counts, err := s.groupCount(ctx, "`bookmarks`", "`blog_id`", ids)
		if err != nil {
			return err
		}
		for id, n := range counts {
			byID[id].BookmarksCount = n
		}
	}

	if inc.ViewerLiked {
		liked, err := s.viewerMarked(ctx, "`likes`", "`blog_id`", ids, viewerID)
		if err != nil {
			return err
		}
		for id := range liked {
			byID[id].ViewerLiked = true
		}
	}
	if inc.ViewerBookmarked {
		marked, err := s.viewerMarked(ctx, "`bookmarks`", "`blog_id`", ids, viewerID)
		if err != nil {
			return err
		}
		for id := range marked {
			byID[id].ViewerBookmarked = true
		}
	}

	return nil
}

func (s *Store) attachAuthors(ctx context.Context, blogs []*model.Blog, sel *fieldset.Selection, viewerID int64) error {
	authorIDs := make([]int64, 0, len(blogs))
	seen := make(map[int64]struct{}, len(blogs))
	for _, b := range blogs {
		if _, ok := seen[b.AuthorID]; ok {
			continue
		}
		seen[b.AuthorID] = struct{}{}
		authorIDs = append(authorIDs, b.AuthorID)
	}

	users, err := s.usersByIDs(ctx, authorIDs, sel)
	if err != nil {
		return err
	}
	recordIncludeBatch(ctx, "author", len(blogs), len(users))
	if err := s.ApplyUserIncludes(ctx, users, planner.PlanUserIncludes(sel, viewerID), viewerID); err != nil {
		return err
	}

	byID := make(map[int64]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, b := range blogs {
		b.Author = byID[b.AuthorID]
	}
	return nil
}

func (s *Store) attachComments(ctx context.Context, blogIDs []int64, blogsByID map[int64]*model.Blog, sel *fieldset.Selection, viewerID int64) error {
	query, args, err := builder().
		Select("`id`", "`content`", "`blog_id`", "`user_id`", "`parent_comment_id`", "`created_at`").
		From("`comments`").
		Where(sq.Eq{"`blog_id`": blogIDs}).
		OrderBy("`created_at` DESC").
		ToSql()
	if err != nil {
		return err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return err
	}
	comments, err := collectRows(rows, scanCommentRow)
	if err != nil {
		return err
	}
	recordIncludeBatch(ctx, "comments", len(blogIDs), len(comments))

	if err := s.ApplyCommentIncludes(ctx, comments, planner.PlanCommentIncludes(sel, viewerID), viewerID); err != nil {
		return err
	}

	for _, c := range groupReplies(comments) {
		if b := blogsByID[c.BlogID]; b != nil {
			b.Comments = append(b.Comments, c)
		}
	}
	return nil
}

func (s *Store) attachLikes(ctx context.Context, blogIDs []int64, blogsByID map[int64]*model.Blog, sel *fieldset.Selection, viewerID int64) error {
	likes, err := s.engagementRows(ctx, "`likes`", blogIDs)
	if err != nil {
		return err
	}
	recordIncludeBatch(ctx, "likes", len(blogIDs), len(likes))
	if userSel := sel.Child("user"); !userSel.IsEmpty() {
		users, err := s.usersForEngagement(ctx, likes, userSel, viewerID)
		if err != nil {
			return err
		}
		for _, l := range likes {
			l.User = users[l.UserID]
		}
	}
	for _, l := range likes {
		if b := blogsByID[l.BlogID]; b != nil {
			b.Likes = append(b.Likes, l)
		}
	}
	return nil
}

func (s *Store) attachBookmarks(ctx context.Context, blogIDs []int64, blogsByID map[int64]*model.Blog, sel *fieldset.Selection, viewerID int64) error {
	likes, err := s.engagementRows(ctx, "`bookmarks`", blogIDs)
	if err != nil {
		return err
	}
	recordIncludeBatch(ctx, "bookmarks", len(blogIDs), len(likes))
	if userSel := sel.Child("user"); !userSel.IsEmpty() {
		users, err := s.usersForEngagement(ctx, likes, userSel, viewerID)
		if err != nil {
			return err
		}
		for _, l := range likes {
			l.User = users[l.UserID]
		}
	}
	for _, l := range likes {
		if b := blogsByID[l.BlogID]; b != nil {
			b.Bookmarks = append(b.Bookmarks, &model.Bookmark{
				ID:        l.ID,
				BlogID:    l.BlogID,
				UserID:    l.UserID,
				CreatedAt: l.CreatedAt,
				User:      l.User,
			})
		}
	}
	return nil
}

// engagementRows loads (id, blog_id, user_id, created_at) rows from a
// marker table. Likes and bookmarks share the shape.
func (s *Store) engagementRows(ctx context.Context, table string, blogIDs []int64) ([]*model.Like, error) {
	query, args, err := builder().
		Select("`id`", "`blog_id`", "`user_id`", "`created_at`").
		From(table).
		Where(sq.Eq{"`blog_id`": blogIDs}).
		OrderBy("`created_at` DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(r dbexec.Rows) (*model.Like, error) {
		var l model.Like
		if err := r.Scan(&l.ID, &l.BlogID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		return &l, nil
	})
}

func (s *Store) usersForEngagement(ctx context.Context, likes []*model.Like, sel *fieldset.Selection, viewerID int64) (map[int64]*model.User, error) {
	ids := make([]int64, 0, len(likes))
	seen := make(map[int64]struct{}, len(likes))
	for _, l := range likes {
		if _, ok := seen[l.UserID]; ok {
			continue
		}
		seen[l.UserID] = struct{}{}
		ids = append(ids, l.UserID)
	}
	users, err := s.usersByIDs(ctx, ids, sel)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyUserIncludes(ctx, users, planner.PlanUserIncludes(sel, viewerID), viewerID); err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// ApplyUserIncludes attaches follow-graph aggregates to user records.
func (s *Store) ApplyUserIncludes(ctx context.Context, users []*model.User, inc planner.UserInclude, viewerID int64) error {
	if len(users) == 0 {
		return nil
	}
	if !inc.FollowerCount && !inc.FollowingCount && !inc.ViewerFollows {
		return nil
	}

	ids := make([]int64, len(users))
	byID := make(map[int64]*model.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = u
	}

	if inc.FollowerCount {
		counts, err := s.groupCount(ctx, "`follows`", "`following_id`", ids)
		if err != nil {
			return err
		}
		for id, n := range counts {
			byID[id].FollowerCount = n
		}
	}
	if inc.FollowingCount {
		counts, err := s.groupCount(ctx, "`follows`", "`follower_id`", ids)
		if err != nil {
			return err
		}
		for id, n := range counts {
			byID[id].FollowingCount = n
		}
	}
	if inc.ViewerFollows {
		query, args, err := builder().
			Select("`following_id`").
			From("`follows`").
			Where(sq.Eq{"`follower_id`": viewerID, "`following_id`": ids}).
			ToSql()
		if err != nil {
			return err
		}
		rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
		if err != nil {
			return err
		}
		followed, err := collectRows(rows, scanID)
		if err != nil {
			return err
		}
		for _, id := range followed {
			byID[id].ViewerFollows = true
		}
	}
	return nil
}

// ApplyCommentIncludes attaches users, like aggregates, and the viewer's
// like flags to a flat list of comments (roots and replies together).
func (s *Store) ApplyCommentIncludes(ctx context.Context, comments []*model.Comment, inc planner.CommentInclude, viewerID int64) error {
	if len(comments) == 0 {
		return nil
	}

	ids := make([]int64, len(comments))
	byID := make(map[int64]*model.Comment, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	if inc.User {
		authorIDs := make([]int64, 0, len(comments))
		seen := make(map[int64]struct{}, len(comments))
		for _, c := range comments {
			if _, ok := seen[c.AuthorID]; ok {
				continue
			}
			seen[c.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, c.AuthorID)
		}
		users, err := s.usersByIDs(ctx, authorIDs, inc.UserFields)
		if err != nil {
			return err
		}
		if err := s.ApplyUserIncludes(ctx, users, planner.PlanUserIncludes(inc.UserFields, viewerID), viewerID); err != nil {
			return err
		}
		usersByID := make(map[int64]*model.User, len(users))
		for _, u := range users {
			usersByID[u.ID] = u
		}
		for _, c := range comments {
			c.User = usersByID[c.AuthorID]
		}
	}

	if inc.LikeCount {
		counts, err := s.groupCount(ctx, "`comment_likes`", "`comment_id`", ids)
		if err != nil {
			return err
		}
		for id, n := range counts {
			byID[id].LikeCount = n
		}
	}

	if inc.ReplyCount {
		counts, err := s.groupCount(ctx, "`comments`", "`parent_comment_id`", ids)
		if err != nil {
			return err
		}
		for id, n := range counts {
			byID[id].ReplyCount = n
		}
	}

	if inc.ViewerLiked {
		liked, err := s.viewerMarked(ctx, "`comment_likes`", "`comment_id`", ids, viewerID)
		if err != nil {
			return err
		}
		for id := range liked {
			byID[id].ViewerLiked = true
		}
	}

	return nil
}

// groupCount runs SELECT key, COUNT(*) ... GROUP BY key over the id set.
func (s *Store) groupCount(ctx context.Context, table, keyColumn string, ids []int64) (map[int64]int, error) {
	query, args, err := builder().
		Select(keyColumn, "COUNT(*)").
		From(table).
		Where(sq.Eq{keyColumn: ids}).
		GroupBy(keyColumn).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int, len(ids))
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// viewerMarked returns the subset of ids the viewer has a marker row for.
func (s *Store) viewerMarked(ctx context.Context, table, keyColumn string, ids []int64, viewerID int64) (map[int64]struct{}, error) {
	query, args, err := builder().
		Select(keyColumn).
		From(table).
		Where(sq.Eq{keyColumn: ids, "`user_id`": viewerID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	marked, err := collectRows(rows, scanID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(marked))
	for _, id := range marked {
		set[id] = struct{}{}
	}
	return set, nil
}

func scanID(r dbexec.Rows) (int64, error) {
	var id int64
	err := r.Scan(&id)
	return id, err
}

// groupReplies nests replies under their root comments and returns the
// roots in input order. Replies whose parent is missing from the batch are
// dropped rather than surfaced as roots.
func groupReplies(comments []*model.Comment) []*model.Comment {
	byID := make(map[int64]*model.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}
	roots := make([]*model.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ParentCommentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent := byID[*c.ParentCommentID]; parent != nil {
			parent.Replies = append(parent.Replies, c)
		}
	}
	return roots
}
