package store

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"blogql/internal/fieldset"
	"blogql/internal/model"
	"blogql/internal/planner"
)

// ErrReplyDepth is returned when a reply targets a comment that is itself
// a reply. The thread model allows exactly one level of nesting.
var ErrReplyDepth = errors.New("replies to replies are not allowed")

// CommentsByBlogID fetches the comment thread for a blog: root comments
// newest first, replies nested beneath their parent.
func (s *Store) CommentsByBlogID(ctx context.Context, blogID int64, sel *fieldset.Selection, viewerID int64) ([]*model.Comment, error) {
	query, args, err := builder().
		Select("`id`", "`content`", "`blog_id`", "`user_id`", "`parent_comment_id`", "`created_at`").
		From("`comments`").
		Where(sq.Eq{"`blog_id`": blogID}).
		OrderBy("`created_at` DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	comments, err := collectRows(rows, scanCommentRow)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyCommentIncludes(ctx, comments, planner.PlanCommentIncludes(sel, viewerID), viewerID); err != nil {
		return nil, err
	}
	return groupReplies(comments), nil
}

// CommentByID fetches one comment without includes.
func (s *Store) CommentByID(ctx context.Context, id int64) (*model.Comment, error) {
	query, args, err := builder().
		Select("`id`", "`content`", "`blog_id`", "`user_id`", "`parent_comment_id`", "`created_at`").
		From("`comments`").
		Where(sq.Eq{"`id`": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	comments, err := collectRows(rows, scanCommentRow)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, ErrNotFound
	}
	return comments[0], nil
}

// CommentWithIncludes fetches one comment shaped under sel, with its
// user, aggregates, and viewer flags attached.
func (s *Store) CommentWithIncludes(ctx context.Context, id int64, sel *fieldset.Selection, viewerID int64) (*model.Comment, error) {
	comment, err := s.CommentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyCommentIncludes(ctx, []*model.Comment{comment}, planner.PlanCommentIncludes(sel, viewerID), viewerID); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateComment inserts a comment or a single-level reply. A reply's
// parent must exist, belong to the same blog, and be a root comment.
func (s *Store) CreateComment(ctx context.Context, blogID, authorID int64, content string, parentCommentID *int64) (int64, error) {
	if parentCommentID != nil {
		parent, err := s.CommentByID(ctx, *parentCommentID)
		if err != nil {
			return 0, err
		}
		if parent.BlogID != blogID {
			return 0, ErrNotFound
		}
		if parent.ParentCommentID != nil {
			return 0, ErrReplyDepth
		}
	}
	res, err := s.exec1(ctx, builder().
		Insert("`comments`").
		Columns("`content`", "`blog_id`", "`user_id`", "`parent_comment_id`").
		Values(content, blogID, authorID, parentCommentID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteComment removes a comment owned by the caller. Replies and like
// markers cascade through the schema's foreign keys.
func (s *Store) DeleteComment(ctx context.Context, commentID, authorID int64) error {
	res, err := s.exec1(ctx, builder().
		Delete("`comments`").
		Where(sq.Eq{"`id`": commentID, "`user_id`": authorID}))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
