package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"blogql/internal/dbexec"
	"blogql/internal/fieldset"
	"blogql/internal/model"
	"blogql/internal/planner"
	"blogql/internal/sqlutil"
)

// BlogPage is one materialized feed page with its pagination envelope.
type BlogPage struct {
	Blogs    []*model.Blog
	PageInfo planner.PageInfo
}

// FetchFeedPage runs a planned feed: the row query and the count query are
// issued concurrently, then the include plan is applied to the page.
func (s *Store) FetchFeedPage(ctx context.Context, plan *planner.FeedPlan, sel *fieldset.Selection, inc planner.BlogInclude, viewerID int64) (*BlogPage, error) {
	type countResult struct {
		count int
		err   error
	}
	countCh := make(chan countResult, 1)
	go func() {
		count, err := s.scanCount(ctx, plan.Count)
		countCh <- countResult{count, err}
	}()

	rows, err := s.query(ctx, plan.Rows)
	if err != nil {
		<-countCh
		return nil, err
	}
	withImage := sel.Has("image")
	blogs, err := collectRows(rows, func(r dbexec.Rows) (*model.Blog, error) {
		return scanBlogRow(r, withImage)
	})
	if err != nil {
		<-countCh
		return nil, err
	}

	cr := <-countCh
	if cr.err != nil {
		return nil, cr.err
	}

	if err := s.ApplyBlogIncludes(ctx, blogs, sel, inc, viewerID); err != nil {
		return nil, err
	}

	return &BlogPage{
		Blogs:    blogs,
		PageInfo: planner.NewPageInfo(plan.Page, cr.count),
	}, nil
}

// FetchBlogWindow runs a single planned row query without a count, used by
// the random discovery feed.
func (s *Store) FetchBlogWindow(ctx context.Context, q planner.SQLQuery, sel *fieldset.Selection, inc planner.BlogInclude, viewerID int64) ([]*model.Blog, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	withImage := sel.Has("image")
	blogs, err := collectRows(rows, func(r dbexec.Rows) (*model.Blog, error) {
		return scanBlogRow(r, withImage)
	})
	if err != nil {
		return nil, err
	}
	if err := s.ApplyBlogIncludes(ctx, blogs, sel, inc, viewerID); err != nil {
		return nil, err
	}
	return blogs, nil
}

// BlogByID fetches one blog under the given selection, with includes.
func (s *Store) BlogByID(ctx context.Context, id int64, sel *fieldset.Selection, inc planner.BlogInclude, viewerID int64) (*model.Blog, error) {
	return s.blogByKey(ctx, sq.Eq{"`id`": id}, sel, inc, viewerID)
}

// BlogBySlug fetches one blog by its slug, with includes.
func (s *Store) BlogBySlug(ctx context.Context, slug string, sel *fieldset.Selection, inc planner.BlogInclude, viewerID int64) (*model.Blog, error) {
	return s.blogByKey(ctx, sq.Eq{"`slug`": slug}, sel, inc, viewerID)
}

func (s *Store) blogByKey(ctx context.Context, cond sq.Sqlizer, sel *fieldset.Selection, inc planner.BlogInclude, viewerID int64) (*model.Blog, error) {
	withImage := sel.Has("image")
	query, args, err := builder().
		Select(quoteAll(planner.BlogColumns(sel))...).
		From("`blogs`").
		Where(cond).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	blogs, err := collectRows(rows, func(r dbexec.Rows) (*model.Blog, error) {
		return scanBlogRow(r, withImage)
	})
	if err != nil {
		return nil, err
	}
	if len(blogs) == 0 {
		return nil, ErrNotFound
	}
	if err := s.ApplyBlogIncludes(ctx, blogs, sel, inc, viewerID); err != nil {
		return nil, err
	}
	return blogs[0], nil
}

// CreateBlogParams carries the validated inputs for a new blog.
type CreateBlogParams struct {
	Slug        string
	Title       string
	Description *string
	Content     json.RawMessage
	Image       []byte
	Genre       []string
	AuthorID    int64
}

// CreateBlog inserts a blog row; the slug must already be unique.
func (s *Store) CreateBlog(ctx context.Context, p CreateBlogParams) (int64, error) {
	genre, err := json.Marshal(p.Genre)
	if err != nil {
		return 0, fmt.Errorf("encode genre: %w", err)
	}
	res, err := s.exec1(ctx, builder().
		Insert("`blogs`").
		Columns("`slug`", "`title`", "`description`", "`content`", "`image`", "`genre`", "`author_id`").
		Values(p.Slug, p.Title, p.Description, []byte(p.Content), p.Image, genre, p.AuthorID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SlugExists reports whether a blog already uses the given slug. The slug
// generator probes with this until it finds a free suffix.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	query, args, err := builder().
		Select("1").
		From("`blogs`").
		Where(sq.Eq{"`slug`": slug}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// BlogAuthorID returns the author of a blog without loading the record.
func (s *Store) BlogAuthorID(ctx context.Context, blogID int64) (int64, error) {
	query, args, err := builder().
		Select("`author_id`").
		From("`blogs`").
		Where(sq.Eq{"`id`": blogID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, ErrNotFound
	}
	var authorID int64
	if err := rows.Scan(&authorID); err != nil {
		return 0, err
	}
	return authorID, rows.Err()
}

// CountBlogs returns the unfiltered corpus size, used to bound the random
// feed window.
func (s *Store) CountBlogs(ctx context.Context) (int, error) {
	q, err := planner.PlanBlogCount()
	if err != nil {
		return 0, err
	}
	return s.scanCount(ctx, q)
}

func quoteAll(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = sqlutil.QuoteIdentifier(col)
	}
	return quoted
}
