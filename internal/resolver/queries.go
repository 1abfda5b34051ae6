package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"blogql/internal/cursor"
	"blogql/internal/fieldset"
	"blogql/internal/model"
	"blogql/internal/observability"
	"blogql/internal/planner"
	"blogql/internal/scalars"
	"blogql/internal/store"
	"blogql/internal/transform"
)

// userCursorType tags follower suggestion cursors so a cursor from one
// listing cannot be replayed against another.
const userCursorType = "user"

func argID(args map[string]interface{}, name string) (int64, error) {
	id, ok := scalars.CoerceID(args[name])
	if !ok || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func optionalString(m map[string]interface{}, name string) *string {
	if m == nil {
		return nil
	}
	if s, ok := m[name].(string); ok {
		return &s
	}
	return nil
}

func inputMap(args map[string]interface{}) map[string]interface{} {
	input, _ := args["input"].(map[string]interface{})
	return input
}

func pageFromInput(input map[string]interface{}) planner.Page {
	number, _ := input["page"].(int)
	limit, _ := input["limit"].(int)
	return planner.NormalizePage(number, limit)
}

func filterFromInput(input map[string]interface{}) (planner.BlogFilter, planner.SortMode) {
	var filter planner.BlogFilter
	if genres, ok := input["genres"].([]interface{}); ok {
		for _, g := range genres {
			if s, ok := g.(string); ok {
				filter.Genres = append(filter.Genres, s)
			}
		}
	}
	if search, ok := input["search"].(string); ok {
		filter.Search = search
	}
	sortBy, _ := input["sortBy"].(string)
	return filter, planner.SortMode(sortBy)
}

// blogPageResult flattens a fetched page into the BlogPage envelope.
func blogPageResult(ctx context.Context, blogs []*model.Blog, sel *fieldset.Selection, info planner.PageInfo) map[string]interface{} {
	if m := observability.GraphQLMetricsFromContext(ctx); m != nil && sel.Has("image") {
		var encoded int64
		for _, b := range blogs {
			if len(b.Image) > 0 {
				encoded++
			}
		}
		m.RecordImagesEncoded(ctx, encoded)
	}
	return map[string]interface{}{
		"blogs":           transform.Blogs(blogs, sel),
		"currentPage":     info.CurrentPage,
		"totalPages":      info.TotalPages,
		"totalCount":      info.TotalCount,
		"hasNextPage":     info.HasNextPage,
		"hasPreviousPage": info.HasPreviousPage,
	}
}

func emptyBlogPage(ctx context.Context, sel *fieldset.Selection) map[string]interface{} {
	return blogPageResult(ctx, nil, sel, planner.EmptyPageInfo())
}

func (r *Resolver) resolveBlogs(p graphql.ResolveParams) (interface{}, error) {
	sel := fieldset.Analyze(p)
	blogSel := sel.Child("blogs")
	viewerID := r.viewer(p.Context)

	input := inputMap(p.Args)
	filter, mode := filterFromInput(input)
	page := pageFromInput(input)

	plan, err := planner.PlanFeed(blogSel, filter, mode, page)
	if err != nil {
		return nil, fmt.Errorf("plan blog feed: %w", err)
	}
	result, err := r.store.FetchFeedPage(p.Context, plan, blogSel, planner.PlanBlogIncludes(blogSel, viewerID), viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch blog feed: %w", err)
	}
	return blogPageResult(p.Context, result.Blogs, blogSel, result.PageInfo), nil
}

func (r *Resolver) resolveBlog(p graphql.ResolveParams) (interface{}, error) {
	id, err := argID(p.Args, "id")
	if err != nil {
		return nil, err
	}
	sel := fieldset.Analyze(p)
	viewerID := r.viewer(p.Context)

	blog, err := r.store.BlogByID(p.Context, id, sel, planner.PlanBlogIncludes(sel, viewerID), viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch blog %d: %w", id, err)
	}
	return transform.Blog(blog, sel), nil
}

func (r *Resolver) resolveBlogBySlug(p graphql.ResolveParams) (interface{}, error) {
	slug, _ := p.Args["slug"].(string)
	if slug == "" {
		return nil, errors.New("invalid slug")
	}
	sel := fieldset.Analyze(p)
	viewerID := r.viewer(p.Context)

	blog, err := r.store.BlogBySlug(p.Context, slug, sel, planner.PlanBlogIncludes(sel, viewerID), viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch blog %q: %w", slug, err)
	}
	return transform.Blog(blog, sel), nil
}

// resolveForYouBlogs builds the personalized feed. Anonymous viewers and
// viewers without likes or follows fall back to trending; a failed signal
// fetch degrades to trending too rather than failing the request.
func (r *Resolver) resolveForYouBlogs(p graphql.ResolveParams) (interface{}, error) {
	sel := fieldset.Analyze(p)
	blogSel := sel.Child("blogs")
	viewerID := r.viewer(p.Context)
	page := pageFromInput(inputMap(p.Args))

	plan, err := r.planForYou(p, blogSel, viewerID, page)
	if err != nil {
		return nil, err
	}
	result, err := r.store.FetchFeedPage(p.Context, plan, blogSel, planner.PlanBlogIncludes(blogSel, viewerID), viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch for-you feed: %w", err)
	}
	return blogPageResult(p.Context, result.Blogs, blogSel, result.PageInfo), nil
}

func (r *Resolver) planForYou(p graphql.ResolveParams, blogSel *fieldset.Selection, viewerID int64, page planner.Page) (*planner.FeedPlan, error) {
	trending := func() (*planner.FeedPlan, error) {
		return planner.PlanFeed(blogSel, planner.BlogFilter{}, planner.SortTrending, page)
	}
	if viewerID == 0 {
		return trending()
	}

	signals, err := r.store.FetchForYouSignals(p.Context, viewerID)
	if err != nil {
		r.logError(p.Context, "personalization signals unavailable, serving trending", err)
		return trending()
	}
	if signals.ColdStart() {
		return trending()
	}
	return planner.PlanForYouFeed(blogSel, signals, page)
}

func (r *Resolver) resolveFollowingBlogs(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	sel := fieldset.Analyze(p)
	blogSel := sel.Child("blogs")
	page := pageFromInput(inputMap(p.Args))

	followed, err := r.store.FollowedAuthorIDs(p.Context, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch followed authors: %w", err)
	}
	if len(followed) == 0 {
		return emptyBlogPage(p.Context, blogSel), nil
	}

	plan, err := planner.PlanFollowingFeed(blogSel, followed, page)
	if err != nil {
		return nil, fmt.Errorf("plan following feed: %w", err)
	}
	result, err := r.store.FetchFeedPage(p.Context, plan, blogSel, planner.PlanBlogIncludes(blogSel, viewerID), viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch following feed: %w", err)
	}
	return blogPageResult(p.Context, result.Blogs, blogSel, result.PageInfo), nil
}

func (r *Resolver) resolveRandomBlogs(p graphql.ResolveParams) (interface{}, error) {
	sel := fieldset.Analyze(p)
	viewerID := r.viewer(p.Context)

	limit, _ := p.Args["limit"].(int)
	limit = planner.NormalizePage(1, limit).Limit

	total, err := r.corpusCount(p.Context)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []map[string]interface{}{}, nil
	}

	offset := planner.RandomOffset(total, limit, r.randIntn)
	q, err := planner.PlanRandomWindow(sel, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("plan random window: %w", err)
	}
	blogs, err := r.store.FetchBlogWindow(p.Context, q, sel, planner.PlanBlogIncludes(sel, viewerID), viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch random window: %w", err)
	}
	return transform.Blogs(blogs, sel), nil
}

func (r *Resolver) resolveMyBlogs(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	sel := fieldset.Analyze(p)
	blogSel := sel.Child("blogs")
	page := pageFromInput(inputMap(p.Args))

	plan, err := planner.PlanFeed(blogSel, planner.BlogFilter{AuthorID: viewerID}, planner.SortLatest, page)
	if err != nil {
		return nil, fmt.Errorf("plan my blogs: %w", err)
	}
	result, err := r.store.FetchFeedPage(p.Context, plan, blogSel, planner.PlanBlogIncludes(blogSel, viewerID), viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch my blogs: %w", err)
	}
	return blogPageResult(p.Context, result.Blogs, blogSel, result.PageInfo), nil
}

func (r *Resolver) resolveCommentsByBlogID(p graphql.ResolveParams) (interface{}, error) {
	blogID, err := argID(p.Args, "blogId")
	if err != nil {
		return nil, err
	}
	sel := fieldset.Analyze(p)
	viewerID := r.viewer(p.Context)

	comments, err := r.store.CommentsByBlogID(p.Context, blogID, sel, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch comments for blog %d: %w", blogID, err)
	}
	return transform.Comments(comments, sel), nil
}

func (r *Resolver) resolveCurrentUser(p graphql.ResolveParams) (interface{}, error) {
	viewerID := r.viewer(p.Context)
	if viewerID == 0 {
		return nil, nil
	}
	sel := fieldset.Analyze(p)

	user, err := r.store.UserByID(p.Context, viewerID, sel, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return transform.User(user, sel), nil
}

func (r *Resolver) resolveFollowerSuggestions(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	sel := fieldset.Analyze(p)
	userSel := sel.Child("users")

	var afterID int64
	if raw, ok := p.Args["cursor"].(string); ok && raw != "" {
		afterID, err = cursor.Decode(userCursorType, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
	}
	limit, _ := p.Args["limit"].(int)
	if limit <= 0 || limit > planner.MaxPageSize {
		limit = planner.DefaultSuggestionLimit
	}

	q, err := planner.PlanFollowerSuggestions(userSel, viewerID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("plan follower suggestions: %w", err)
	}
	page, err := r.store.FetchFollowerSuggestions(p.Context, q, userSel, limit, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch follower suggestions: %w", err)
	}

	var nextCursor interface{}
	if page.HasMore && len(page.Users) > 0 {
		nextCursor = cursor.Encode(userCursorType, page.Users[len(page.Users)-1].ID)
	}
	return map[string]interface{}{
		"users":      transform.Users(page.Users, userSel),
		"nextCursor": nextCursor,
		"hasMore":    page.HasMore,
	}, nil
}

func (r *Resolver) resolveIsUsernameAvailable(p graphql.ResolveParams) (interface{}, error) {
	username, _ := p.Args["username"].(string)
	if username == "" {
		return false, nil
	}
	available, err := r.store.UsernameAvailable(p.Context, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	return available, nil
}

func (r *Resolver) resolveAuthorByBlogID(p graphql.ResolveParams) (interface{}, error) {
	blogID, err := argID(p.Args, "blogId")
	if err != nil {
		return nil, err
	}
	sel := fieldset.Analyze(p)
	viewerID := r.viewer(p.Context)

	authorID, err := r.store.BlogAuthorID(p.Context, blogID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch blog author: %w", err)
	}
	user, err := r.store.UserByID(p.Context, authorID, sel, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch author %d: %w", authorID, err)
	}
	return transform.User(user, sel), nil
}
