package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/graphql-go/graphql"

	"blogql/internal/auth"
	"blogql/internal/fieldset"
	"blogql/internal/planner"
	"blogql/internal/slug"
	"blogql/internal/store"
	"blogql/internal/transform"
	"blogql/internal/upload"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// issueSession mints a token pair and shapes the AuthPayload, loading the
// user under the union's user sub-selection.
func (r *Resolver) issueSession(ctx context.Context, userID int64, userSel *fieldset.Selection) (map[string]interface{}, error) {
	pair, err := r.issuer.IssuePair(userID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	var userValue map[string]interface{}
	if !userSel.IsEmpty() {
		user, err := r.store.UserByID(ctx, userID, userSel, userID)
		if err != nil {
			return nil, fmt.Errorf("load session user: %w", err)
		}
		userValue = transform.User(user, userSel)
	}
	return authPayload(pair.AccessToken, pair.RefreshToken, userValue), nil
}

func (r *Resolver) resolveRegister(p graphql.ResolveParams) (interface{}, error) {
	username, _ := p.Args["username"].(string)
	email, _ := p.Args["email"].(string)
	password, _ := p.Args["password"].(string)

	if !emailPattern.MatchString(email) {
		return authError("Invalid email address", CodeInvalidEmail), nil
	}
	if len(password) < minPasswordLength {
		return authError("Password must be at least 8 characters", CodeInvalidPassword), nil
	}
	if username == "" {
		return authError("Username is required", CodeUserCreationFailed), nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		r.logError(p.Context, "password hashing failed", err)
		return authError("Could not create account", CodeInternalError), nil
	}

	userID, err := r.store.CreateUser(p.Context, store.CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     optionalString(p.Args, "fullName"),
		ProfileImage: optionalString(p.Args, "profileImage"),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return authError("An account with this email or username already exists", CodeEmailTaken), nil
	}
	if err != nil {
		r.logError(p.Context, "user creation failed", err)
		return authError("Could not create account", CodeUserCreationFailed), nil
	}

	payload, err := r.issueSession(p.Context, userID, fieldset.Analyze(p).Child("user"))
	if err != nil {
		r.logError(p.Context, "session issue failed after registration", err)
		return authError("Could not create session", CodeInternalError), nil
	}
	return payload, nil
}

func (r *Resolver) resolveLogin(p graphql.ResolveParams) (interface{}, error) {
	email, _ := p.Args["email"].(string)
	password, _ := p.Args["password"].(string)

	record, err := r.store.UserAuthByEmail(p.Context, email)
	if errors.Is(err, store.ErrNotFound) {
		return authError("Invalid email or password", CodeInvalidCredentials), nil
	}
	if err != nil {
		r.logError(p.Context, "credential lookup failed", err)
		return authError("Could not sign in", CodeDatabaseError), nil
	}
	if record.PasswordHash == nil {
		return authError("This account uses a social login provider", CodeOAuthAccount), nil
	}
	if err := auth.CheckPassword(record.PasswordHash, password); err != nil {
		return authError("Invalid email or password", CodeInvalidCredentials), nil
	}

	payload, err := r.issueSession(p.Context, record.ID, fieldset.Analyze(p).Child("user"))
	if err != nil {
		r.logError(p.Context, "session issue failed after login", err)
		return authError("Could not create session", CodeInternalError), nil
	}
	return payload, nil
}

// resolveOAuthLogin signs a provider-authenticated user in, creating the
// account on first login and linking the provider identity to an existing
// account matched by email. When an OIDC verifier is configured the
// provider identity comes from the verified ID token, not the arguments.
func (r *Resolver) resolveOAuthLogin(p graphql.ResolveParams) (interface{}, error) {
	email, _ := p.Args["email"].(string)
	username, _ := p.Args["username"].(string)
	providerID, _ := p.Args["providerId"].(string)
	fullName := optionalString(p.Args, "fullName")
	profileImage := optionalString(p.Args, "profileImage")

	if r.oidc != nil {
		idToken, _ := p.Args["idToken"].(string)
		if idToken == "" {
			return authError("Missing provider ID token", CodeInvalidCredentials), nil
		}
		identity, err := r.oidc.VerifyIDToken(p.Context, idToken)
		if err != nil {
			r.logError(p.Context, "ID token verification failed", err)
			return authError("Could not verify provider identity", CodeInvalidCredentials), nil
		}
		providerID = identity.Subject
		if identity.Email != "" {
			email = identity.Email
		}
		if fullName == nil && identity.Name != "" {
			fullName = &identity.Name
		}
		if profileImage == nil && identity.Picture != "" {
			profileImage = &identity.Picture
		}
	}

	if !emailPattern.MatchString(email) {
		return authError("Invalid email address", CodeInvalidEmail), nil
	}
	if providerID == "" {
		return authError("Missing provider identity", CodeInvalidCredentials), nil
	}

	record, err := r.store.UserAuthByEmail(p.Context, email)
	switch {
	case err == nil:
		if record.ProviderID == nil {
			if err := r.store.SetProvider(p.Context, record.ID, providerID); err != nil {
				r.logError(p.Context, "provider link failed", err)
				return authError("Could not sign in", CodeDatabaseError), nil
			}
		}
	case errors.Is(err, store.ErrNotFound):
		userID, createErr := r.store.CreateUser(p.Context, store.CreateUserParams{
			Username:     username,
			Email:        email,
			FullName:     fullName,
			ProfileImage: profileImage,
			ProviderID:   &providerID,
		})
		if errors.Is(createErr, store.ErrDuplicate) {
			return authError("Username is already taken", CodeUserCreationFailed), nil
		}
		if createErr != nil {
			r.logError(p.Context, "oauth user creation failed", createErr)
			return authError("Could not create account", CodeUserCreationFailed), nil
		}
		record = &store.UserAuthRecord{ID: userID}
	default:
		r.logError(p.Context, "credential lookup failed", err)
		return authError("Could not sign in", CodeDatabaseError), nil
	}

	payload, err := r.issueSession(p.Context, record.ID, fieldset.Analyze(p).Child("user"))
	if err != nil {
		r.logError(p.Context, "session issue failed after oauth login", err)
		return authError("Could not create session", CodeInternalError), nil
	}
	return payload, nil
}

func (r *Resolver) resolveRefreshToken(p graphql.ResolveParams) (interface{}, error) {
	refreshToken, _ := p.Args["refreshToken"].(string)

	userID, err := r.issuer.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return authError("Invalid or expired refresh token", CodeInvalidCredentials), nil
	}
	if _, err := r.store.UserAuthByID(p.Context, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return authError("Account no longer exists", CodeInvalidCredentials), nil
		}
		r.logError(p.Context, "refresh lookup failed", err)
		return authError("Could not refresh session", CodeDatabaseError), nil
	}

	payload, err := r.issueSession(p.Context, userID, fieldset.Analyze(p).Child("user"))
	if err != nil {
		r.logError(p.Context, "session issue failed after refresh", err)
		return authError("Could not refresh session", CodeInternalError), nil
	}
	return payload, nil
}

func (r *Resolver) resolveCreateBlog(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}

	title, _ := p.Args["title"].(string)
	if title == "" {
		return nil, errors.New("title is required")
	}
	content, _ := p.Args["content"].(string)
	if !json.Valid([]byte(content)) {
		return nil, errors.New("content must be valid JSON")
	}

	var genre []string
	if rawGenre, ok := p.Args["genre"].([]interface{}); ok {
		for _, g := range rawGenre {
			if s, ok := g.(string); ok {
				genre = append(genre, s)
			}
		}
	}

	var image []byte
	if raw, ok := p.Args["image"]; ok && raw != nil {
		file := upload.Resolve(p.Context, raw)
		if file == nil || len(file.Data) == 0 {
			return nil, fmt.Errorf("%s: uploaded image is empty", CodeInvalidImage)
		}
		if !file.IsImage() {
			return nil, fmt.Errorf("%s: uploaded file is not an image", CodeInvalidImage)
		}
		image = file.Data
	}

	blogSlug, err := slug.Generate(p.Context, title, r.store.SlugExists)
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}

	blogID, err := r.store.CreateBlog(p.Context, store.CreateBlogParams{
		Slug:        blogSlug,
		Title:       title,
		Description: optionalString(p.Args, "description"),
		Content:     json.RawMessage(content),
		Image:       image,
		Genre:       genre,
		AuthorID:    viewerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}

	sel := fieldset.Analyze(p)
	blog, err := r.store.BlogByID(p.Context, blogID, sel, planner.PlanBlogIncludes(sel, viewerID), viewerID)
	if err != nil {
		return nil, fmt.Errorf("load created blog: %w", err)
	}
	return transform.Blog(blog, sel), nil
}

func (r *Resolver) resolveUpdateProfile(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}

	params := store.UpdateProfileParams{
		FullName: optionalString(p.Args, "fullName"),
		UserBio:  optionalString(p.Args, "userBio"),
	}
	if raw, ok := p.Args["image"]; ok && raw != nil {
		file := upload.Resolve(p.Context, raw)
		if file == nil || !file.IsImage() {
			return nil, fmt.Errorf("%s: uploaded file is not an image", CodeInvalidImage)
		}
		params.Image = file.Data
	}

	if err := r.store.UpdateProfile(p.Context, viewerID, params); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	sel := fieldset.Analyze(p)
	user, err := r.store.UserByID(p.Context, viewerID, sel, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return transform.User(user, sel), nil
}

func (r *Resolver) resolveToggleLike(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	blogID, err := argID(p.Args, "blogId")
	if err != nil {
		return nil, err
	}

	liked, err := r.store.ToggleLike(p.Context, blogID, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("Blog not found")
	}
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	message := "Like removed"
	if liked {
		message = "Blog liked"
	}

	out := map[string]interface{}{"success": true, "message": message, "liked": liked, "like": nil}
	if likeSel := fieldset.Analyze(p).Child("like"); liked && !likeSel.IsEmpty() {
		like, err := r.store.LikeForViewer(p.Context, blogID, viewerID, likeSel)
		if err != nil {
			return nil, fmt.Errorf("load like: %w", err)
		}
		out["like"] = transform.Like(like, likeSel)
	}
	return out, nil
}

func (r *Resolver) resolveToggleBookmark(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	blogID, err := argID(p.Args, "blogId")
	if err != nil {
		return nil, err
	}

	bookmarked, err := r.store.ToggleBookmark(p.Context, blogID, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("Blog not found")
	}
	if err != nil {
		return nil, fmt.Errorf("toggle bookmark: %w", err)
	}
	message := "Bookmark removed"
	if bookmarked {
		message = "Blog bookmarked"
	}

	out := map[string]interface{}{"success": true, "message": message, "bookmarked": bookmarked, "bookmark": nil}
	if bookmarkSel := fieldset.Analyze(p).Child("bookmark"); bookmarked && !bookmarkSel.IsEmpty() {
		bookmark, err := r.store.BookmarkForViewer(p.Context, blogID, viewerID, bookmarkSel)
		if err != nil {
			return nil, fmt.Errorf("load bookmark: %w", err)
		}
		out["bookmark"] = transform.Bookmark(bookmark, bookmarkSel)
	}
	return out, nil
}

func (r *Resolver) resolveToggleFollow(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	userID, err := argID(p.Args, "userId")
	if err != nil {
		return nil, err
	}

	following, err := r.store.ToggleFollow(p.Context, viewerID, userID)
	if errors.Is(err, store.ErrSelfFollow) {
		return map[string]interface{}{"success": false, "message": "You cannot follow yourself", "isFollowing": false}, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("toggle follow: %w", err)
	}
	message := "Unfollowed"
	if following {
		message = "Following"
	}

	out := map[string]interface{}{"success": true, "message": message, "isFollowing": following, "user": nil}
	if userSel := fieldset.Analyze(p).Child("user"); following && !userSel.IsEmpty() {
		followed, err := r.store.UserByID(p.Context, userID, userSel, viewerID)
		if err != nil {
			return nil, fmt.Errorf("load followed user: %w", err)
		}
		out["user"] = transform.User(followed, userSel)
	}
	return out, nil
}

func (r *Resolver) resolveToggleCommentLike(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	commentID, err := argID(p.Args, "commentId")
	if err != nil {
		return nil, err
	}

	liked, err := r.store.ToggleCommentLike(p.Context, commentID, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("Comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("toggle comment like: %w", err)
	}
	message := "Like removed"
	if liked {
		message = "Comment liked"
	}

	out := map[string]interface{}{"success": true, "message": message, "liked": liked, "comment": nil}
	if commentSel := fieldset.Analyze(p).Child("comment"); liked && !commentSel.IsEmpty() {
		comment, err := r.store.CommentWithIncludes(p.Context, commentID, commentSel, viewerID)
		if err != nil {
			return nil, fmt.Errorf("load liked comment: %w", err)
		}
		out["comment"] = transform.Comment(comment, commentSel)
	}
	return out, nil
}

func (r *Resolver) resolveCreateComment(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	blogID, err := argID(p.Args, "blogId")
	if err != nil {
		return nil, err
	}
	content, _ := p.Args["content"].(string)
	if content == "" {
		return nil, errors.New("comment content is required")
	}

	if _, err := r.store.BlogAuthorID(p.Context, blogID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.New("Blog not found")
		}
		return nil, fmt.Errorf("check blog: %w", err)
	}

	var parentID *int64
	if raw, ok := p.Args["parentCommentId"]; ok && raw != nil {
		id, err := argID(p.Args, "parentCommentId")
		if err != nil {
			return nil, err
		}
		parentID = &id
	}

	commentID, err := r.store.CreateComment(p.Context, blogID, viewerID, content, parentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("Parent comment not found")
	}
	if errors.Is(err, store.ErrReplyDepth) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	sel := fieldset.Analyze(p)
	comment, err := r.store.CommentWithIncludes(p.Context, commentID, sel, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load created comment: %w", err)
	}
	return transform.Comment(comment, sel), nil
}

func (r *Resolver) resolveDeleteComment(p graphql.ResolveParams) (interface{}, error) {
	viewerID, err := r.requireViewer(p.Context)
	if err != nil {
		return nil, err
	}
	commentID, err := argID(p.Args, "commentId")
	if err != nil {
		return nil, err
	}

	comment, err := r.store.CommentByID(p.Context, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("Comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	if comment.AuthorID != viewerID {
		return nil, errors.New("You can only delete your own comments")
	}

	if err := r.store.DeleteComment(p.Context, commentID, viewerID); err != nil {
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	return map[string]interface{}{"success": true, "message": "Comment deleted"}, nil
}
