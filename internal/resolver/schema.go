package resolver

import (
	"github.com/graphql-go/graphql"

	"blogql/internal/scalars"
)

// Schema builds the static GraphQL schema bound to this resolver.
func (r *Resolver) Schema() (graphql.Schema, error) {
	jsonScalar := scalars.JSON()
	dateTime := scalars.DateTime()
	uploadScalar := scalars.Upload()

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"username":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"fullName":       &graphql.Field{Type: graphql.String},
			"userBio":        &graphql.Field{Type: graphql.String},
			"image":          &graphql.Field{Type: graphql.String},
			"profileImage":   &graphql.Field{Type: graphql.String},
			"createdAt":      &graphql.Field{Type: graphql.NewNonNull(dateTime)},
			"followerCount":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"followingCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"isFollowing":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})

	commentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Comment",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"content":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"blogId":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"parentCommentId": &graphql.Field{Type: graphql.ID},
			"createdAt":       &graphql.Field{Type: graphql.NewNonNull(dateTime)},
			"likeCount":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"replyCount":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasLiked":        &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"user":            &graphql.Field{Type: userType},
		},
	})
	commentType.AddFieldConfig("replies", &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(commentType)),
	})

	blogType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Blog",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"slug":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"title":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description":    &graphql.Field{Type: graphql.String},
			"content":        &graphql.Field{Type: graphql.NewNonNull(jsonScalar)},
			"image":          &graphql.Field{Type: graphql.String},
			"genre":          &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"createdAt":      &graphql.Field{Type: graphql.NewNonNull(dateTime)},
			"author":         &graphql.Field{Type: userType},
			"comments":       &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(commentType))},
			"likesCount":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"commentsCount":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"bookmarksCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasLiked":       &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasBookmarked":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})

	likeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Like",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"blogId":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(dateTime)},
			"user":      &graphql.Field{Type: userType},
			"blog":      &graphql.Field{Type: blogType},
		},
	})
	bookmarkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bookmark",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"blogId":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(dateTime)},
			"user":      &graphql.Field{Type: userType},
			"blog":      &graphql.Field{Type: blogType},
		},
	})
	blogType.AddFieldConfig("likes", &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(likeType)),
	})
	blogType.AddFieldConfig("bookmarks", &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(bookmarkType)),
	})

	blogPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BlogPage",
		Fields: graphql.Fields{
			"blogs":           &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(blogType)))},
			"currentPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalPages":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalCount":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})

	followerSuggestionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FollowerSuggestions",
		Fields: graphql.Fields{
			"users":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType)))},
			"nextCursor": &graphql.Field{Type: graphql.String},
			"hasMore":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"accessToken":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"refreshToken": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":         &graphql.Field{Type: userType},
		},
	})
	authErrorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthError",
		Fields: graphql.Fields{
			"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"code":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	authResultUnion := graphql.NewUnion(graphql.UnionConfig{
		Name:  "AuthResult",
		Types: []*graphql.Object{authPayloadType, authErrorType},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			if value, ok := p.Value.(map[string]interface{}); ok && isAuthError(value) {
				return authErrorType
			}
			return authPayloadType
		},
	})

	// Toggle responses echo the created relation record when the toggle
	// landed on the active state; after a removal the member is null.
	toggleLikeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ToggleLikeResponse",
		Fields: graphql.Fields{
			"success": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"liked":   &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"like":    &graphql.Field{Type: likeType},
		},
	})
	toggleBookmarkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ToggleBookmarkResponse",
		Fields: graphql.Fields{
			"success":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"message":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"bookmarked": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"bookmark":   &graphql.Field{Type: bookmarkType},
		},
	})
	toggleFollowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ToggleFollowResponse",
		Fields: graphql.Fields{
			"success":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"message":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"isFollowing": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"user":        &graphql.Field{Type: userType},
		},
	})
	toggleCommentLikeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ToggleCommentLikeResponse",
		Fields: graphql.Fields{
			"success": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"liked":   &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"comment": &graphql.Field{Type: commentType},
		},
	})
	deleteCommentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DeleteCommentResponse",
		Fields: graphql.Fields{
			"success": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	blogFilterInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BlogFilterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"page":   &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"limit":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"sortBy": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"genres": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"search": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	pageInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PageInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"page":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"limit": &graphql.InputObjectFieldConfig{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"blogs": &graphql.Field{
				Type: graphql.NewNonNull(blogPageType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: blogFilterInput},
				},
				Resolve: r.resolveBlogs,
			},
			"blog": &graphql.Field{
				Type: blogType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveBlog,
			},
			"blogBySlug": &graphql.Field{
				Type: blogType,
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveBlogBySlug,
			},
			"forYouBlogs": &graphql.Field{
				Type: graphql.NewNonNull(blogPageType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: pageInput},
				},
				Resolve: r.resolveForYouBlogs,
			},
			"followingBlogs": &graphql.Field{
				Type: graphql.NewNonNull(blogPageType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: pageInput},
				},
				Resolve: r.resolveFollowingBlogs,
			},
			"randomBlogs": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(blogType))),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.resolveRandomBlogs,
			},
			"myBlogs": &graphql.Field{
				Type: graphql.NewNonNull(blogPageType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: pageInput},
				},
				Resolve: r.resolveMyBlogs,
			},
			"commentsByBlogId": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(commentType))),
				Args: graphql.FieldConfigArgument{
					"blogId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveCommentsByBlogID,
			},
			"currentUser": &graphql.Field{
				Type:    userType,
				Resolve: r.resolveCurrentUser,
			},
			"followerSuggestions": &graphql.Field{
				Type: graphql.NewNonNull(followerSuggestionsType),
				Args: graphql.FieldConfigArgument{
					"cursor": &graphql.ArgumentConfig{Type: graphql.String},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.resolveFollowerSuggestions,
			},
			"isUsernameAvailable": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveIsUsernameAvailable,
			},
			"authorByBlogId": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"blogId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveAuthorByBlogID,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: graphql.NewNonNull(authResultUnion),
				Args: graphql.FieldConfigArgument{
					"username":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"fullName":     &graphql.ArgumentConfig{Type: graphql.String},
					"profileImage": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.resolveRegister,
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authResultUnion),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveLogin,
			},
			"oauthLogin": &graphql.Field{
				Type: graphql.NewNonNull(authResultUnion),
				Args: graphql.FieldConfigArgument{
					"email":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"username":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"providerId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"idToken":      &graphql.ArgumentConfig{Type: graphql.String},
					"fullName":     &graphql.ArgumentConfig{Type: graphql.String},
					"profileImage": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.resolveOAuthLogin,
			},
			"refreshToken": &graphql.Field{
				Type: graphql.NewNonNull(authResultUnion),
				Args: graphql.FieldConfigArgument{
					"refreshToken": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveRefreshToken,
			},
			"createBlog": &graphql.Field{
				Type: graphql.NewNonNull(blogType),
				Args: graphql.FieldConfigArgument{
					"title":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"content":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(jsonScalar)},
					"genre":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
					"image":       &graphql.ArgumentConfig{Type: uploadScalar},
				},
				Resolve: r.resolveCreateBlog,
			},
			"updateProfile": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"fullName": &graphql.ArgumentConfig{Type: graphql.String},
					"userBio":  &graphql.ArgumentConfig{Type: graphql.String},
					"image":    &graphql.ArgumentConfig{Type: uploadScalar},
				},
				Resolve: r.resolveUpdateProfile,
			},
			"toggleLike": &graphql.Field{
				Type: graphql.NewNonNull(toggleLikeType),
				Args: graphql.FieldConfigArgument{
					"blogId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveToggleLike,
			},
			"toggleBookmark": &graphql.Field{
				Type: graphql.NewNonNull(toggleBookmarkType),
				Args: graphql.FieldConfigArgument{
					"blogId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveToggleBookmark,
			},
			"toggleFollow": &graphql.Field{
				Type: graphql.NewNonNull(toggleFollowType),
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveToggleFollow,
			},
			"toggleCommentLike": &graphql.Field{
				Type: graphql.NewNonNull(toggleCommentLikeType),
				Args: graphql.FieldConfigArgument{
					"commentId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveToggleCommentLike,
			},
			"createComment": &graphql.Field{
				Type: graphql.NewNonNull(commentType),
				Args: graphql.FieldConfigArgument{
					"blogId":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"content":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"parentCommentId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: r.resolveCreateComment,
			},
			"deleteComment": &graphql.Field{
				Type: graphql.NewNonNull(deleteCommentType),
				Args: graphql.FieldConfigArgument{
					"commentId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveDeleteComment,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
