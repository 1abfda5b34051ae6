package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"blogql/internal/dbexec"
	"blogql/internal/fieldset"
	"blogql/internal/model"
	"blogql/internal/planner"
)

func (s *Store) usersByIDs(ctx context.Context, ids []int64, sel *fieldset.Selection) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	withImage := sel.Has("image")
	query, args, err := builder().
		Select(quoteAll(planner.UserColumns(sel))...).
		From("`users`").
		Where(sq.Eq{"`id`": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(r dbexec.Rows) (*model.User, error) {
		return scanUserRow(r, withImage)
	})
}

// UserByID fetches one user under the given selection, with includes.
func (s *Store) UserByID(ctx context.Context, id int64, sel *fieldset.Selection, viewerID int64) (*model.User, error) {
	users, err := s.usersByIDs(ctx, []int64{id}, sel)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	if err := s.ApplyUserIncludes(ctx, users, planner.PlanUserIncludes(sel, viewerID), viewerID); err != nil {
		return nil, err
	}
	return users[0], nil
}

// UserAuthRecord is the credential view of a user, fetched for login and
// token refresh. It is never shaped into a response directly.
type UserAuthRecord struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	ProviderID   *string
}

// UserAuthByEmail fetches the credential record for an email address.
func (s *Store) UserAuthByEmail(ctx context.Context, email string) (*UserAuthRecord, error) {
	return s.userAuth(ctx, sq.Eq{"`email`": email})
}

// UserAuthByID fetches the credential record by primary key.
func (s *Store) UserAuthByID(ctx context.Context, id int64) (*UserAuthRecord, error) {
	return s.userAuth(ctx, sq.Eq{"`id`": id})
}

func (s *Store) userAuth(ctx context.Context, cond sq.Sqlizer) (*UserAuthRecord, error) {
	query, args, err := builder().
		Select("`id`", "`username`", "`email`", "`password_hash`", "`provider_id`").
		From("`users`").
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
	records, err := collectRows(rows, func(r dbexec.Rows) (*UserAuthRecord, error) {
		var rec UserAuthRecord
		var providerID sql.NullString
		if err := r.Scan(&rec.ID, &rec.Username, &rec.Email, &rec.PasswordHash, &providerID); err != nil {
			return nil, err
		}
		if providerID.Valid {
			rec.ProviderID = &providerID.String
		}
		return &rec, nil
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// CreateUserParams carries the validated inputs for registration. Exactly
// one of PasswordHash or ProviderID is set.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash []byte
	FullName     *string
	ProfileImage *string
	ProviderID   *string
}

// CreateUser inserts a user row. A duplicate email or username surfaces
// as ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (int64, error) {
	res, err := s.exec1(ctx, builder().
		Insert("`users`").
		Columns("`username`", "`email`", "`password_hash`", "`full_name`", "`profile_image`", "`provider_id`").
		Values(p.Username, p.Email, p.PasswordHash, p.FullName, p.ProfileImage, p.ProviderID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateProfileParams carries the mutable profile fields. Nil pointers
// leave the stored value untouched.
type UpdateProfileParams struct {
	FullName *string
	UserBio  *string
	Image    []byte
}

// UpdateProfile applies a partial profile update for the user.
func (s *Store) UpdateProfile(ctx context.Context, userID int64, p UpdateProfileParams) error {
	update := builder().Update("`users`").Where(sq.Eq{"`id`": userID})
	changed := false
	if p.FullName != nil {
		update = update.Set("`full_name`", *p.FullName)
		changed = true
	}
	if p.UserBio != nil {
		update = update.Set("`user_bio`", *p.UserBio)
		changed = true
	}
	if p.Image != nil {
		update = update.Set("`image`", p.Image)
		changed = true
	}
	if !changed {
		return nil
	}
	_, err := s.exec1(ctx, update)
	return err
}

// SetProvider links an OAuth provider identity to an existing account.
func (s *Store) SetProvider(ctx context.Context, userID int64, providerID string) error {
	_, err := s.exec1(ctx, builder().
		Update("`users`").
		Set("`provider_id`", providerID).
		Where(sq.Eq{"`id`": userID}))
	return err
}

// UsernameAvailable reports whether no user holds the given username.
func (s *Store) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	query, args, err := builder().
		Select("1").
		From("`users`").
		Where(sq.Eq{"`username`": username}).
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
	return !rows.Next(), rows.Err()
}

// SuggestionPage is one cursor page of follow candidates. HasMore is
// derived from the planner's limit+1 overfetch.
type SuggestionPage struct {
	Users   []*model.User
	HasMore bool
}

// FetchFollowerSuggestions runs a planned suggestion query and trims the
// overfetched probe row.
func (s *Store) FetchFollowerSuggestions(ctx context.Context, q planner.SQLQuery, sel *fieldset.Selection, limit int, viewerID int64) (*SuggestionPage, error) {
	withImage := sel.Has("image")
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	users, err := collectRows(rows, func(r dbexec.Rows) (*model.User, error) {
		return scanUserRow(r, withImage)
	})
	if err != nil {
		return nil, err
	}

	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}
	if err := s.ApplyUserIncludes(ctx, users, planner.PlanUserIncludes(sel, viewerID), viewerID); err != nil {
		return nil, err
	}
	return &SuggestionPage{Users: users, HasMore: hasMore}, nil
}

// FollowedAuthorIDs returns the ids the viewer follows, for the
// follow-graph feed.
func (s *Store) FollowedAuthorIDs(ctx context.Context, viewerID int64) ([]int64, error) {
	query, args, err := builder().
		Select("`following_id`").
		From("`follows`").
		Where(sq.Eq{"`follower_id`": viewerID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, planner.SQLQuery{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanID)
}
