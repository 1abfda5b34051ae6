// Package store executes planned SQL against the database and scans rows
// into model records. It owns no query-shaping logic beyond simple keyed
// lookups; feeds and projections arrive pre-planned from the planner.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"blogql/internal/dbexec"
	"blogql/internal/model"
	"blogql/internal/planner"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the data access layer. All methods take the query executor seam
// so tests can substitute sqlmock-backed handles.
type Store struct {
	exec dbexec.QueryExecutor
}

// New builds a store over the given executor.
func New(exec dbexec.QueryExecutor) *Store {
	return &Store{exec: exec}
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// isDuplicateKey reports whether err is a MySQL unique constraint violation.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// isMissingReference reports whether err is a MySQL foreign key violation
// on write, meaning the referenced row does not exist.
func isMissingReference(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1452
}

func (s *Store) query(ctx context.Context, q planner.SQLQuery) (dbexec.Rows, error) {
	rows, err := s.exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

func (s *Store) exec1(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	res, err := s.exec.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		if isMissingReference(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return res, nil
}

// scanCount reads a single COUNT(*) row.
func (s *Store) scanCount(ctx context.Context, q planner.SQLQuery) (int, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	return count, rows.Err()
}

func scanBlogRow(rows dbexec.Rows, withImage bool) (*model.Blog, error) {
	var (
		b           model.Blog
		description sql.NullString
		content     []byte
		genre       []byte
		image       []byte
	)
	dest := []any{&b.ID, &b.Slug, &b.Title, &description, &content, &genre, &b.AuthorID, &b.CreatedAt}
	if withImage {
		dest = append(dest, &image)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan blog: %w", err)
	}
	if description.Valid {
		b.Description = &description.String
	}
	b.Content = json.RawMessage(content)
	if len(genre) > 0 {
		if err := json.Unmarshal(genre, &b.Genre); err != nil {
			return nil, fmt.Errorf("decode genre for blog %d: %w", b.ID, err)
		}
	}
	b.Image = image
	return &b, nil
}

func scanUserRow(rows dbexec.Rows, withImage bool) (*model.User, error) {
	var (
		u            model.User
		fullName     sql.NullString
		userBio      sql.NullString
		profileImage sql.NullString
		providerID   sql.NullString
		image        []byte
	)
	dest := []any{&u.ID, &u.Username, &u.Email, &fullName, &userBio, &profileImage, &providerID, &u.CreatedAt}
	if withImage {
		dest = append(dest, &image)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	if userBio.Valid {
		u.UserBio = &userBio.String
	}
	if profileImage.Valid {
		u.ProfileImage = &profileImage.String
	}
	if providerID.Valid {
		u.ProviderID = &providerID.String
	}
	u.Image = image
	return &u, nil
}

func scanCommentRow(rows dbexec.Rows) (*model.Comment, error) {
	var (
		c      model.Comment
		parent sql.NullInt64
	)
	if err := rows.Scan(&c.ID, &c.Content, &c.BlogID, &c.AuthorID, &parent, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	if parent.Valid {
		c.ParentCommentID = &parent.Int64
	}
	return &c, nil
}

// collectRows drains a row set through scan, closing it afterward.
func collectRows[T any](rows dbexec.Rows, scan func(dbexec.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
