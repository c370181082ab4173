// Package repo implements the content repository: people, sites and the
// folder tree, with the permission rules the UI and the REST surface share.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/kuitang/content-e2e/internal/db"
	"github.com/kuitang/content-e2e/internal/errs"
)

// PasswordHasher hashes and verifies people passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, encodedHash string) bool
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Actor is the authenticated person a repository call runs as.
type Actor struct {
	PersonID string
	Admin    bool
}

// System is the actor used for bootstrap work.
var System = Actor{PersonID: "System", Admin: true}

// Repository is the content repository service.
type Repository struct {
	db     *db.DB
	hasher PasswordHasher
	clock  Clock
}

// New creates a Repository over an opened database.
func New(d *db.DB, hasher PasswordHasher) *Repository {
	return &Repository{db: d, hasher: hasher, clock: realClock{}}
}

// SetClock replaces the clock used by the repository. Intended for testing.
func (r *Repository) SetClock(c Clock) {
	r.clock = c
}

// ActorFor loads the actor for an authenticated person id.
func (r *Repository) ActorFor(ctx context.Context, personID string) (Actor, error) {
	p, err := r.GetPerson(ctx, personID)
	if err != nil {
		return Actor{}, err
	}
	return Actor{PersonID: p.ID, Admin: p.IsAdmin}, nil
}

func (r *Repository) now() int64 {
	return r.clock.Now().Unix()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func notFound(id string) error {
	return errs.New(errs.NotFound, "The entity with id: "+id+" was not found")
}
