package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/content-e2e/internal/db"
	"github.com/kuitang/content-e2e/internal/errs"
)

// Person is a repository account.
type Person struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	IsAdmin    bool
	HomeNodeID string
	CreatedAt  time.Time
}

// NewPerson holds the fields for CreatePerson.
type NewPerson struct {
	ID        string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

const maxPersonIDLen = 100

// CreatePerson creates an account and its home folder under User Homes.
// Only administrators may create people.
func (r *Repository) CreatePerson(ctx context.Context, actor Actor, in NewPerson) (*Person, error) {
	if !actor.Admin {
		return nil, errs.New(errs.PermissionDenied, "Permission was denied")
	}
	return r.createPerson(ctx, in, false)
}

// EnsureAdmin creates the administrator account if it does not exist yet.
func (r *Repository) EnsureAdmin(ctx context.Context, id, password string) error {
	_, err := r.createPerson(ctx, NewPerson{ID: id, Password: password, FirstName: "Administrator"}, true)
	if err != nil && !errs.Is(err, errs.AlreadyExists) {
		return err
	}
	return nil
}

func (r *Repository) createPerson(ctx context.Context, in NewPerson, admin bool) (*Person, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return nil, errs.New(errs.InvalidArgument, "Person id is required")
	}
	if len(in.ID) > maxPersonIDLen || strings.ContainsAny(in.ID, ForbiddenNameChars) {
		return nil, errs.New(errs.InvalidArgument, "Invalid person id: "+in.ID)
	}
	if in.Password == "" {
		return nil, errs.New(errs.InvalidArgument, "Password is required")
	}
	if in.FirstName == "" {
		in.FirstName = in.ID
	}

	hash, err := r.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := r.now()
	// Administrators are homed at the repository root, so paths like
	// Sites/<site>/documentLibrary resolve below -my-.
	homeID := db.RootNodeID
	if !admin {
		homeID = uuid.NewString()
	}
	p := &Person{
		ID:         in.ID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		IsAdmin:    admin,
		HomeNodeID: homeID,
		CreatedAt:  time.Unix(now, 0),
	}

	err = r.db.InTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM people WHERE casefold(id) = casefold(?)`, p.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check person: %w", err)
		}
		if exists > 0 {
			return errs.New(errs.AlreadyExists, "Person already exists: "+p.ID)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO people
			(id, first_name, last_name, email, password_hash, is_admin, home_node_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.FirstName, p.LastName, p.Email, hash, boolToInt(admin), p.HomeNodeID, now)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.New(errs.AlreadyExists, "Person already exists: "+p.ID)
			}
			return fmt.Errorf("insert person: %w", err)
		}

		if admin {
			return nil
		}
		home := Node{
			ID:        p.HomeNodeID,
			ParentID:  db.UserHomesNodeID,
			Name:      p.ID,
			NodeType:  TypeFolder,
			OwnerID:   p.ID,
			CreatedBy: p.ID,
		}
		if err := insertNode(ctx, tx, &home, now); err != nil {
			return fmt.Errorf("create home folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPerson returns a person by id.
func (r *Repository) GetPerson(ctx context.Context, id string) (*Person, error) {
	p, _, err := r.getPersonWithHash(ctx, id)
	return p, err
}

// Authenticate verifies credentials. Unknown people and wrong passwords are
// indistinguishable to the caller.
func (r *Repository) Authenticate(ctx context.Context, id, password string) (*Person, error) {
	p, hash, err := r.getPersonWithHash(ctx, id)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.Unauthenticated, "Authentication failed")
		}
		return nil, err
	}
	if !r.hasher.VerifyPassword(password, hash) {
		return nil, errs.New(errs.Unauthenticated, "Authentication failed")
	}
	return p, nil
}

func (r *Repository) getPersonWithHash(ctx context.Context, id string) (*Person, string, error) {
	var (
		p       Person
		hash    string
		isAdmin int
		home    sql.NullString
		created int64
	)
	err := r.db.SQL().QueryRowContext(ctx, `SELECT id, first_name, last_name, email, password_hash, is_admin, home_node_id, created_at
		FROM people WHERE id = ?`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &hash, &isAdmin, &home, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", notFound(id)
		}
		return nil, "", fmt.Errorf("get person: %w", err)
	}
	p.IsAdmin = isAdmin == 1
	p.HomeNodeID = home.String
	p.CreatedAt = time.Unix(created, 0)
	return &p, hash, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
