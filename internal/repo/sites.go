package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/content-e2e/internal/db"
	"github.com/kuitang/content-e2e/internal/errs"
)

// Site visibilities.
const (
	VisibilityPublic    = "PUBLIC"
	VisibilityModerated = "MODERATED"
	VisibilityPrivate   = "PRIVATE"
)

// Site roles, weakest first.
const (
	RoleConsumer     = "SiteConsumer"
	RoleContributor  = "SiteContributor"
	RoleCollaborator = "SiteCollaborator"
	RoleManager      = "SiteManager"
)

const systemCreator = "System"

var (
	roleRank = map[string]int{
		RoleConsumer:     1,
		RoleContributor:  2,
		RoleCollaborator: 3,
		RoleManager:      4,
	}
	siteIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,72}$`)
)

func roleAtLeast(role, min string) bool {
	return roleRank[role] >= roleRank[min] && roleRank[role] > 0
}

// ValidRole reports whether role is a known site role.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Site is a collaboration site with its own document library.
type Site struct {
	ID                string
	Title             string
	Description       string
	Visibility        string
	NodeID            string
	DocumentLibraryID string
	CreatedBy         string
	CreatedAt         time.Time
	// Role is the calling person's membership role, if any.
	Role string
}

// NewSite holds the fields for CreateSite.
type NewSite struct {
	ID          string
	Title       string
	Description string
	Visibility  string
}

// Member is a site membership.
type Member struct {
	SiteID   string
	PersonID string
	Role     string
}

// CreateSite creates a site node under Sites with a documentLibrary container.
// The creator becomes SiteManager.
func (r *Repository) CreateSite(ctx context.Context, actor Actor, in NewSite) (*Site, error) {
	if !siteIDPattern.MatchString(in.ID) {
		return nil, errs.New(errs.InvalidArgument, "Invalid site id: "+in.ID)
	}
	if in.Title == "" {
		in.Title = in.ID
	}
	if in.Visibility == "" {
		in.Visibility = VisibilityPublic
	}
	in.Visibility = strings.ToUpper(in.Visibility)
	switch in.Visibility {
	case VisibilityPublic, VisibilityModerated, VisibilityPrivate:
	default:
		return nil, errs.New(errs.InvalidArgument, "Invalid site visibility: "+in.Visibility)
	}

	now := r.now()
	s := &Site{
		ID:                in.ID,
		Title:             in.Title,
		Description:       in.Description,
		Visibility:        in.Visibility,
		NodeID:            uuid.NewString(),
		DocumentLibraryID: uuid.NewString(),
		CreatedBy:         actor.PersonID,
		CreatedAt:         time.Unix(now, 0),
		Role:              RoleManager,
	}

	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites WHERE casefold(id) = casefold(?)`, s.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check site: %w", err)
		}
		if exists > 0 {
			return errs.New(errs.AlreadyExists, "Site already exists: "+s.ID)
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO sites
			(id, title, description, visibility, node_id, doclib_node_id, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Title, s.Description, s.Visibility, s.NodeID, s.DocumentLibraryID, s.CreatedBy, now)
		if err != nil {
			return fmt.Errorf("insert site: %w", err)
		}

		siteNode := Node{ID: s.NodeID, ParentID: db.SitesNodeID, Name: s.ID, NodeType: TypeSite,
			Description: s.Description, SiteID: s.ID, CreatedBy: s.CreatedBy}
		if err := insertNode(ctx, tx, &siteNode, now); err != nil {
			return fmt.Errorf("create site node: %w", err)
		}
		docLib := Node{ID: s.DocumentLibraryID, ParentID: s.NodeID, Name: DocumentLibrary, NodeType: TypeFolder,
			SiteID: s.ID, CreatedBy: systemCreator}
		if err := insertNode(ctx, tx, &docLib, now); err != nil {
			return fmt.Errorf("create document library: %w", err)
		}

		if actor.PersonID != System.PersonID {
			if _, err := tx.ExecContext(ctx, `INSERT INTO site_members (site_id, person_id, role) VALUES (?, ?, ?)`,
				s.ID, actor.PersonID, RoleManager); err != nil {
				return fmt.Errorf("add site manager: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetSite returns a site visible to actor. Private sites are visible to members only.
func (r *Repository) GetSite(ctx context.Context, actor Actor, id string) (*Site, error) {
	s, err := getSite(ctx, r.db.SQL(), id, actor.PersonID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && s.Role == "" && s.Visibility == VisibilityPrivate {
		return nil, notFound(id)
	}
	return s, nil
}

func getSite(ctx context.Context, q querier, id, personID string) (*Site, error) {
	var (
		s       Site
		created int64
	)
	err := q.QueryRowContext(ctx, `SELECT s.id, s.title, s.description, s.visibility, s.node_id, s.doclib_node_id,
			s.created_by, s.created_at, COALESCE(m.role, '')
		FROM sites s LEFT JOIN site_members m ON m.site_id = s.id AND m.person_id = ?
		WHERE s.id = ?`, personID, id).
		Scan(&s.ID, &s.Title, &s.Description, &s.Visibility, &s.NodeID, &s.DocumentLibraryID,
			&s.CreatedBy, &created, &s.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("get site: %w", err)
	}
	s.CreatedAt = time.Unix(created, 0)
	return &s, nil
}

// ListSitesFor returns the sites actor is a member of, by title.
// Administrators see every site.
func (r *Repository) ListSitesFor(ctx context.Context, actor Actor) ([]Site, error) {
	query := `SELECT s.id, s.title, s.description, s.visibility, s.node_id, s.doclib_node_id,
			s.created_by, s.created_at, COALESCE(m.role, '')
		FROM sites s LEFT JOIN site_members m ON m.site_id = s.id AND m.person_id = ?`
	if !actor.Admin {
		query += ` WHERE m.role IS NOT NULL`
	}
	query += ` ORDER BY casefold(s.title), s.id`

	rows, err := r.db.SQL().QueryContext(ctx, query, actor.PersonID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		var (
			s       Site
			created int64
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Visibility, &s.NodeID, &s.DocumentLibraryID,
			&s.CreatedBy, &created, &s.Role); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		s.CreatedAt = time.Unix(created, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddMember adds personID to a site with role. Site managers and
// administrators may add members.
func (r *Repository) AddMember(ctx context.Context, actor Actor, siteID, personID, role string) (*Member, error) {
	if !ValidRole(role) {
		return nil, errs.New(errs.InvalidArgument, "Invalid site role: "+role)
	}
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		s, err := getSite(ctx, tx, siteID, actor.PersonID)
		if err != nil {
			return err
		}
		if !actor.Admin && s.Role != RoleManager {
			return errs.New(errs.PermissionDenied, MsgPermissionDenied)
		}

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM people WHERE id = ?`, personID).Scan(&exists); err != nil {
			return fmt.Errorf("check person: %w", err)
		}
		if exists == 0 {
			return notFound(personID)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO site_members (site_id, person_id, role) VALUES (?, ?, ?)`,
			s.ID, personID, role)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.New(errs.AlreadyExists, "Person "+personID+" is already a member of site "+s.ID)
			}
			return fmt.Errorf("add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Member{SiteID: siteID, PersonID: personID, Role: role}, nil
}

// DeleteSite removes a site, its memberships and its node subtree.
// Site managers and administrators may delete a site.
func (r *Repository) DeleteSite(ctx context.Context, actor Actor, siteID string) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		s, err := getSite(ctx, tx, siteID, actor.PersonID)
		if err != nil {
			return err
		}
		if !actor.Admin && s.Role != RoleManager {
			return errs.New(errs.PermissionDenied, MsgPermissionDenied)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, s.NodeID); err != nil {
			return fmt.Errorf("delete site nodes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, s.ID); err != nil {
			return fmt.Errorf("delete site: %w", err)
		}
		return nil
	})
}
