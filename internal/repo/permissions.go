package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kuitang/content-e2e/internal/db"
	"github.com/kuitang/content-e2e/internal/errs"
)

type permission int

const (
	permRead permission = iota
	permCreate
	permDelete
)

// MsgPermissionDenied is the briefSummary of permission errors.
const MsgPermissionDenied = "Permission was denied"

func (r *Repository) require(ctx context.Context, q querier, actor Actor, n *Node, p permission) error {
	ok, err := r.allowed(ctx, q, actor, n, p)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.PermissionDenied, MsgPermissionDenied)
	}
	return nil
}

// allowed evaluates the access rules:
//   - the fixed top of the tree, site nodes and home folders can't be deleted
//   - administrators can do anything else
//   - a home subtree belongs to its owner alone
//   - in a site, members read; PUBLIC and MODERATED sites are readable by everyone;
//     Contributors and above create; Collaborators and above delete anything,
//     Contributors only what they created
//   - everything else is readable and admin-writable
func (r *Repository) allowed(ctx context.Context, q querier, actor Actor, n *Node, p permission) (bool, error) {
	if p == permDelete && isProtected(n) {
		return false, nil
	}
	if actor.Admin {
		return true, nil
	}

	switch {
	case n.OwnerID != "":
		return n.OwnerID == actor.PersonID, nil

	case n.SiteID != "":
		role, visibility, err := siteAccess(ctx, q, n.SiteID, actor.PersonID)
		if err != nil {
			return false, err
		}
		switch p {
		case permRead:
			return role != "" || visibility == VisibilityPublic || visibility == VisibilityModerated, nil
		case permCreate:
			return n.NodeType != TypeSite && roleAtLeast(role, RoleContributor), nil
		case permDelete:
			if roleAtLeast(role, RoleCollaborator) {
				return true, nil
			}
			return roleAtLeast(role, RoleContributor) && n.CreatedBy == actor.PersonID, nil
		}

	default:
		return p == permRead, nil
	}
	return false, nil
}

func isProtected(n *Node) bool {
	switch {
	case n.ParentID == "" || n.ID == db.SitesNodeID || n.ID == db.UserHomesNodeID:
		return true
	case n.NodeType == TypeSite:
		return true
	case n.ParentID == db.UserHomesNodeID:
		return true
	case n.SiteID != "" && n.Name == DocumentLibrary && n.CreatedBy == systemCreator:
		return true
	}
	return false
}

// siteAccess returns the person's role ("" for non-members) and the site visibility.
func siteAccess(ctx context.Context, q querier, siteID, personID string) (role, visibility string, err error) {
	err = q.QueryRowContext(ctx, `SELECT s.visibility, COALESCE(m.role, '')
		FROM sites s LEFT JOIN site_members m ON m.site_id = s.id AND m.person_id = ?
		WHERE s.id = ?`, personID, siteID).Scan(&visibility, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", notFound(siteID)
		}
		return "", "", fmt.Errorf("site access: %w", err)
	}
	return role, visibility, nil
}
