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

// Node types.
const (
	TypeFolder = "cm:folder"
	TypeSite   = "st:site"
)

// Node id aliases accepted wherever a node id is.
const (
	AliasMy   = "-my-"
	AliasRoot = "-root-"
)

// DocumentLibrary is the name of a site's file container.
const DocumentLibrary = "documentLibrary"

// Node is a folder (or site container) in the repository tree.
type Node struct {
	ID          string
	ParentID    string
	Name        string
	NodeType    string
	Description string
	SiteID      string
	OwnerID     string
	CreatedBy   string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// IsFolder reports whether the node can hold children.
func (n *Node) IsFolder() bool {
	return n.NodeType == TypeFolder || n.NodeType == TypeSite
}

// NewFolder holds the fields for CreateFolder.
type NewFolder struct {
	// ParentID is a node id or alias.
	ParentID string
	Name     string
	// Description is stored as the cm:description property.
	Description string
	// RelativePath is resolved below ParentID; missing folders are created.
	RelativePath string
}

const nodeColumns = `id, COALESCE(parent_id, ''), name, node_type, description,
	COALESCE(site_id, ''), COALESCE(owner_id, ''), created_by, created_at, modified_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*Node, error) {
	var (
		n                 Node
		created, modified int64
	)
	if err := s.Scan(&n.ID, &n.ParentID, &n.Name, &n.NodeType, &n.Description,
		&n.SiteID, &n.OwnerID, &n.CreatedBy, &created, &modified); err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(created, 0)
	n.ModifiedAt = time.Unix(modified, 0)
	return &n, nil
}

func getNode(ctx context.Context, q querier, id string) (*Node, error) {
	n, err := scanNode(q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

func childByName(ctx context.Context, q querier, parentID, name string) (*Node, error) {
	n, err := scanNode(q.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE parent_id = ? AND name_key = casefold(?)`, parentID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get child %q: %w", name, err)
	}
	return n, nil
}

func insertNode(ctx context.Context, q querier, n *Node, now int64) error {
	_, err := q.ExecContext(ctx, `INSERT INTO nodes
		(id, parent_id, name, name_key, node_type, description, site_id, owner_id, created_by, created_at, modified_at)
		VALUES (?, ?, ?, casefold(?), ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)`,
		n.ID, n.ParentID, n.Name, n.Name, n.NodeType, n.Description, n.SiteID, n.OwnerID, n.CreatedBy, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.New(errs.AlreadyExists, MsgDuplicateFolder)
		}
		return err
	}
	n.CreatedAt = time.Unix(now, 0)
	n.ModifiedAt = n.CreatedAt
	return nil
}

// resolveAlias maps -my- and -root- to node ids.
func (r *Repository) resolveAlias(ctx context.Context, q querier, actor Actor, id string) (string, error) {
	switch id {
	case AliasRoot:
		return db.RootNodeID, nil
	case AliasMy:
		var home sql.NullString
		err := q.QueryRowContext(ctx, `SELECT home_node_id FROM people WHERE id = ?`, actor.PersonID).Scan(&home)
		if err != nil || !home.Valid {
			return "", errs.New(errs.NotFound, "The entity with id: -my- was not found")
		}
		return home.String, nil
	}
	return id, nil
}

// GetNode returns a node the actor can read. id may be an alias.
func (r *Repository) GetNode(ctx context.Context, actor Actor, id string) (*Node, error) {
	return r.ResolvePath(ctx, actor, id, "")
}

// ResolvePath walks relativePath below base (a node id or alias). Segment
// matching is case-insensitive, like sibling uniqueness.
func (r *Repository) ResolvePath(ctx context.Context, actor Actor, base, relativePath string) (*Node, error) {
	q := r.db.SQL()
	id, err := r.resolveAlias(ctx, q, actor, base)
	if err != nil {
		return nil, err
	}
	n, err := getNode(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if err := r.require(ctx, q, actor, n, permRead); err != nil {
		return nil, err
	}
	for _, seg := range splitPath(relativePath) {
		child, err := childByName(ctx, q, n.ID, seg)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, errs.New(errs.NotFound, "The entity with relativePath: "+relativePath+" was not found")
		}
		if err := r.require(ctx, q, actor, child, permRead); err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}

// Children lists the children of a readable node, folders sorted by name.
func (r *Repository) Children(ctx context.Context, actor Actor, id string) ([]Node, error) {
	parent, err := r.GetNode(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.SQL().QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE parent_id = ? ORDER BY name_key, id`, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// Ancestors returns the path from the root to the node, the node excluded.
func (r *Repository) Ancestors(ctx context.Context, actor Actor, id string) ([]Node, error) {
	n, err := r.GetNode(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	var chain []Node
	for n.ParentID != "" {
		n, err = getNode(ctx, r.db.SQL(), n.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, *n)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// CreateFolder creates a folder. The name is trimmed of surrounding spaces
// and validated; a sibling with the same name (ignoring case) is rejected
// with MsgDuplicateFolder.
func (r *Repository) CreateFolder(ctx context.Context, actor Actor, in NewFolder) (*Node, error) {
	if msg := ValidateFolderName(in.Name); msg != "" {
		return nil, errs.New(errs.InvalidArgument, msg)
	}
	name := TrimFolderName(in.Name)

	var created *Node
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		parent, err := r.ensurePath(ctx, tx, actor, in.ParentID, in.RelativePath)
		if err != nil {
			return err
		}
		created, err = r.createChild(ctx, tx, actor, parent, name, in.Description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateFolders creates each named folder below base/relativePath.
func (r *Repository) CreateFolders(ctx context.Context, actor Actor, base string, names []string, relativePath string) ([]Node, error) {
	out := make([]Node, 0, len(names))
	for _, name := range names {
		n, err := r.CreateFolder(ctx, actor, NewFolder{ParentID: base, Name: name, RelativePath: relativePath})
		if err != nil {
			return out, fmt.Errorf("create folder %q: %w", name, err)
		}
		out = append(out, *n)
	}
	return out, nil
}

// ensurePath resolves base and walks relativePath, creating missing folders.
func (r *Repository) ensurePath(ctx context.Context, q querier, actor Actor, base, relativePath string) (*Node, error) {
	id, err := r.resolveAlias(ctx, q, actor, base)
	if err != nil {
		return nil, err
	}
	n, err := getNode(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if err := r.require(ctx, q, actor, n, permRead); err != nil {
		return nil, err
	}
	for _, seg := range splitPath(relativePath) {
		child, err := childByName(ctx, q, n.ID, seg)
		if err != nil {
			return nil, err
		}
		if child == nil {
			if msg := ValidateFolderName(seg); msg != "" {
				return nil, errs.New(errs.InvalidArgument, msg)
			}
			child, err = r.createChild(ctx, q, actor, n, seg, "")
			if err != nil {
				return nil, err
			}
		} else if err := r.require(ctx, q, actor, child, permRead); err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}

func (r *Repository) createChild(ctx context.Context, q querier, actor Actor, parent *Node, name, description string) (*Node, error) {
	if !parent.IsFolder() {
		return nil, errs.New(errs.InvalidArgument, "Parent is not a folder: "+parent.ID)
	}
	if err := r.require(ctx, q, actor, parent, permCreate); err != nil {
		return nil, err
	}
	existing, err := childByName(ctx, q, parent.ID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.New(errs.AlreadyExists, MsgDuplicateFolder)
	}

	n := &Node{
		ID:          uuid.NewString(),
		ParentID:    parent.ID,
		Name:        name,
		NodeType:    TypeFolder,
		Description: description,
		SiteID:      parent.SiteID,
		OwnerID:     parent.OwnerID,
		CreatedBy:   actor.PersonID,
	}
	if err := insertNode(ctx, q, n, r.now()); err != nil {
		if errs.Is(err, errs.AlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	return n, nil
}

// DeleteNode deletes a node and its whole subtree.
func (r *Repository) DeleteNode(ctx context.Context, actor Actor, id string) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		resolved, err := r.resolveAlias(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		n, err := getNode(ctx, tx, resolved)
		if err != nil {
			return err
		}
		if err := r.require(ctx, tx, actor, n, permDelete); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, n.ID); err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		return nil
	})
}

// CanCreateChildren reports whether actor may create folders in node id.
func (r *Repository) CanCreateChildren(ctx context.Context, actor Actor, id string) (bool, error) {
	q := r.db.SQL()
	resolved, err := r.resolveAlias(ctx, q, actor, id)
	if err != nil {
		return false, err
	}
	n, err := getNode(ctx, q, resolved)
	if err != nil {
		return false, err
	}
	if !n.IsFolder() {
		return false, nil
	}
	ok, err := r.allowed(ctx, q, actor, n, permCreate)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// splitPath returns the trimmed, non-empty segments of p. Segments are
// trimmed like folder names so lookups match what creation stores.
func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg = TrimFolderName(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
