package db

// Well-known node IDs created by Schema.
const (
	RootNodeID      = "company-home"
	SitesNodeID     = "sites"
	UserHomesNodeID = "user-homes"
)

// Schema creates the content repository tables and the fixed top of the node tree.
const Schema = `
CREATE TABLE IF NOT EXISTS people (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    is_admin INTEGER NOT NULL DEFAULT 0,
    home_node_id TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    expires_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_person_id ON sessions(person_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);

-- nodes: the folder tree. owner_id is set for user-home subtrees, site_id for site subtrees.
CREATE TABLE IF NOT EXISTS nodes (
    id TEXT PRIMARY KEY,
    parent_id TEXT REFERENCES nodes(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    name_key TEXT NOT NULL,
    node_type TEXT NOT NULL DEFAULT 'cm:folder',
    description TEXT NOT NULL DEFAULT '',
    site_id TEXT,
    owner_id TEXT,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    modified_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_parent_name ON nodes(parent_id, name_key);
CREATE INDEX IF NOT EXISTS idx_nodes_site_id ON nodes(site_id);

CREATE TABLE IF NOT EXISTS sites (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    visibility TEXT NOT NULL,
    node_id TEXT NOT NULL,
    doclib_node_id TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS site_members (
    site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
    person_id TEXT NOT NULL,
    role TEXT NOT NULL,
    PRIMARY KEY (site_id, person_id)
);

INSERT OR IGNORE INTO nodes (id, parent_id, name, name_key, created_by, created_at, modified_at)
    VALUES ('company-home', NULL, 'Company Home', 'company home', 'System', 0, 0);
INSERT OR IGNORE INTO nodes (id, parent_id, name, name_key, created_by, created_at, modified_at)
    VALUES ('sites', 'company-home', 'Sites', 'sites', 'System', 0, 0);
INSERT OR IGNORE INTO nodes (id, parent_id, name, name_key, created_by, created_at, modified_at)
    VALUES ('user-homes', 'company-home', 'User Homes', 'user homes', 'System', 0, 0);
`
