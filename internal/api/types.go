package api

import (
	"time"

	"github.com/kuitang/content-e2e/internal/repo"
)

// BasePath is the prefix of the public REST API.
const BasePath = "/api/-default-/public/alfresco/versions/1"

// PropDescription is the node property holding a folder description.
const PropDescription = "cm:description"

// Entry wraps a single resource.
type Entry[T any] struct {
	Entry T `json:"entry"`
}

// List wraps a page of resources.
type List[T any] struct {
	List ListBody[T] `json:"list"`
}

// ListBody is the body of a List.
type ListBody[T any] struct {
	Pagination Pagination `json:"pagination"`
	Entries    []Entry[T] `json:"entries"`
}

// Pagination describes a page of a list.
type Pagination struct {
	Count        int  `json:"count"`
	HasMoreItems bool `json:"hasMoreItems"`
	TotalItems   int  `json:"totalItems"`
	SkipCount    int  `json:"skipCount"`
	MaxItems     int  `json:"maxItems"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	StatusCode   int    `json:"statusCode"`
	BriefSummary string `json:"briefSummary"`
}

// PersonBody is both the create request and the response entry for people.
type PersonBody struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// SiteBody is both the create request and the response entry for sites.
type SiteBody struct {
	ID          string `json:"id"`
	GUID        string `json:"guid,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
	Role        string `json:"role,omitempty"`
}

// MemberBody is both the add-member request and the response entry.
type MemberBody struct {
	ID     string      `json:"id"`
	Role   string      `json:"role"`
	Person *PersonBody `json:"person,omitempty"`
}

// UserInfo names the creator of a node.
type UserInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// NodeBody is the response entry for nodes.
type NodeBody struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	NodeType      string            `json:"nodeType"`
	IsFolder      bool              `json:"isFolder"`
	IsFile        bool              `json:"isFile"`
	ParentID      string            `json:"parentId,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	ModifiedAt    time.Time         `json:"modifiedAt"`
	CreatedByUser UserInfo          `json:"createdByUser"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// NodeCreateBody is the POST /nodes/{id}/children request.
type NodeCreateBody struct {
	Name         string            `json:"name"`
	NodeType     string            `json:"nodeType"`
	RelativePath string            `json:"relativePath,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
}

func personBody(p *repo.Person) PersonBody {
	return PersonBody{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, Enabled: true}
}

func siteBody(s *repo.Site) SiteBody {
	return SiteBody{
		ID:          s.ID,
		GUID:        s.NodeID,
		Title:       s.Title,
		Description: s.Description,
		Visibility:  s.Visibility,
		Role:        s.Role,
	}
}

// NodeBodyFrom converts a repository node to its wire form.
func NodeBodyFrom(n *repo.Node) NodeBody {
	body := NodeBody{
		ID:            n.ID,
		Name:          n.Name,
		NodeType:      n.NodeType,
		IsFolder:      n.IsFolder(),
		ParentID:      n.ParentID,
		CreatedAt:     n.CreatedAt.UTC(),
		ModifiedAt:    n.ModifiedAt.UTC(),
		CreatedByUser: UserInfo{ID: n.CreatedBy, DisplayName: n.CreatedBy},
	}
	if n.Description != "" {
		body.Properties = map[string]string{PropDescription: n.Description}
	}
	return body
}
