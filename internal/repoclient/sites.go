package repoclient

import (
	"context"
	"net/http"

	"github.com/kuitang/content-e2e/internal/api"
	"github.com/kuitang/content-e2e/internal/urlutil"
)

// Site visibilities and roles, as the server spells them.
const (
	VisibilityPublic    = "PUBLIC"
	VisibilityModerated = "MODERATED"
	VisibilityPrivate   = "PRIVATE"

	RoleConsumer     = "SiteConsumer"
	RoleContributor  = "SiteContributor"
	RoleCollaborator = "SiteCollaborator"
	RoleManager      = "SiteManager"
)

// SitesAPI manages sites and their members.
type SitesAPI struct {
	c *Client
}

// CreateSite creates a site titled after its id.
func (s *SitesAPI) CreateSite(ctx context.Context, id, visibility string) (*api.SiteBody, error) {
	var out api.Entry[api.SiteBody]
	err := s.c.do(ctx, http.MethodPost, "/sites", nil, api.SiteBody{ID: id, Title: id, Visibility: visibility}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// GetSite returns a site visible to the client.
func (s *SitesAPI) GetSite(ctx context.Context, id string) (*api.SiteBody, error) {
	var out api.Entry[api.SiteBody]
	if err := s.c.do(ctx, http.MethodGet, "/sites/"+urlutil.EscapeSegment(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// AddSiteMember adds personID to the site with role.
func (s *SitesAPI) AddSiteMember(ctx context.Context, siteID, personID, role string) error {
	return s.c.do(ctx, http.MethodPost, "/sites/"+urlutil.EscapeSegment(siteID)+"/members", nil,
		api.MemberBody{ID: personID, Role: role}, nil)
}

// DeleteSite deletes the site with its content and memberships.
func (s *SitesAPI) DeleteSite(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, "/sites/"+urlutil.EscapeSegment(id), nil, nil, nil)
}
