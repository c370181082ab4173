package repoclient

import (
	"context"
	"net/http"

	"github.com/kuitang/content-e2e/internal/api"
)

// PeopleAPI manages people. Creating people requires an administrator client.
type PeopleAPI struct {
	c *Client
}

// NewUser describes a person to create. Empty fields get defaults derived from ID.
type NewUser struct {
	ID        string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// CreateUser creates a person whose password defaults to the id.
func (p *PeopleAPI) CreateUser(ctx context.Context, u NewUser) (*api.PersonBody, error) {
	if u.Password == "" {
		u.Password = u.ID
	}
	if u.FirstName == "" {
		u.FirstName = u.ID
	}
	if u.LastName == "" {
		u.LastName = "lastName"
	}
	if u.Email == "" {
		u.Email = u.ID + "@example.com"
	}
	var out api.Entry[api.PersonBody]
	err := p.c.do(ctx, http.MethodPost, "/people", nil, api.PersonBody{
		ID:        u.ID,
		Password:  u.Password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// Me returns the authenticated person.
func (p *PeopleAPI) Me(ctx context.Context) (*api.PersonBody, error) {
	var out api.Entry[api.PersonBody]
	if err := p.c.do(ctx, http.MethodGet, "/people/-me-", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}
