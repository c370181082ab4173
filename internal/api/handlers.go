// Package api serves the public REST API of the content repository.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kuitang/content-e2e/internal/auth"
	"github.com/kuitang/content-e2e/internal/errs"
	"github.com/kuitang/content-e2e/internal/obs"
	"github.com/kuitang/content-e2e/internal/repo"
)

const (
	defaultMaxItems = 100
	maxBodyBytes    = 1 << 20
)

// Handler wraps the repository and provides HTTP handlers.
type Handler struct {
	repo *repo.Repository
}

// NewHandler creates a new API handler.
func NewHandler(r *repo.Repository) *Handler {
	return &Handler{repo: r}
}

// RegisterRoutes registers all API routes on the given mux. Routes expect
// an authenticated person in the request context.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST "+BasePath+"/people", h.CreatePerson)
	mux.HandleFunc("GET "+BasePath+"/people/{personId}", h.GetPerson)

	mux.HandleFunc("GET "+BasePath+"/sites", h.ListSites)
	mux.HandleFunc("POST "+BasePath+"/sites", h.CreateSite)
	mux.HandleFunc("GET "+BasePath+"/sites/{siteId}", h.GetSite)
	mux.HandleFunc("DELETE "+BasePath+"/sites/{siteId}", h.DeleteSite)
	mux.HandleFunc("POST "+BasePath+"/sites/{siteId}/members", h.AddSiteMember)

	mux.HandleFunc("GET "+BasePath+"/nodes/{nodeId}", h.GetNode)
	mux.HandleFunc("GET "+BasePath+"/nodes/{nodeId}/children", h.ListChildren)
	mux.HandleFunc("POST "+BasePath+"/nodes/{nodeId}/children", h.CreateChild)
	mux.HandleFunc("DELETE "+BasePath+"/nodes/{nodeId}", h.DeleteNode)
}

// CreatePerson handles POST /people.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body PersonBody
	if !decode(w, r, &body) {
		return
	}
	p, err := h.repo.CreatePerson(r.Context(), actor, repo.NewPerson{
		ID:        body.ID,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Entry[PersonBody]{Entry: personBody(p)})
}

// GetPerson handles GET /people/{personId}; "-me-" is the caller.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id := r.PathValue("personId")
	if id == "-me-" {
		id = actor.PersonID
	}
	if id != actor.PersonID && !actor.Admin {
		writeError(w, r, errs.New(errs.PermissionDenied, repo.MsgPermissionDenied))
		return
	}
	p, err := h.repo.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Entry[PersonBody]{Entry: personBody(p)})
}

// ListSites handles GET /sites: the caller's sites.
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	sites, err := h.repo.ListSitesFor(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bodies := make([]SiteBody, len(sites))
	for i := range sites {
		bodies[i] = siteBody(&sites[i])
	}
	writeJSON(w, http.StatusOK, page(r, bodies))
}

// CreateSite handles POST /sites.
func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body SiteBody
	if !decode(w, r, &body) {
		return
	}
	s, err := h.repo.CreateSite(r.Context(), actor, repo.NewSite{
		ID:          body.ID,
		Title:       body.Title,
		Description: body.Description,
		Visibility:  body.Visibility,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Entry[SiteBody]{Entry: siteBody(s)})
}

// GetSite handles GET /sites/{siteId}.
func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	s, err := h.repo.GetSite(r.Context(), actor, r.PathValue("siteId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Entry[SiteBody]{Entry: siteBody(s)})
}

// DeleteSite handles DELETE /sites/{siteId}.
func (h *Handler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.repo.DeleteSite(r.Context(), actor, r.PathValue("siteId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSiteMember handles POST /sites/{siteId}/members.
func (h *Handler) AddSiteMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body MemberBody
	if !decode(w, r, &body) {
		return
	}
	m, err := h.repo.AddMember(r.Context(), actor, r.PathValue("siteId"), body.ID, body.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Entry[MemberBody]{Entry: MemberBody{ID: m.PersonID, Role: m.Role}})
}

// GetNode handles GET /nodes/{nodeId}?relativePath=.
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	n, err := h.repo.ResolvePath(r.Context(), actor, r.PathValue("nodeId"), r.URL.Query().Get("relativePath"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Entry[NodeBody]{Entry: NodeBodyFrom(n)})
}

// ListChildren handles GET /nodes/{nodeId}/children.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	parent, err := h.repo.ResolvePath(r.Context(), actor, r.PathValue("nodeId"), r.URL.Query().Get("relativePath"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	children, err := h.repo.Children(r.Context(), actor, parent.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bodies := make([]NodeBody, len(children))
	for i := range children {
		bodies[i] = NodeBodyFrom(&children[i])
	}
	writeJSON(w, http.StatusOK, page(r, bodies))
}

// CreateChild handles POST /nodes/{nodeId}/children. Only folders can be created.
func (h *Handler) CreateChild(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body NodeCreateBody
	if !decode(w, r, &body) {
		return
	}
	if body.NodeType != "" && body.NodeType != repo.TypeFolder {
		writeError(w, r, errs.New(errs.InvalidArgument, "Unsupported nodeType: "+body.NodeType))
		return
	}
	n, err := h.repo.CreateFolder(r.Context(), actor, repo.NewFolder{
		ParentID:     r.PathValue("nodeId"),
		Name:         body.Name,
		Description:  body.Properties[PropDescription],
		RelativePath: body.RelativePath,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Entry[NodeBody]{Entry: NodeBodyFrom(n)})
}

// DeleteNode handles DELETE /nodes/{nodeId}.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.repo.DeleteNode(r.Context(), actor, r.PathValue("nodeId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (repo.Actor, bool) {
	personID := auth.PersonID(r.Context())
	if personID == "" {
		writeError(w, r, errs.New(errs.Unauthenticated, "Authentication required"))
		return repo.Actor{}, false
	}
	actor, err := h.repo.ActorFor(r.Context(), personID)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			err = errs.New(errs.Unauthenticated, "Authentication required")
		}
		writeError(w, r, err)
		return repo.Actor{}, false
	}
	return actor, true
}

func page[T any](r *http.Request, items []T) List[T] {
	skip := queryInt(r, "skipCount", 0)
	maxItems := queryInt(r, "maxItems", defaultMaxItems)
	total := len(items)
	if skip > total {
		skip = total
	}
	// Clamped before adding so a huge maxItems cannot overflow.
	end := total
	if maxItems < total-skip {
		end = skip + maxItems
	}

	entries := make([]Entry[T], 0, end-skip)
	for _, item := range items[skip:end] {
		entries = append(entries, Entry[T]{Entry: item})
	}
	return List[T]{List: ListBody[T]{
		Pagination: Pagination{
			Count:        len(entries),
			HasMoreItems: end < total,
			TotalItems:   total,
			SkipCount:    skip,
			MaxItems:     maxItems,
		},
		Entries: entries,
	}}
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return def
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, r, errs.Wrap(errs.InvalidArgument, "Invalid JSON: "+err.Error(), err))
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes the error envelope for err.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(errs.CodeOf(err))
	if status >= http.StatusInternalServerError {
		obs.From(r.Context()).Error("api_error", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{StatusCode: status, BriefSummary: errs.MessageOf(err)}})
}
