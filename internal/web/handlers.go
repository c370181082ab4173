package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/kuitang/content-e2e/internal/api"
	"github.com/kuitang/content-e2e/internal/auth"
	"github.com/kuitang/content-e2e/internal/errs"
	"github.com/kuitang/content-e2e/internal/obs"
	"github.com/kuitang/content-e2e/internal/repo"
)

const (
	sectionPersonal  = "personal-files"
	sectionLibraries = "libraries"

	labelPersonalFiles = "Personal Files"
	labelLibraries     = "File Libraries"

	defaultLanding = "/personal-files"
	maxFormBytes   = 1 << 20
)

// PageData contains data common to all pages.
type PageData struct {
	Title    string
	Section  string
	PersonID string
	NodeID   string

	// CanCreate enables "Create folder" in the New menu.
	CanCreate bool
}

// Crumb is one breadcrumb link.
type Crumb struct {
	Name string
	Href string
}

// Row is one data table row: a folder, or a site on the libraries page.
type Row struct {
	ID       string
	Name     string
	Href     string
	Detail   string
	Modified time.Time
	By       string
}

// BrowseData is the data for pages/browse.html.
type BrowseData struct {
	PageData
	Breadcrumb []Crumb
	Rows       []Row
	SiteList   bool
}

// LoginPageData is the data for pages/login.html.
type LoginPageData struct {
	Title    string
	Error    string
	Next     string
	Username string
}

// CreateFolderRequest is the body of POST /ui/folders.
type CreateFolderRequest struct {
	ParentID    string `json:"parentId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// WebHandler provides HTTP handlers for web UI pages.
type WebHandler struct {
	renderer *Renderer
	repo     *repo.Repository
	sessions *auth.SessionService
}

// NewWebHandler creates a new web handler.
func NewWebHandler(renderer *Renderer, r *repo.Repository, sessions *auth.SessionService) *WebHandler {
	return &WebHandler{renderer: renderer, repo: r, sessions: sessions}
}

// RegisterRoutes registers all web UI routes on the given mux.
func (h *WebHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.Handle("GET /static/", StaticFiles())

	mux.HandleFunc("GET /{$}", h.HandleLanding)
	mux.HandleFunc("GET /login", h.HandleLoginPage)
	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("GET /logout", h.HandleLogout)

	mux.Handle("GET /personal-files", authMiddleware.RequireSession(http.HandlerFunc(h.HandlePersonalFiles)))
	mux.Handle("GET /personal-files/{nodeId}", authMiddleware.RequireSession(http.HandlerFunc(h.HandlePersonalFiles)))
	mux.Handle("GET /libraries", authMiddleware.RequireSession(http.HandlerFunc(h.HandleLibraries)))
	mux.Handle("GET /libraries/{siteId}", authMiddleware.RequireSession(http.HandlerFunc(h.HandleLibrary)))
	mux.Handle("GET /libraries/{siteId}/{nodeId}", authMiddleware.RequireSession(http.HandlerFunc(h.HandleLibrary)))

	mux.Handle("POST /ui/folders", authMiddleware.RequireSession(http.HandlerFunc(h.HandleCreateFolder)))
}

// StaticFiles serves the embedded stylesheet and script under /static/.
func StaticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// HandleLanding handles GET / by sending the browser to Personal Files.
func (h *WebHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, defaultLanding, http.StatusFound)
}

// HandleLoginPage handles GET /login.
func (h *WebHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := LoginPageData{
		Title: "Sign In",
		Next:  safeNext(r.URL.Query().Get("next")),
	}
	if err := h.renderer.RenderPublic(w, http.StatusOK, "login.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleLogin handles POST /login: checks the credentials, starts a session
// and redirects to next.
func (h *WebHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	next := safeNext(r.PostFormValue("next"))

	person, err := h.repo.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		obs.From(r.Context()).Info("login_failed", "person_id", username, "error", err)
		data := LoginPageData{
			Title:    "Sign In",
			Error:    errs.MessageOf(err),
			Next:     next,
			Username: username,
		}
		if err := h.renderer.RenderPublic(w, errs.HTTPStatus(errs.CodeOf(err)), "login.html", data); err != nil {
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), person.ID)
	if err != nil {
		obs.From(r.Context()).Error("session_create_failed", "person_id", person.ID, "error", err)
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	h.sessions.SetCookie(w, sessionID)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// HandleLogout handles GET /logout.
func (h *WebHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := auth.GetFromRequest(r); err == nil {
		_ = h.sessions.Delete(r.Context(), sessionID)
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}

// HandlePersonalFiles handles GET /personal-files[/{nodeId}]. Without a node
// id it lists the person's home folder.
func (h *WebHandler) HandlePersonalFiles(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	home, err := h.repo.GetNode(r.Context(), actor, repo.AliasMy)
	if err != nil {
		h.renderRepoError(w, r, err)
		return
	}
	node := home
	if id := r.PathValue("nodeId"); id != "" && id != home.ID {
		if node, err = h.repo.GetNode(r.Context(), actor, id); err != nil {
			h.renderRepoError(w, r, err)
			return
		}
	}

	root := Crumb{Name: labelPersonalFiles, Href: defaultLanding}
	h.renderFolder(w, r, actor, sectionPersonal, node, home.ID, []Crumb{root}, func(id string) string {
		if id == home.ID {
			return defaultLanding
		}
		return defaultLanding + "/" + id
	})
}

// HandleLibraries handles GET /libraries: the sites the person belongs to.
func (h *WebHandler) HandleLibraries(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	sites, err := h.repo.ListSitesFor(r.Context(), actor)
	if err != nil {
		h.renderRepoError(w, r, err)
		return
	}
	rows := make([]Row, 0, len(sites))
	for _, s := range sites {
		rows = append(rows, Row{
			ID:       s.DocumentLibraryID,
			Name:     s.Title,
			Href:     "/libraries/" + s.ID,
			Detail:   s.Visibility,
			Modified: s.CreatedAt,
			By:       s.Role,
		})
	}
	data := BrowseData{
		PageData: PageData{Title: labelLibraries, Section: sectionLibraries, PersonID: actor.PersonID},
		Rows:     rows,
		SiteList: true,
	}
	if err := h.renderer.Render(w, http.StatusOK, "browse.html", data); err != nil {
		obs.From(r.Context()).Error("render_failed", "page", "libraries", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleLibrary handles GET /libraries/{siteId}[/{nodeId}]. The site root
// is its document library.
func (h *WebHandler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	site, err := h.repo.GetSite(r.Context(), actor, r.PathValue("siteId"))
	if err != nil {
		h.renderRepoError(w, r, err)
		return
	}
	nodeID := r.PathValue("nodeId")
	if nodeID == "" {
		nodeID = site.DocumentLibraryID
	}
	node, err := h.repo.GetNode(r.Context(), actor, nodeID)
	if err != nil {
		h.renderRepoError(w, r, err)
		return
	}
	if node.SiteID != site.ID {
		h.renderer.RenderError(w, http.StatusNotFound, "The entity with id: "+nodeID+" was not found")
		return
	}

	base := "/libraries/" + site.ID
	crumbs := []Crumb{{Name: labelLibraries, Href: "/libraries"}, {Name: site.Title, Href: base}}
	h.renderFolder(w, r, actor, sectionLibraries, node, site.DocumentLibraryID, crumbs, func(id string) string {
		if id == site.DocumentLibraryID {
			return base
		}
		return base + "/" + id
	})
}

// renderFolder lists node's children. rootID is the folder the section
// starts at; crumbs link to it and everything between it and node.
func (h *WebHandler) renderFolder(w http.ResponseWriter, r *http.Request, actor repo.Actor, section string,
	node *repo.Node, rootID string, crumbs []Crumb, href func(id string) string) {
	ctx := r.Context()
	children, err := h.repo.Children(ctx, actor, node.ID)
	if err != nil {
		h.renderRepoError(w, r, err)
		return
	}
	canCreate, err := h.repo.CanCreateChildren(ctx, actor, node.ID)
	if err != nil {
		h.renderRepoError(w, r, err)
		return
	}

	title := node.Name
	if node.ID == rootID {
		title = crumbs[len(crumbs)-1].Name
		crumbs = crumbs[:len(crumbs)-1]
	} else {
		ancestors, err := h.repo.Ancestors(ctx, actor, node.ID)
		if err != nil {
			h.renderRepoError(w, r, err)
			return
		}
		below := false
		for _, a := range ancestors {
			if below {
				crumbs = append(crumbs, Crumb{Name: a.Name, Href: href(a.ID)})
			}
			below = below || a.ID == rootID
		}
	}

	rows := make([]Row, 0, len(children))
	for _, c := range children {
		rows = append(rows, Row{
			ID:       c.ID,
			Name:     c.Name,
			Href:     href(c.ID),
			Detail:   c.Description,
			Modified: c.ModifiedAt,
			By:       c.CreatedBy,
		})
	}

	data := BrowseData{
		PageData: PageData{
			Title:     title,
			Section:   section,
			PersonID:  actor.PersonID,
			NodeID:    node.ID,
			CanCreate: canCreate,
		},
		Breadcrumb: crumbs,
		Rows:       rows,
	}
	if err := h.renderer.Render(w, http.StatusOK, "browse.html", data); err != nil {
		obs.From(ctx).Error("render_failed", "page", section, "node_id", node.ID, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateFolder handles POST /ui/folders, the JSON call behind the
// create folder dialog. Errors use the REST error envelope so the dialog
// can show briefSummary in the snack bar.
func (h *WebHandler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeJSONError(w, r, errs.New(errs.InvalidArgument, "Content-Type must be application/json"))
		return
	}
	actor, ok := h.actorJSON(w, r)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
		writeJSONError(w, r, errs.Wrap(errs.InvalidArgument, "Invalid JSON: "+err.Error(), err))
		return
	}
	n, err := h.repo.CreateFolder(r.Context(), actor, repo.NewFolder{
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	obs.From(r.Context()).Info("folder_created", "node_id", n.ID, "parent_id", n.ParentID)
	writeJSON(w, http.StatusCreated, api.Entry[api.NodeBody]{Entry: api.NodeBodyFrom(n)})
}

func (h *WebHandler) actor(w http.ResponseWriter, r *http.Request) (repo.Actor, bool) {
	actor, err := h.repo.ActorFor(r.Context(), auth.PersonID(r.Context()))
	if err != nil {
		// The person behind the session is gone.
		h.sessions.ClearCookie(w)
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return repo.Actor{}, false
	}
	return actor, true
}

func (h *WebHandler) actorJSON(w http.ResponseWriter, r *http.Request) (repo.Actor, bool) {
	actor, err := h.repo.ActorFor(r.Context(), auth.PersonID(r.Context()))
	if err != nil {
		writeJSONError(w, r, errs.New(errs.Unauthenticated, "Authentication required"))
		return repo.Actor{}, false
	}
	return actor, true
}

func (h *WebHandler) renderRepoError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(errs.CodeOf(err))
	if status >= http.StatusInternalServerError {
		obs.From(r.Context()).Error("web_error", "path", r.URL.Path, "error", err)
	}
	h.renderer.RenderError(w, status, errs.MessageOf(err))
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLanding
	}
	return next
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(errs.CodeOf(err))
	if status >= http.StatusInternalServerError {
		obs.From(r.Context()).Error("ui_error", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, api.ErrorBody{Error: api.ErrorDetail{StatusCode: status, BriefSummary: errs.MessageOf(err)}})
}
