package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/content-e2e/internal/api"
	"github.com/kuitang/content-e2e/internal/repo"
	"github.com/kuitang/content-e2e/internal/repoclient"
	"github.com/kuitang/content-e2e/tests/browser/fixture"
	"github.com/kuitang/content-e2e/tests/e2e/testutil"
)

func skipInShortMode(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping subprocess e2e test in short mode")
	}
}

// newPerson creates a person through the admin client and returns a client
// authenticated as them.
func newPerson(t *testing.T, srv *testutil.ServerFixture) *repoclient.Client {
	t.Helper()
	id := "user-" + fixture.Random()
	_, err := srv.AdminClient().People.CreateUser(context.Background(), repoclient.NewUser{ID: id})
	require.NoError(t, err)
	return repoclient.New(srv.BaseURL, id, id)
}

// =============================================================================
// Property: the REST API applies the folder name rules exactly
// =============================================================================

func TestFolderNames_APIMatchesValidation(t *testing.T) {
	skipInShortMode(t)
	srv := testutil.GetServer(t)
	user := newPerson(t, srv)
	ctx := context.Background()
	var seq atomic.Int64

	rapid.Check(t, func(rt *rapid.T) {
		name := testutil.AnyFolderNameGenerator().Draw(rt, "name")
		parent := fmt.Sprintf("prop-%d", seq.Add(1))

		node, err := user.Nodes.CreateFolder(ctx, name, parent, "")
		if msg := repo.ValidateFolderName(name); msg != "" {
			var apiErr *repoclient.APIError
			if !assert.ErrorAs(rt, err, &apiErr) {
				rt.Fatalf("name %q should be rejected with %q", name, msg)
			}
			assert.Equal(rt, http.StatusBadRequest, apiErr.StatusCode)
			assert.Contains(rt, apiErr.BriefSummary, msg)
			return
		}

		require.NoError(rt, err, "name %q", name)
		assert.Equal(rt, repo.TrimFolderName(name), node.Name)

		_, err = user.Nodes.CreateFolder(ctx, strings.ToUpper(node.Name), parent, "")
		assert.True(rt, repoclient.IsStatus(err, http.StatusConflict), "case-changed duplicate of %q: %v", node.Name, err)
	})
}

// =============================================================================
// Site permissions through the API
// =============================================================================

func TestSites_ConsumerCannotCreateFolders(t *testing.T) {
	skipInShortMode(t)
	srv := testutil.GetServer(t)
	admin := srv.AdminClient()
	user := newPerson(t, srv)
	ctx := context.Background()

	siteID := "site-" + fixture.Random()
	_, err := admin.Sites.CreateSite(ctx, siteID, repoclient.VisibilityPrivate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = admin.Sites.DeleteSite(ctx, siteID) })

	folders, err := admin.Nodes.CreateFolders(ctx, []string{"shared"}, "Sites/"+siteID+"/documentLibrary")
	require.NoError(t, err)

	_, err = user.Sites.GetSite(ctx, siteID)
	assert.True(t, repoclient.IsStatus(err, http.StatusNotFound), "private site should be hidden: %v", err)

	me, err := user.People.Me(ctx)
	require.NoError(t, err)
	require.NoError(t, admin.Sites.AddSiteMember(ctx, siteID, me.ID, repoclient.RoleConsumer))

	site, err := user.Sites.GetSite(ctx, siteID)
	require.NoError(t, err)
	assert.Equal(t, repoclient.RoleConsumer, site.Role)

	// A consumer can read the folder but not create inside it.
	code, body := rawCreateFolder(t, srv.BaseURL, me.ID, folders[0].ID, "nope")
	assert.Equal(t, http.StatusForbidden, code, body)
}

func rawCreateFolder(t *testing.T, baseURL, personID, parentID, name string) (int, string) {
	t.Helper()
	payload, err := json.Marshal(api.NodeCreateBody{Name: name, NodeType: repo.TypeFolder})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, baseURL+api.BasePath+"/nodes/"+url.PathEscape(parentID)+"/children", bytes.NewReader(payload))
	require.NoError(t, err)
	req.SetBasicAuth(personID, personID)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.String()
}

// =============================================================================
// Web session flow over plain HTTP
// =============================================================================

func TestWeb_LoginThenCreateFolder(t *testing.T) {
	skipInShortMode(t)
	srv := testutil.GetServer(t)
	user := newPerson(t, srv)
	ctx := context.Background()
	client := testutil.NewHTTPClient()

	resp, err := client.PostForm(srv.BaseURL+"/login", url.Values{
		"username": {user.Username()},
		"password": {user.Username()},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	home, err := user.Nodes.GetNodeByPath(ctx, "")
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]string{
		"parentId":    home.ID,
		"name":        "  from-the-web  ",
		"description": "made **here**",
	})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.BaseURL+"/ui/folders", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	desc, err := user.Nodes.GetNodeDescription(ctx, "from-the-web", "")
	require.NoError(t, err)
	assert.Equal(t, "made **here**", desc)
}

// =============================================================================
// Logging: request ids reach the access log
// =============================================================================

func TestAccessLog_CarriesRequestID(t *testing.T) {
	skipInShortMode(t)
	srv := testutil.GetServer(t)

	requestID := "req-e2e-" + fixture.Random()
	req, err := http.NewRequest(http.MethodGet, srv.BaseURL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", requestID)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, requestID, resp.Header.Get("X-Request-Id"))

	_, err = srv.Logs.WaitForLine(2*time.Second, "http_access", requestID)
	assert.NoError(t, err)
}
