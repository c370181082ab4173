package repoclient

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/content-e2e/internal/auth"
	"github.com/kuitang/content-e2e/internal/obs"
	"github.com/kuitang/content-e2e/internal/ratelimit"
	"github.com/kuitang/content-e2e/internal/repo"
	"github.com/kuitang/content-e2e/internal/server"
	"github.com/kuitang/content-e2e/internal/testdb"
)

func newServer(t *testing.T) string {
	t.Helper()
	app, err := server.New(context.Background(), server.Options{
		DB:            testdb.New(t),
		Hasher:        auth.FakeInsecureHasher{},
		AdminID:       "admin",
		AdminPassword: "admin",
		RateLimit:     ratelimit.Config{RPS: 10000, Burst: 100000, CleanupInterval: time.Hour},
	})
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})
	return srv.URL
}

func TestCreateFolderScenarioFixtures(t *testing.T) {
	ctx := context.Background()
	base := newServer(t)
	admin := New(base, "admin", "admin")
	user := New(base, "user-1", "user-1")

	_, err := admin.People.CreateUser(ctx, NewUser{ID: "user-1"})
	require.NoError(t, err)
	site, err := admin.Sites.CreateSite(ctx, "site-private-1", VisibilityPrivate)
	require.NoError(t, err)
	assert.Equal(t, VisibilityPrivate, site.Visibility)
	_, err = admin.Nodes.CreateFolders(ctx, []string{"folder-1"}, "Sites/site-private-1/documentLibrary")
	require.NoError(t, err)
	require.NoError(t, admin.Sites.AddSiteMember(ctx, "site-private-1", "user-1", RoleConsumer))
	_, err = user.Nodes.CreateFolders(ctx, []string{"duplicate"}, "parent")
	require.NoError(t, err)

	_, err = user.Sites.GetSite(ctx, "site-private-1")
	require.NoError(t, err)

	_, err = user.Nodes.CreateFolder(ctx, "described", "parent", "description of my folder")
	require.NoError(t, err)
	desc, err := user.Nodes.GetNodeDescription(ctx, "described", "parent")
	require.NoError(t, err)
	assert.Equal(t, "description of my folder", desc)

	children, err := user.Nodes.Children(ctx, "parent")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	err = DeleteAll(ctx,
		func(ctx context.Context) error { return admin.Sites.DeleteSite(ctx, "site-private-1") },
		func(ctx context.Context) error { return user.Nodes.DeleteNodes(ctx, "parent") },
	)
	require.NoError(t, err)

	_, err = user.Nodes.GetNodeByPath(ctx, "parent")
	assert.True(t, IsStatus(err, http.StatusNotFound), "got %v", err)
	_, err = admin.Sites.GetSite(ctx, "site-private-1")
	assert.True(t, IsStatus(err, http.StatusNotFound), "got %v", err)
}

func TestAPIError_DecodesEnvelope(t *testing.T) {
	ctx := context.Background()
	base := newServer(t)
	admin := New(base, "admin", "admin")

	_, err := admin.People.CreateUser(ctx, NewUser{ID: "dup"})
	require.NoError(t, err)
	_, err = admin.People.CreateUser(ctx, NewUser{ID: "dup"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %T", err)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "POST", apiErr.Method)

	user := New(base, "dup", "dup")
	_, err = user.Nodes.CreateFolders(ctx, []string{"a", "A"}, "")
	require.Error(t, err)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, repo.MsgDuplicateFolder, apiErr.BriefSummary)

	bad := New(base, "dup", "wrong")
	_, err = bad.People.Me(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized), "got %v", err)
}

func TestDeleteAll_RunsEveryOperation(t *testing.T) {
	var ran atomic.Int32
	boom := errors.New("boom")
	err := DeleteAll(context.Background(),
		func(context.Context) error { ran.Add(1); return boom },
		func(context.Context) error { ran.Add(1); return nil },
		func(context.Context) error { ran.Add(1); return nil },
	)
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 3, ran.Load())
}

func TestDebugLogRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	restore := obs.SetOutputForTests(&buf)
	defer restore()

	ctx := context.Background()
	base := newServer(t)
	admin := New(base, "admin", "admin")
	_, err := admin.People.CreateUser(ctx, NewUser{ID: "secretive", Password: "hunter2-hunter2"})
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "repoclient_request")
	assert.False(t, strings.Contains(logs, "hunter2-hunter2"), "password leaked: %s", logs)
	assert.False(t, strings.Contains(logs, "YWRtaW46YWRtaW4="), "basic credentials leaked")
}
