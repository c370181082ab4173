package auth

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/content-e2e/internal/repoclient"
	"github.com/kuitang/content-e2e/tests/browser"
	"github.com/kuitang/content-e2e/tests/browser/fixture"
	"github.com/kuitang/content-e2e/tests/browser/pages"
)

func TestMain(m *testing.M) {
	code := m.Run()
	browser.CleanupEnv()
	os.Exit(code)
}

func newUserPage(t *testing.T) (playwright.Page, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	env := browser.SetupEnv(t)
	env.InitBrowser(t)

	username := "user-" + fixture.Random()
	_, err := env.AdminClient().People.CreateUser(context.Background(), repoclient.NewUser{ID: username})
	require.NoError(t, err)
	return env.NewPage(t), username
}

func TestLogin_WrongPasswordShowsError(t *testing.T) {
	page, username := newUserPage(t)
	login := pages.NewLoginPage(page)

	require.Error(t, login.LoginWith(username, "not-"+username))
	msg, err := login.ErrorMessage()
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(msg))
}

func TestLogin_LandsOnPersonalFiles(t *testing.T) {
	page, username := newUserPage(t)
	require.NoError(t, pages.NewLoginPage(page).LoginWith(username, ""))

	assert.True(t, strings.HasSuffix(page.URL(), "/personal-files"), page.URL())
	require.NoError(t, pages.NewBrowsingPage(page).DataTable().WaitForHeader())
	footer, err := page.Locator(".sidenav__footer").InnerText()
	require.NoError(t, err)
	assert.Contains(t, footer, username)
}

func TestLogout_EndsSession(t *testing.T) {
	page, username := newUserPage(t)
	require.NoError(t, pages.NewLoginPage(page).LoginWith(username, ""))
	require.NoError(t, pages.NewLogoutPage(page).Load())

	_, err := page.Goto("/personal-files")
	require.NoError(t, err)
	require.NoError(t, page.Locator("#login-button").WaitFor())
	assert.Contains(t, page.URL(), "/login")
}
