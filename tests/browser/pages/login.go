// Package pages holds page objects for the content application.
package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/content-e2e/tests/browser/components"
)

// LoginPage is /login.
type LoginPage struct {
	page playwright.Page
}

func NewLoginPage(page playwright.Page) *LoginPage {
	return &LoginPage{page: page}
}

// Load opens the login form.
func (p *LoginPage) Load() error {
	if _, err := p.page.Goto("/login"); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}
	return nil
}

// LoginWith signs in and waits for the application shell. An empty password
// means the password equals the username.
func (p *LoginPage) LoginWith(username, password string) error {
	if password == "" {
		password = username
	}
	if err := p.Load(); err != nil {
		return err
	}
	if err := p.page.Locator("#username").Fill(username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	if err := p.page.Locator("#password").Fill(password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	err := components.Navigate(p.page, func() error {
		return p.page.Locator("#login-button").Click()
	})
	if err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if err := p.page.Locator(".sidenav").WaitFor(); err != nil {
		return fmt.Errorf("login as %s: %w", username, err)
	}
	return nil
}

// ErrorMessage returns the login error shown after a failed attempt.
func (p *LoginPage) ErrorMessage() (string, error) {
	return p.page.Locator(".login-error").InnerText()
}
