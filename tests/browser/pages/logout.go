package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// LogoutPage ends the session and lands on the login form.
type LogoutPage struct {
	page playwright.Page
}

func NewLogoutPage(page playwright.Page) *LogoutPage {
	return &LogoutPage{page: page}
}

func (p *LogoutPage) Load() error {
	if _, err := p.page.Goto("/logout"); err != nil {
		return fmt.Errorf("load logout page: %w", err)
	}
	if err := p.page.Locator("#login-button").WaitFor(); err != nil {
		return fmt.Errorf("wait for login form: %w", err)
	}
	return nil
}
