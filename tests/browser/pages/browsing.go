package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/content-e2e/tests/browser/components"
)

// BrowsingPage is any folder listing: Personal Files, File Libraries or a site.
type BrowsingPage struct {
	page playwright.Page
}

func NewBrowsingPage(page playwright.Page) *BrowsingPage {
	return &BrowsingPage{page: page}
}

func (p *BrowsingPage) Sidenav() *components.Sidenav {
	return components.NewSidenav(p.page)
}

func (p *BrowsingPage) DataTable() *components.DataTable {
	return components.NewDataTable(p.page)
}

// SnackBarMessage waits for the snack bar and returns its text.
func (p *BrowsingPage) SnackBarMessage() (string, error) {
	bar := p.page.Locator(".mat-snack-bar-container").First()
	if err := bar.WaitFor(); err != nil {
		return "", fmt.Errorf("wait for snack bar: %w", err)
	}
	return bar.InnerText()
}
