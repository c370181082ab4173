package components

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Sidenav is the left navigation with the New button.
type Sidenav struct {
	Component
	page playwright.Page
}

// NewSidenav returns the page's sidenav.
func NewSidenav(page playwright.Page) *Sidenav {
	return &Sidenav{Component: NewComponent(PageScope(page), ".sidenav"), page: page}
}

// Link locates the navigation link labelled label.
func (s *Sidenav) Link(label string) playwright.Locator {
	return containingText(s.Locate(".sidenav-menu__item"), label).First()
}

// NavigateToLinkByLabel follows a navigation link and waits for the new page.
func (s *Sidenav) NavigateToLinkByLabel(label string) error {
	err := Navigate(s.page, func() error { return s.Link(label).Click() })
	if err != nil {
		return fmt.Errorf("navigate to %q: %w", label, err)
	}
	return nil
}

// OpenNewMenu clicks New and waits for its menu.
func (s *Sidenav) OpenNewMenu() (*Menu, error) {
	if err := s.Locate(".sidenav__new-button").Click(); err != nil {
		return nil, fmt.Errorf("click New: %w", err)
	}
	// The menu is mounted in the page overlay, outside the sidenav.
	menu := NewMenu(PageScope(s.page))
	if err := menu.Wait(); err != nil {
		return nil, err
	}
	return menu, nil
}
