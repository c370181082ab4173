package components

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const (
	menuRoot = ".mat-menu-panel"
	menuItem = ".mat-menu-item"

	// noMenuItem never matches; it stands in for out-of-range positions.
	noMenuItem = menuItem + ":nth-child(0)"
)

// Menu is a popup menu of buttons.
type Menu struct {
	Component
}

// NewMenu returns the menu inside scope. Use PageScope for an unscoped menu.
func NewMenu(scope Scope) *Menu {
	return &Menu{Component: NewComponent(scope, menuRoot)}
}

// Wait blocks until the first button of the menu is visible.
func (m *Menu) Wait() error {
	if err := waitVisible(m.Locate("button:nth-child(1)").First()); err != nil {
		return fmt.Errorf("wait for menu: %w", err)
	}
	return nil
}

// NthItem locates the n-th item, counting from 1.
func (m *Menu) NthItem(n int) playwright.Locator {
	if n < 1 {
		return m.Locate(noMenuItem)
	}
	return m.Locate(menuItem).Nth(n - 1)
}

// ItemByLabel locates the first item whose text contains label.
func (m *Menu) ItemByLabel(label string) playwright.Locator {
	return containingText(m.Locate(menuItem), label).First()
}

// ItemTooltip returns the title attribute of the item labelled label.
func (m *Menu) ItemTooltip(label string) (string, error) {
	title, err := m.ItemByLabel(label).GetAttribute("title")
	if err != nil {
		return "", fmt.Errorf("tooltip of %q: %w", label, err)
	}
	return title, nil
}

// ItemsCount counts the items currently rendered.
func (m *Menu) ItemsCount() (int, error) {
	return m.Locate(menuItem).Count()
}

// ClickNthItem clicks the n-th item, counting from 1.
func (m *Menu) ClickNthItem(n int) error {
	if err := m.NthItem(n).Click(); err != nil {
		return fmt.Errorf("click menu item %d: %w", n, err)
	}
	return nil
}

// ClickMenuItem clicks the item labelled label.
func (m *Menu) ClickMenuItem(label string) error {
	if err := m.ItemByLabel(label).Click(); err != nil {
		return fmt.Errorf("click menu item %q: %w", label, err)
	}
	return nil
}

// IsMenuItemPresent reports whether an item containing title is rendered.
func (m *Menu) IsMenuItemPresent(title string) (bool, error) {
	n, err := containingText(m.Locate(menuItem), title).Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
