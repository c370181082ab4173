// Package components wraps application widgets for browser tests. Nothing
// here holds element handles: every call re-queries the live DOM.
package components

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

// Scope resolves selectors to locators. A page and every Component are scopes.
type Scope interface {
	Locate(selector string) playwright.Locator
}

type pageScope struct {
	page playwright.Page
}

// PageScope makes a whole page the scope.
func PageScope(page playwright.Page) Scope {
	return pageScope{page: page}
}

func (s pageScope) Locate(selector string) playwright.Locator {
	return s.page.Locator(selector)
}

// Component is a widget found by a root selector inside a scope.
type Component struct {
	scope Scope
	root  string
}

// NewComponent returns the component rooted at root inside scope.
func NewComponent(scope Scope, root string) Component {
	return Component{scope: scope, root: root}
}

// Root locates the component's root element.
func (c Component) Root() playwright.Locator {
	return c.scope.Locate(c.root)
}

// Locate resolves selector inside the component's root.
func (c Component) Locate(selector string) playwright.Locator {
	return c.Root().Locator(selector)
}

// containingText narrows l to elements whose text contains text. Matching is
// case-sensitive.
func containingText(l playwright.Locator, text string) playwright.Locator {
	return l.Filter(playwright.LocatorFilterOptions{
		HasText: regexp.MustCompile(regexp.QuoteMeta(text)),
	})
}

func waitVisible(l playwright.Locator) error {
	return l.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	})
}

// Navigate runs action and waits until the page has been replaced by a new
// document. The old document is tagged first so a lingering copy of it can
// never satisfy the wait.
func Navigate(page playwright.Page, action func() error) error {
	if _, err := page.Evaluate(`() => { document.documentElement.dataset.leaving = "1" }`); err != nil {
		return fmt.Errorf("tag current document: %w", err)
	}
	if err := action(); err != nil {
		return err
	}
	err := page.Locator("html:not([data-leaving])").WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateAttached,
	})
	if err != nil {
		return fmt.Errorf("wait for navigation from %s: %w", page.URL(), err)
	}
	return nil
}
