package components

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// DataTable is the folder listing.
type DataTable struct {
	Component
	page playwright.Page
}

// NewDataTable returns the page's listing.
func NewDataTable(page playwright.Page) *DataTable {
	return &DataTable{Component: NewComponent(PageScope(page), ".adf-datatable"), page: page}
}

// WaitForHeader blocks until the column header is visible.
func (d *DataTable) WaitForHeader() error {
	if err := waitVisible(d.Locate(".adf-datatable-header")); err != nil {
		return fmt.Errorf("wait for table header: %w", err)
	}
	return nil
}

// rowsByName matches rows on the name cell only, never the description.
func (d *DataTable) rowsByName(text string) playwright.Locator {
	return d.Locate(".adf-datatable-row").Filter(playwright.LocatorFilterOptions{
		Has: containingText(d.page.Locator(".adf-datatable-cell--name"), text),
	})
}

// RowByContainingText locates the first row whose name contains text.
func (d *DataTable) RowByContainingText(text string) playwright.Locator {
	return d.rowsByName(text).First()
}

// WaitForRowByContainingText blocks until a row containing text is rendered.
func (d *DataTable) WaitForRowByContainingText(text string) error {
	err := d.RowByContainingText(text).WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateAttached,
	})
	if err != nil {
		return fmt.Errorf("wait for row %q: %w", text, err)
	}
	return nil
}

// IsRowPresent reports whether a row whose name contains text is rendered now.
func (d *DataTable) IsRowPresent(text string) (bool, error) {
	n, err := d.rowsByName(text).Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DoubleClickOnRowByContainingText opens the row and waits for the new listing.
func (d *DataTable) DoubleClickOnRowByContainingText(text string) error {
	err := Navigate(d.page, func() error { return d.RowByContainingText(text).Dblclick() })
	if err != nil {
		return fmt.Errorf("open row %q: %w", text, err)
	}
	return d.WaitForHeader()
}
