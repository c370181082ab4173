package components

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// CreateOrEditFolderDialog is the modal folder form.
type CreateOrEditFolderDialog struct {
	Component
}

// NewCreateOrEditFolderDialog returns the page's folder dialog.
func NewCreateOrEditFolderDialog(page playwright.Page) *CreateOrEditFolderDialog {
	return &CreateOrEditFolderDialog{Component: NewComponent(PageScope(page), ".mat-dialog-container")}
}

func (d *CreateOrEditFolderDialog) NameInput() playwright.Locator {
	return d.Locate(`input[placeholder="Name"]`)
}

func (d *CreateOrEditFolderDialog) DescriptionTextArea() playwright.Locator {
	return d.Locate(`textarea[placeholder="Description"]`)
}

func (d *CreateOrEditFolderDialog) CreateButton() playwright.Locator {
	return containingText(d.Locate(".mat-dialog-actions button"), "Create").First()
}

func (d *CreateOrEditFolderDialog) CancelButton() playwright.Locator {
	return containingText(d.Locate(".mat-dialog-actions button"), "Cancel").First()
}

// WaitForDialogToOpen blocks until the dialog is visible.
func (d *CreateOrEditFolderDialog) WaitForDialogToOpen() error {
	if err := waitVisible(d.Root()); err != nil {
		return fmt.Errorf("wait for dialog to open: %w", err)
	}
	return nil
}

// WaitForDialogToClose blocks until the dialog is gone from the DOM.
func (d *CreateOrEditFolderDialog) WaitForDialogToClose() error {
	err := d.Root().WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateDetached,
	})
	if err != nil {
		return fmt.Errorf("wait for dialog to close: %w", err)
	}
	return nil
}

// IsPresent reports whether the dialog is in the DOM.
func (d *CreateOrEditFolderDialog) IsPresent() (bool, error) {
	n, err := d.Root().Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *CreateOrEditFolderDialog) Title() (string, error) {
	return d.Locate(".mat-dialog-title").InnerText()
}

// ValidationMessage returns the name field's error text, "" when valid.
func (d *CreateOrEditFolderDialog) ValidationMessage() (string, error) {
	return d.Locate(".mat-error").TextContent()
}

// EnterName replaces the name field's content.
func (d *CreateOrEditFolderDialog) EnterName(name string) error {
	if err := d.NameInput().Fill(name); err != nil {
		return fmt.Errorf("enter name: %w", err)
	}
	return nil
}

// EnterDescription replaces the description field's content.
func (d *CreateOrEditFolderDialog) EnterDescription(description string) error {
	if err := d.DescriptionTextArea().Fill(description); err != nil {
		return fmt.Errorf("enter description: %w", err)
	}
	return nil
}

// DeleteNameWithBackspace types into the name field, selects everything and
// erases it with Backspace, the way a user would.
func (d *CreateOrEditFolderDialog) DeleteNameWithBackspace() error {
	input := d.NameInput()
	if err := input.PressSequentially(" "); err != nil {
		return fmt.Errorf("type into name: %w", err)
	}
	for _, key := range []string{"ControlOrMeta+a", "Backspace"} {
		if err := input.Press(key); err != nil {
			return fmt.Errorf("press %s: %w", key, err)
		}
	}
	return nil
}

func (d *CreateOrEditFolderDialog) ClickCreate() error {
	return d.CreateButton().Click()
}

func (d *CreateOrEditFolderDialog) ClickCancel() error {
	return d.CancelButton().Click()
}
