package repo

import "strings"

// Folder name validation messages, shown verbatim by the create-folder dialog.
const (
	MsgNameRequired     = "Folder name is required"
	MsgNameOnlySpaces   = "Folder name can't contain only spaces"
	MsgNameForbidden    = "Folder name can't contain these characters"
	MsgNameEndsInPeriod = "Folder name can't end with a period ."

	// MsgDuplicateFolder is returned when a sibling already has the name.
	MsgDuplicateFolder = "There's already a folder with this name. Try a different name."
)

// ForbiddenNameChars are the characters a node name may not contain.
const ForbiddenNameChars = `*"<>\/?:|`

// ValidateFolderName returns the message of the first rule name breaks, or "".
// Rules run in order: required, only spaces, forbidden characters, trailing period.
// The trailing-period rule looks at the trimmed name, since that is what gets stored.
func ValidateFolderName(name string) string {
	if name == "" {
		return MsgNameRequired
	}
	trimmed := TrimFolderName(name)
	if trimmed == "" {
		return MsgNameOnlySpaces
	}
	if strings.ContainsAny(name, ForbiddenNameChars) {
		return MsgNameForbidden + ` * " < > \ / ? : |`
	}
	if strings.HasSuffix(trimmed, ".") {
		return MsgNameEndsInPeriod
	}
	return ""
}

// TrimFolderName removes leading and trailing spaces.
func TrimFolderName(name string) string {
	return strings.Trim(name, " ")
}
