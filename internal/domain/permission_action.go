package domain

import "fmt"

// PermissionAction is the operation taxonomy a permission grants. Dangerous
// actions (manage, delete, reject) are advisory metadata: the aggregate only
// reports the classification, it is the caller layer that must ask for
// confirmation before executing one.
type PermissionAction string

const (
	ActionCreate    PermissionAction = "create"
	ActionRead      PermissionAction = "read"
	ActionUpdate    PermissionAction = "update"
	ActionDelete    PermissionAction = "delete"
	ActionManage    PermissionAction = "manage"
	ActionPublish   PermissionAction = "publish"
	ActionUnpublish PermissionAction = "unpublish"
	ActionApprove   PermissionAction = "approve"
	ActionReject    PermissionAction = "reject"
	ActionExport    PermissionAction = "export"
	ActionImport    PermissionAction = "import"
	ActionDownload  PermissionAction = "download"
	ActionUpload    PermissionAction = "upload"
	ActionExecute   PermissionAction = "execute"
	ActionView      PermissionAction = "view"
	ActionEdit      PermissionAction = "edit"
	ActionList      PermissionAction = "list"
	ActionSearch    PermissionAction = "search"
	ActionFilter    PermissionAction = "filter"
	ActionSort      PermissionAction = "sort"
)

var actionMeta = map[PermissionAction]struct {
	display string
	desc    string
}{
	ActionCreate:    {"Create", "Create a new record"},
	ActionRead:      {"Read", "Read a single record"},
	ActionUpdate:    {"Update", "Modify an existing record"},
	ActionDelete:    {"Delete", "Remove a record"},
	ActionManage:    {"Manage", "Full administrative control"},
	ActionPublish:   {"Publish", "Make content publicly visible"},
	ActionUnpublish: {"Unpublish", "Withdraw published content"},
	ActionApprove:   {"Approve", "Approve a pending request"},
	ActionReject:    {"Reject", "Reject a pending request"},
	ActionExport:    {"Export", "Export records to an external format"},
	ActionImport:    {"Import", "Import records from an external source"},
	ActionDownload:  {"Download", "Download an attachment or file"},
	ActionUpload:    {"Upload", "Upload an attachment or file"},
	ActionExecute:   {"Execute", "Run an operation or job"},
	ActionView:      {"View", "View a page or panel"},
	ActionEdit:      {"Edit", "Open a record for editing"},
	ActionList:      {"List", "Enumerate records"},
	ActionSearch:    {"Search", "Search records by keyword"},
	ActionFilter:    {"Filter", "Filter records by criteria"},
	ActionSort:      {"Sort", "Reorder listed records"},
}

// ParsePermissionAction converts a raw string into a PermissionAction.
func ParsePermissionAction(s string) (PermissionAction, error) {
	a := PermissionAction(s)
	if !a.IsValid() {
		return "", fmt.Errorf("%w: unknown permission action %q", ErrValidation, s)
	}
	return a, nil
}

// PermissionActions returns all known actions in declaration order.
func PermissionActions() []PermissionAction {
	return []PermissionAction{
		ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage,
		ActionPublish, ActionUnpublish, ActionApprove, ActionReject,
		ActionExport, ActionImport, ActionDownload, ActionUpload,
		ActionExecute, ActionView, ActionEdit, ActionList, ActionSearch,
		ActionFilter, ActionSort,
	}
}

// IsValid reports whether the action is one of the known variants.
func (a PermissionAction) IsValid() bool {
	_, ok := actionMeta[a]
	return ok
}

// DisplayName returns the human-readable label for the action.
func (a PermissionAction) DisplayName() string {
	if m, ok := actionMeta[a]; ok {
		return m.display
	}
	return string(a)
}

// Description returns a short explanation of the action.
func (a PermissionAction) Description() string {
	if m, ok := actionMeta[a]; ok {
		return m.desc
	}
	return string(a)
}

// IsDangerous reports whether the action is classified as high risk.
func (a PermissionAction) IsDangerous() bool {
	switch a {
	case ActionManage, ActionDelete, ActionReject:
		return true
	default:
		return false
	}
}

// RequiresConfirmation reports whether a caller should ask for explicit
// confirmation before executing this action. Currently identical to the
// dangerous classification.
func (a PermissionAction) RequiresConfirmation() bool {
	return a.IsDangerous()
}

func (a PermissionAction) String() string {
	return string(a)
}
