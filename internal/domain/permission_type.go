package domain

import "fmt"

// PermissionType classifies the kind of resource a permission protects.
// The type decides which mutations are legal on the aggregate: only types
// with CanHaveConditions may carry a condition set, and only types with
// CanHaveFields may restrict individual fields. Nothing else in the system
// re-derives this mapping.
type PermissionType string

const (
	PermissionTypeMenu   PermissionType = "menu"
	PermissionTypeButton PermissionType = "button"
	PermissionTypeAPI    PermissionType = "api"
	PermissionTypeData   PermissionType = "data"
)

// ParsePermissionType converts a raw string into a PermissionType.
func ParsePermissionType(s string) (PermissionType, error) {
	t := PermissionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown permission type %q", ErrValidation, s)
	}
	return t, nil
}

// PermissionTypes returns all known types in declaration order.
func PermissionTypes() []PermissionType {
	return []PermissionType{
		PermissionTypeMenu,
		PermissionTypeButton,
		PermissionTypeAPI,
		PermissionTypeData,
	}
}

// IsValid reports whether the type is one of the known variants.
func (t PermissionType) IsValid() bool {
	switch t {
	case PermissionTypeMenu, PermissionTypeButton, PermissionTypeAPI, PermissionTypeData:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable label for the type.
func (t PermissionType) DisplayName() string {
	switch t {
	case PermissionTypeMenu:
		return "Menu"
	case PermissionTypeButton:
		return "Button"
	case PermissionTypeAPI:
		return "API"
	case PermissionTypeData:
		return "Data"
	default:
		return string(t)
	}
}

// Description returns a short explanation of what the type protects.
func (t PermissionType) Description() string {
	switch t {
	case PermissionTypeMenu:
		return "Access to a navigation menu entry"
	case PermissionTypeButton:
		return "Access to an interface action button"
	case PermissionTypeAPI:
		return "Access to an API endpoint"
	case PermissionTypeData:
		return "Access to data records and their fields"
	default:
		return string(t)
	}
}

// CanHaveConditions reports whether permissions of this type may carry a
// condition set. Only API and DATA permissions are conditionable.
func (t PermissionType) CanHaveConditions() bool {
	return t == PermissionTypeAPI || t == PermissionTypeData
}

// CanHaveFields reports whether permissions of this type may restrict access
// to individual fields. Only DATA permissions are field-restrictable.
func (t PermissionType) CanHaveFields() bool {
	return t == PermissionTypeData
}

func (t PermissionType) String() string {
	return string(t)
}
