package domain

import "fmt"

// Action is a transaction kind the workflow can submit.
type Action int

const (
	ActionApprove Action = iota
	ActionBond
)

// action string constants to avoid magic strings
const (
	actionStringApprove = "approve"
	actionStringBond    = "bond"
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionApprove:
		return actionStringApprove
	case ActionBond:
		return actionStringBond
	default:
		return "unknown"
	}
}

// Label is the default button label for the action.
func (a Action) Label() string {
	switch a {
	case ActionApprove:
		return "Approve"
	case ActionBond:
		return "Bond"
	default:
		return ""
	}
}

// PendingKey identifies one in-flight submission, formatted as <action>_<asset>.
type PendingKey string

// NewPendingKey builds the registry key for the action on the asset.
func NewPendingKey(action Action, asset BondAssetID) PendingKey {
	return PendingKey(fmt.Sprintf("%s_%s", action.String(), asset.String()))
}

// String returns the string representation.
func (k PendingKey) String() string {
	return string(k)
}
