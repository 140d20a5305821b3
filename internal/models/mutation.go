package models

// Admin mutation actions. Grant and extend are the same operation.
const (
	ActionGrant      = "grant"
	ActionExtend     = "extend"
	ActionRevoke     = "revoke"
	ActionResetTrial = "reset_trial"
)

// ValidAction reports whether action is a known admin mutation
func ValidAction(action string) bool {
	switch action {
	case ActionGrant, ActionExtend, ActionRevoke, ActionResetTrial:
		return true
	}
	return false
}
