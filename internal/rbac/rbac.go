// Package rbac centralizes role-based access checks. Every mutating chat
// rule and tool consults the same capability table instead of re-deriving
// an allow-list at its call site.
package rbac

import "github.com/sikilat/sikilat/internal/model"

// Action names a capability a role may hold.
type Action string

const (
	// ActionUpdateReportStatus allows moving a damage report through its
	// workflow states.
	ActionUpdateReportStatus Action = "update_report_status"
	// ActionReportIncident allows filing a new damage report from chat.
	ActionReportIncident Action = "report_incident"
)

// capabilities is the single role -> permitted actions table. Status
// mutation is deliberately limited to exactly two roles; there is no role
// hierarchy.
var capabilities = map[Action][]model.Role{
	ActionUpdateReportStatus: {model.RolePenanggungJawab, model.RoleAdmin},
	ActionReportIncident: {
		model.RoleAdmin, model.RolePenanggungJawab, model.RolePengawasIT,
		model.RoleGuru, model.RoleSiswa, model.RoleTamu,
	},
}

// Can reports whether role holds action.
func Can(role model.Role, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Allowed returns the roles holding action, for access-denied messages.
func Allowed(action Action) []model.Role {
	out := make([]model.Role, len(capabilities[action]))
	copy(out, capabilities[action])
	return out
}
