package rbac

import (
	"testing"

	"github.com/sikilat/sikilat/internal/model"
)

func TestCanUpdateReportStatus(t *testing.T) {
	tests := []struct {
		role model.Role
		want bool
	}{
		{model.RoleAdmin, true},
		{model.RolePenanggungJawab, true},
		{model.RolePengawasIT, false},
		{model.RoleGuru, false},
		{model.RoleSiswa, false},
		{model.RoleTamu, false},
		{model.Role("unknown"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := Can(tt.role, ActionUpdateReportStatus); got != tt.want {
				t.Errorf("Can(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestEveryRoleCanReportIncidents(t *testing.T) {
	roles := []model.Role{
		model.RoleAdmin, model.RolePenanggungJawab, model.RolePengawasIT,
		model.RoleGuru, model.RoleSiswa, model.RoleTamu,
	}
	for _, role := range roles {
		if !Can(role, ActionReportIncident) {
			t.Errorf("role %s cannot report incidents", role)
		}
	}
}

func TestAllowedReturnsCopy(t *testing.T) {
	allowed := Allowed(ActionUpdateReportStatus)
	if len(allowed) != 2 {
		t.Fatalf("allowed roles = %v, want exactly two", allowed)
	}

	allowed[0] = model.RoleTamu
	if Can(model.RoleTamu, ActionUpdateReportStatus) {
		t.Error("mutating Allowed's result changed the capability table")
	}
}

func TestUnknownActionDeniesEveryone(t *testing.T) {
	if Can(model.RoleAdmin, Action("delete_everything")) {
		t.Error("unknown action granted to admin")
	}
}
