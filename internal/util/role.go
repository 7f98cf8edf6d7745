package util

import (
	"slices"

	"github.com/emisorlabs/emisor/internal/constant"
)

var rolePermissions = map[constant.Role][]constant.ProjectPermission{
	constant.RoleSuperadmin: {
		constant.TemplateManage,
		constant.PadronManage,
		constant.EmissionRun,
		constant.StatsView,
		constant.MemberManage,
	},
	constant.RoleAnalista: {
		constant.TemplateManage,
		constant.PadronManage,
		constant.EmissionRun,
		constant.StatsView,
	},
	constant.RoleAuxiliar: {
		constant.EmissionRun,
		constant.StatsView,
	},
}

// HasPermission checks that the role grants every requested permission.
func HasPermission(role constant.Role, permissions []constant.ProjectPermission) bool {
	granted := rolePermissions[role]
	for _, permission := range permissions {
		if !slices.Contains(granted, permission) {
			return false
		}
	}
	return true
}

func HasRole(role constant.Role, requiredRoles []constant.Role) bool {
	return slices.Contains(requiredRoles, role)
}
