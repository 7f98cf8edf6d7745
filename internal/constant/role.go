package constant

// Role is shared by the global user role and the per-project role. A user's
// role inside a project is independent of their global role.
type Role string

const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleAnalista   Role = "ANALISTA"
	RoleAuxiliar   Role = "AUXILIAR"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAnalista, RoleAuxiliar:
		return true
	}
	return false
}

type ProjectPermission string

const (
	TemplateManage ProjectPermission = "plantilla:manage"
	PadronManage   ProjectPermission = "padron:manage"
	EmissionRun    ProjectPermission = "emision:run"
	StatsView      ProjectPermission = "stats:view"
	MemberManage   ProjectPermission = "proyecto:members"
)
