package constant

// Audit actions recorded in the bitacora. One entry is written per mutation
// of a sensitive entity, inside the same transaction as the mutation.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREAR"
	AuditActionUpdate AuditAction = "ACTUALIZAR"
	AuditActionDelete AuditAction = "ELIMINAR"
	AuditActionLogin  AuditAction = "LOGIN"
	AuditActionLogout AuditAction = "LOGOUT"
)

type AuditEntity string

const (
	AuditEntityUser     AuditEntity = "usuario"
	AuditEntityProject  AuditEntity = "proyecto"
	AuditEntityTemplate AuditEntity = "plantilla"
	AuditEntityEmission AuditEntity = "emision"
)
