package repository

import (
	"os"
	"testing"

	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/config"
	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/database"
	"github.com/emisorlabs/emisor/internal/env"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/internal/util"
)

// newTestRepository connects to the database named by the TEST_DB_* variables
// and migrates the schema. The claim locking and the jsonb columns need a real
// Postgres, so these tests are skipped when no test database is configured.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping database tests")
	}

	db, err := database.ConnectReturnGormDB(config.DatabaseConfig{
		DB_HOST:      host,
		DB_PORT:      env.GetString("TEST_DB_PORT", "5432"),
		DB_USERNAME:  env.GetString("TEST_DB_USERNAME", "root"),
		DB_PASSWORD:  env.GetString("TEST_DB_PASSWORD", ""),
		DB_DATABASE:  env.GetString("TEST_DB_DATABASE", "emisor_test"),
		MaxOpenConns: 5,
		MaxIdleConns: 5,
		MaxIdleTime:  "5m",
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db.Exec(`CREATE EXTENSION IF NOT EXISTS citext`)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.ProjectUser{},
		&model.Template{},
		&model.PadronRow{},
		&model.EmissionTemp{},
		&model.EmissionFinal{},
		&model.EmissionAccumulated{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	logger := util.NewLogger("development")
	return NewRepository(db, logger, auth.NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, logger), nil)
}

// randomSuffix keeps seeded rows unique so tests can share one database
// without truncating between runs.
func randomSuffix(t *testing.T) string {
	t.Helper()

	suffix, err := util.GenerateNChar(8)
	if err != nil {
		t.Fatalf("failed to generate suffix: %v", err)
	}
	return suffix
}

func seedUser(t *testing.T, repo *Repository) *model.User {
	t.Helper()

	suffix := randomSuffix(t)
	user := &model.User{
		Username:       "tester_" + suffix,
		Email:          "tester_" + suffix + "@example.com",
		HashedPassword: "not-a-real-hash",
		NombreCompleto: "Usuario de Prueba",
		Rol:            constant.RoleAnalista,
		IsActive:       true,
	}
	if err := repo.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedProject(t *testing.T, repo *Repository) *model.Project {
	t.Helper()

	suffix := randomSuffix(t)
	project := &model.Project{
		Nombre:            "Proyecto " + suffix,
		NombreTablaPadron: "padron_" + suffix,
		EstructuraPadron: model.JSON(`{"columnas":[
			{"nombre":"cuenta","tipo":"TEXTO","es_obligatorio":true},
			{"nombre":"nombre","tipo":"TEXTO"},
			{"nombre":"telefono","tipo":"TEXTO"}
		]}`),
	}
	if err := repo.DB.Create(project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return project
}

func seedTemplate(t *testing.T, repo *Repository, projectId, configuracion string) *model.Template {
	t.Helper()

	suffix := randomSuffix(t)
	template := &model.Template{
		ProjectID:     projectId,
		Nombre:        "Plantilla " + suffix,
		ArchivoOrigen: "plantillas/" + suffix + ".pdf",
		Configuracion: model.JSON(configuracion),
		TamanoPagina:  model.JSON(`{"ancho":612,"alto":792,"unidad":"pt"}`),
	}
	if err := repo.DB.Create(template).Error; err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}
	return template
}

func seedPadronRow(t *testing.T, repo *Repository, projectId, cuenta string, datos model.JSONMap) {
	t.Helper()

	row := &model.PadronRow{
		ProjectID: projectId,
		Cuenta:    cuenta,
		Datos:     datos,
	}
	if err := repo.DB.Create(row).Error; err != nil {
		t.Fatalf("failed to seed padron row for %s: %v", cuenta, err)
	}
}
