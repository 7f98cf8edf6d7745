package repository

import (
	"context"
	"errors"
	"testing"

	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"gorm.io/gorm"
)

func TestCreateDuplicateUsernameWritesNoAudit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	actor := seedUser(t, repo)
	actx := testAuditContext(actor)

	username := "dup_" + randomSuffix(t)
	first := model.User{
		Username:       username,
		Email:          username + "@example.com",
		NombreCompleto: "Primera Cuenta",
		Rol:            constant.RoleAuxiliar,
	}
	if _, err := repo.User.Create(ctx, nil, actx, first, "secreta123"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, before, err := repo.Audit.GetByUserId(ctx, nil, actor.ID, 1, 1)
	if err != nil {
		t.Fatalf("failed to count bitacora entries: %v", err)
	}

	second := model.User{
		Username:       username,
		Email:          "otra_" + username + "@example.com",
		NombreCompleto: "Segunda Cuenta",
		Rol:            constant.RoleAuxiliar,
	}
	if _, err := repo.User.Create(ctx, nil, actx, second, "secreta123"); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey, got %v", err)
	}

	// The insert and its bitacora entry share one transaction, so the failed
	// create must leave no trace.
	_, after, err := repo.Audit.GetByUserId(ctx, nil, actor.ID, 1, 1)
	if err != nil {
		t.Fatalf("failed to count bitacora entries: %v", err)
	}
	if after != before {
		t.Errorf("failed create should write no bitacora entry, count went %d -> %d", before, after)
	}
}

func TestUpdateProfileAuditsOnlyChangedFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	actor := seedUser(t, repo)
	actx := testAuditContext(actor)

	username := "perfil_" + randomSuffix(t)
	created, err := repo.User.Create(ctx, nil, actx, model.User{
		Username:       username,
		Email:          username + "@example.com",
		NombreCompleto: "Nombre Original",
		Rol:            constant.RoleAuxiliar,
	}, "secreta123")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	updated, err := repo.User.UpdateProfile(ctx, nil, actx, created.ID, model.User{
		Email:          "nuevo_" + username + "@example.com",
		NombreCompleto: created.NombreCompleto,
		Rol:            created.Rol,
		IsActive:       created.IsActive,
	})
	if err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}
	if updated.Email != "nuevo_"+username+"@example.com" {
		t.Errorf("email not updated, got %q", updated.Email)
	}

	entries, _, err := repo.Audit.GetByEntity(ctx, nil, constant.AuditEntityUser, created.ID, 1, 10)
	if err != nil {
		t.Fatalf("failed to read bitacora entries: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected a bitacora entry for the update")
	}

	latest := entries[0]
	if latest.Accion != constant.AuditActionUpdate {
		t.Fatalf("expected an %s entry, got %s", constant.AuditActionUpdate, latest.Accion)
	}
	if _, ok := latest.Detalles["email"]; !ok {
		t.Errorf("diff should contain the changed email, got %v", latest.Detalles)
	}
	for _, field := range []string{"nombre_completo", "rol", "is_active"} {
		if _, ok := latest.Detalles[field]; ok {
			t.Errorf("diff should not contain unchanged field %s, got %v", field, latest.Detalles)
		}
	}

	// A no-op update writes nothing.
	_, total, err := repo.Audit.GetByEntity(ctx, nil, constant.AuditEntityUser, created.ID, 1, 1)
	if err != nil {
		t.Fatalf("failed to count bitacora entries: %v", err)
	}
	if _, err := repo.User.UpdateProfile(ctx, nil, actx, created.ID, model.User{
		Email:          updated.Email,
		NombreCompleto: updated.NombreCompleto,
		Rol:            updated.Rol,
		IsActive:       updated.IsActive,
	}); err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}
	_, afterTotal, err := repo.Audit.GetByEntity(ctx, nil, constant.AuditEntityUser, created.ID, 1, 1)
	if err != nil {
		t.Fatalf("failed to count bitacora entries: %v", err)
	}
	if afterTotal != total {
		t.Errorf("no-op update should write no bitacora entry, count went %d -> %d", total, afterTotal)
	}
}
