package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/pkg/emision"
	"gorm.io/gorm"
)

const testTemplateConfig = `{"placeholders":[
	{"campo":"nombre","pagina":1,"x":50,"y":700,"font_size":10},
	{"campo":"cuenta","pagina":1,"x":50,"y":680,"font_size":10}
]}`

func testAuditContext(user *model.User) AuditContext {
	return AuditContext{UserID: user.ID, IP: "127.0.0.1", UserAgent: "go-test"}
}

func stageBatch(t *testing.T, repo *Repository, projectId string, records []emision.BatchRecord) string {
	t.Helper()

	sesionId := "sesion_" + randomSuffix(t)
	if _, err := repo.Emission.IngestBatch(context.Background(), nil, projectId, sesionId, records); err != nil {
		t.Fatalf("failed to stage batch: %v", err)
	}
	return sesionId
}

// promoteOneRow seeds a project with a single promotable cuenta and promotes
// it, returning the session holding exactly one pending render row.
func promoteOneRow(t *testing.T, repo *Repository, user *model.User) (string, *model.EmissionFinal) {
	t.Helper()
	ctx := context.Background()

	project := seedProject(t, repo)
	template := seedTemplate(t, repo, project.ID, testTemplateConfig)
	seedPadronRow(t, repo, project.ID, "C-001", model.JSONMap{"nombre": "Ana Torres"})

	sesionId := stageBatch(t, repo, project.ID, []emision.BatchRecord{
		{Cuenta: "C-001", OrdenImpresion: 1},
	})

	outcomes, err := repo.Emission.PromoteSession(ctx, nil, testAuditContext(user), project, template, sesionId, constant.DocumentNotificacion)
	if err != nil {
		t.Fatalf("failed to promote session: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Promoted {
		t.Fatalf("expected one promoted outcome, got %+v", outcomes)
	}

	finals, err := repo.Emission.GetFinalBySession(ctx, nil, sesionId)
	if err != nil || len(finals) != 1 {
		t.Fatalf("expected one final row, got %d rows, err %v", len(finals), err)
	}

	return sesionId, finals[0]
}

func TestPromoteSessionKeepsRejectedRows(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := seedUser(t, repo)

	project := seedProject(t, repo)
	template := seedTemplate(t, repo, project.ID, testTemplateConfig)
	seedPadronRow(t, repo, project.ID, "C-001", model.JSONMap{"nombre": "Ana Torres"})
	// C-002 exists in the padron but lacks the "nombre" field the template
	// binds; C-003 is not in the padron at all.
	seedPadronRow(t, repo, project.ID, "C-002", model.JSONMap{"telefono": "555-0102"})

	sesionId := stageBatch(t, repo, project.ID, []emision.BatchRecord{
		{Cuenta: "C-001", OrdenImpresion: 1},
		{Cuenta: "C-002", OrdenImpresion: 2},
		{Cuenta: "C-003", OrdenImpresion: 3},
	})

	outcomes, err := repo.Emission.PromoteSession(ctx, nil, testAuditContext(user), project, template, sesionId, constant.DocumentNotificacion)
	if err != nil {
		t.Fatalf("failed to promote session: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	byCuenta := make(map[string]PromoteOutcome, len(outcomes))
	for _, outcome := range outcomes {
		byCuenta[outcome.Cuenta] = outcome
	}
	if !byCuenta["C-001"].Promoted {
		t.Errorf("C-001 should be promoted, got %+v", byCuenta["C-001"])
	}
	if byCuenta["C-002"].Promoted || !strings.Contains(byCuenta["C-002"].Error, "nombre") {
		t.Errorf("C-002 should be rejected for the missing field, got %+v", byCuenta["C-002"])
	}
	if byCuenta["C-003"].Promoted || !strings.Contains(byCuenta["C-003"].Error, "padrón") {
		t.Errorf("C-003 should be rejected as unknown cuenta, got %+v", byCuenta["C-003"])
	}

	// Every staged row must land in the final table, rejected ones with their
	// error recorded, and the staging table must be drained.
	finals, err := repo.Emission.GetFinalBySession(ctx, nil, sesionId)
	if err != nil {
		t.Fatalf("failed to read final rows: %v", err)
	}
	if len(finals) != 3 {
		t.Fatalf("expected 3 final rows, got %d", len(finals))
	}
	for _, final := range finals {
		if byCuenta[final.Cuenta].Promoted != (final.Error == "") {
			t.Errorf("final row %s error %q does not match outcome %+v", final.Cuenta, final.Error, byCuenta[final.Cuenta])
		}
	}

	staged, err := repo.Emission.GetTempBySession(ctx, nil, sesionId)
	if err != nil {
		t.Fatalf("failed to read staged rows: %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("expected staging table drained, got %d rows", len(staged))
	}

	status, err := repo.Emission.GetSessionStatus(ctx, nil, sesionId)
	if err != nil {
		t.Fatalf("failed to read session status: %v", err)
	}
	if status.Total != 3 || status.Pendientes != 1 || status.ConError != 2 || status.Generadas != 0 {
		t.Errorf("unexpected session status: %+v", status)
	}

	// A rejected row re-enters the queue once the operator retries it.
	var rejected *model.EmissionFinal
	for _, final := range finals {
		if final.Cuenta == "C-003" {
			rejected = final
		}
	}
	if err := repo.Emission.RetryErrored(ctx, nil, testAuditContext(user), rejected.ID); err != nil {
		t.Fatalf("failed to retry rejected row: %v", err)
	}
	status, err = repo.Emission.GetSessionStatus(ctx, nil, sesionId)
	if err != nil {
		t.Fatalf("failed to read session status: %v", err)
	}
	if status.Pendientes != 2 || status.ConError != 1 {
		t.Errorf("retry should re-queue the row, got status %+v", status)
	}
}

func TestPromoteSessionRequiresStagedRows(t *testing.T) {
	repo := newTestRepository(t)
	user := seedUser(t, repo)
	project := seedProject(t, repo)
	template := seedTemplate(t, repo, project.ID, testTemplateConfig)

	_, err := repo.Emission.PromoteSession(context.Background(), nil, testAuditContext(user), project, template, "sesion_"+randomSuffix(t), constant.DocumentNotificacion)
	if err == nil {
		t.Fatal("expected an error for a session without staged rows")
	}
}

func TestClaimNextExclusivity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := seedUser(t, repo)

	sesionId, _ := promoteOneRow(t, repo, user)

	claimed, err := repo.Emission.ClaimNext(ctx, sesionId, "worker-a", time.Hour)
	if err != nil {
		t.Fatalf("worker-a failed to claim: %v", err)
	}
	if claimed.ClaimedBy != "worker-a" {
		t.Errorf("expected claim held by worker-a, got %q", claimed.ClaimedBy)
	}

	// The only row is claimed, so a second worker sees an empty queue.
	if _, err := repo.Emission.ClaimNext(ctx, sesionId, "worker-b", time.Hour); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("worker-b should find nothing to claim, got %v", err)
	}

	// Only the claim holder may finish the row.
	if err := repo.Emission.MarkError(ctx, claimed.ID, "worker-b", "boom"); !errors.Is(err, ErrClaimLost) {
		t.Errorf("expected ErrClaimLost for a non-holder, got %v", err)
	}

	if err := repo.Emission.ReleaseClaim(ctx, claimed.ID, "worker-a"); err != nil {
		t.Fatalf("failed to release claim: %v", err)
	}
	if _, err := repo.Emission.ClaimNext(ctx, sesionId, "worker-b", time.Hour); err != nil {
		t.Errorf("worker-b should claim the released row, got %v", err)
	}
}

func TestClaimNextReclaimsStaleClaims(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := seedUser(t, repo)

	sesionId, _ := promoteOneRow(t, repo, user)

	claimed, err := repo.Emission.ClaimNext(ctx, sesionId, "worker-a", time.Hour)
	if err != nil {
		t.Fatalf("worker-a failed to claim: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	reclaimed, err := repo.Emission.ClaimNext(ctx, sesionId, "worker-b", time.Millisecond)
	if err != nil {
		t.Fatalf("worker-b failed to reclaim the stale row: %v", err)
	}
	if reclaimed.ID != claimed.ID || reclaimed.ClaimedBy != "worker-b" {
		t.Errorf("expected the stale row reassigned to worker-b, got %+v", reclaimed)
	}

	// The original holder lost the row and must not finish it.
	if err := repo.Emission.MarkError(ctx, claimed.ID, "worker-a", "late failure"); !errors.Is(err, ErrClaimLost) {
		t.Errorf("expected ErrClaimLost for the stale holder, got %v", err)
	}
	if err := repo.Emission.MarkError(ctx, claimed.ID, "worker-b", "render failed"); err != nil {
		t.Errorf("current holder should record the error, got %v", err)
	}
}

func TestArchiveIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := seedUser(t, repo)

	sesionId, _ := promoteOneRow(t, repo, user)

	claimed, err := repo.Emission.ClaimNext(ctx, sesionId, "worker-a", time.Hour)
	if err != nil {
		t.Fatalf("failed to claim: %v", err)
	}

	if _, err := repo.Emission.Archive(ctx, claimed, "worker-b", "emisiones/out.pdf", 1024, "deadbeef", user.ID); !errors.Is(err, ErrClaimLost) {
		t.Errorf("expected ErrClaimLost archiving without the claim, got %v", err)
	}

	accumulated, err := repo.Emission.Archive(ctx, claimed, "worker-a", "emisiones/out.pdf", 1024, "deadbeef", user.ID)
	if err != nil {
		t.Fatalf("failed to archive: %v", err)
	}
	if accumulated == nil {
		t.Fatal("expected an accumulated row on first archive")
	}
	// The archived row keeps the final row's id so verification links printed
	// at render time keep resolving.
	if accumulated.ID != claimed.ID {
		t.Errorf("expected accumulated id %s, got %s", claimed.ID, accumulated.ID)
	}

	again, err := repo.Emission.Archive(ctx, claimed, "worker-a", "emisiones/out.pdf", 1024, "deadbeef", user.ID)
	if err != nil {
		t.Fatalf("second archive should be a no-op, got error %v", err)
	}
	if again != nil {
		t.Errorf("second archive should return no row, got %+v", again)
	}

	rows, err := repo.Emission.GetAccumulatedBySession(ctx, nil, sesionId)
	if err != nil {
		t.Fatalf("failed to read accumulated rows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected exactly one accumulated row, got %d", len(rows))
	}

	// A generated row never re-enters the queue.
	if _, err := repo.Emission.ClaimNext(ctx, sesionId, "worker-c", time.Hour); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("generated row should not be claimable, got %v", err)
	}

	status, err := repo.Emission.GetSessionStatus(ctx, nil, sesionId)
	if err != nil {
		t.Fatalf("failed to read session status: %v", err)
	}
	if status.Generadas != 1 || status.Pendientes != 0 {
		t.Errorf("unexpected session status after archive: %+v", status)
	}
}
