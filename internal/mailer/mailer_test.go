package mailer

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
)

func TestEmissionSummaryTemplate(t *testing.T) {
	tmpl, err := template.ParseFS(FS, string(TemplateEmissionSummary))
	if err != nil {
		t.Fatalf("failed to parse template: %v", err)
	}

	data := EmissionSummaryData{
		Username:  "ana",
		Proyecto:  "Predial Centro",
		SesionID:  "abc123",
		Generadas: 40,
		ConError:  2,
		Fecha:     "14/03/2025",
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		t.Fatalf("failed to execute subject: %v", err)
	}
	if !strings.Contains(subject.String(), "abc123") {
		t.Errorf("subject should mention the session, got %q", subject.String())
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		t.Fatalf("failed to execute body: %v", err)
	}
	for _, want := range []string{"Predial Centro", "40", "corrección"} {
		if !strings.Contains(body.String(), want) {
			t.Errorf("body should contain %q", want)
		}
	}
}

func TestEmissionSummaryTemplateWithoutErrors(t *testing.T) {
	tmpl, err := template.ParseFS(FS, string(TemplateEmissionSummary))
	if err != nil {
		t.Fatalf("failed to parse template: %v", err)
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", EmissionSummaryData{ConError: 0}); err != nil {
		t.Fatalf("failed to execute body: %v", err)
	}
	if strings.Contains(body.String(), "corrección") {
		t.Error("error remediation note should only appear when there are errors")
	}
}

func TestSendGridSendReportsTransportError(t *testing.T) {
	if testing.Short() {
		t.Skip("retries with backoff, skipped in short mode")
	}

	m := NewSendgrid("dummy-key", "noreply@example.com", false, nil)
	// Nothing listens here, so every attempt fails with a transport error.
	m.client.BaseURL = "http://127.0.0.1:1"

	_, err := m.Send(TemplateEmissionSummary, "ana", "ana@example.com", EmissionSummaryData{
		Username: "ana",
		Proyecto: "Predial Centro",
		SesionID: "abc123",
	})
	if err == nil {
		t.Fatal("expected an error when the mail endpoint is unreachable")
	}
	if strings.Contains(err.Error(), "<nil>") {
		t.Errorf("error should carry the failure cause, got %q", err.Error())
	}
}
