package mailer

import "embed"

const (
	FROM_NAME = "Emisor"
	MAX_RETRY = 3
)

// MailTemplateFile is the path of an embedded template. Templates define
// "subject" and "body" blocks.
type MailTemplateFile string

const (
	TemplateEmissionSummary MailTemplateFile = "templates/emission_summary.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile MailTemplateFile, toUsername, toEmail string, data any) (int, error)
}

// EmissionSummaryData feeds the emission summary mail sent to the operator
// once a render session finishes.
type EmissionSummaryData struct {
	Username  string
	Proyecto  string
	SesionID  string
	Generadas int64
	ConError  int64
	Fecha     string
}
