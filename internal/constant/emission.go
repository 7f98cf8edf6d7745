package constant

// DocumentType identifies the kind of document an emission produces. The
// visita sequence restarts whenever the document type changes for a cuenta.
type DocumentType string

const (
	DocumentNotificacion    DocumentType = "N"
	DocumentApercibimiento  DocumentType = "A"
	DocumentEmbargo         DocumentType = "E"
	DocumentCartaInvitacion DocumentType = "CI"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocumentNotificacion, DocumentApercibimiento, DocumentEmbargo, DocumentCartaInvitacion:
		return true
	}
	return false
}
