// Package viewer maps order documents to the payload the document
// presentation surface consumes. The surface itself renders elsewhere; this
// package only derives its input.
package viewer

import (
	"strings"
	"time"

	"mittrack/internal/model"
)

const (
	TipoPDF    = "PDF"
	TipoXML    = "XML"
	TipoImagem = "IMAGEM"
)

// Document is the presentation-surface contract: a type tag, a URL and a
// display name, plus optional metadata.
type Document struct {
	Tipo       string `json:"tipo"`
	URL        string `json:"url"`
	Nome       string `json:"nome"`
	Status     string `json:"status,omitempty"`
	Data       string `json:"data,omitempty"`
	EnviadoPor string `json:"enviadoPor,omitempty"`
}

// FromOrderDocument derives the viewer payload from a fetched document.
func FromOrderDocument(d model.OrderDocument) Document {
	doc := Document{
		Tipo:       tipoFor(d.FileType),
		URL:        d.S3URL,
		Nome:       d.OriginalName,
		Status:     d.Status,
		EnviadoPor: d.UploadedBy,
	}
	if !d.UploadedAt.IsZero() {
		doc.Data = d.UploadedAt.Format(time.RFC3339)
	}
	return doc
}

// tipoFor classifies a file type into the three tags the surface renders.
// Unknown types fall back to PDF, which the surface treats as download-only.
func tipoFor(fileType string) string {
	t := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileType), "."))
	if idx := strings.LastIndexByte(t, '/'); idx >= 0 {
		t = t[idx+1:] // accept mime types like application/pdf
	}
	switch t {
	case "pdf":
		return TipoPDF
	case "xml":
		return TipoXML
	case "png", "jpg", "jpeg", "gif", "webp", "bmp":
		return TipoImagem
	default:
		return TipoPDF
	}
}
