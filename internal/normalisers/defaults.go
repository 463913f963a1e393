package normalisers

import (
	"github.com/custodia-labs/manualqa/internal/normalisers/pdf"
	"github.com/custodia-labs/manualqa/internal/normalisers/plaintext"
)

// NewDefaultRegistry returns a registry with the PDF and plain text loaders.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(plaintext.New())
	return r
}
