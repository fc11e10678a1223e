// Package parsing implements the upstream document parser port over the JSON
// format the extraction pipeline emits.
package parsing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
	"github.com/procurehub/backend/internal/domain/shared"
)

// JSONDocumentParser parses extraction-pipeline JSON documents into
// ParsedInvoice values. It owns structural validation only; monetary
// conversion stays with the import adapter.
type JSONDocumentParser struct {
	validate *validator.Validate
}

// NewJSONDocumentParser creates a new JSONDocumentParser
func NewJSONDocumentParser() *JSONDocumentParser {
	return &JSONDocumentParser{
		validate: validator.New(),
	}
}

// Parse decodes and structurally validates one document
func (p *JSONDocumentParser) Parse(ctx context.Context, document []byte) (*acl.ParsedInvoice, error) {
	if len(document) == 0 {
		return nil, shared.ErrParseFailed
	}

	var invoice acl.ParsedInvoice
	if err := json.Unmarshal(document, &invoice); err != nil {
		return nil, shared.NewDomainError("PARSE_FAILED", fmt.Sprintf("invalid document JSON: %v", err))
	}

	if err := p.validate.StructCtx(ctx, &invoice); err != nil {
		return nil, shared.NewDomainError("PARSE_FAILED", fmt.Sprintf("document is structurally incomplete: %v", err))
	}

	return &invoice, nil
}

var _ acl.DocumentParser = (*JSONDocumentParser)(nil)
