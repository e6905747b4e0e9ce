// Package records holds the record sources that feed the herb and formula
// pools (YAML/JSON file, SQLite document store, remote document API) and the
// snapshot store that publishes them to the matching engine.
package records

import (
	"context"
	"fmt"
	"os"

	"github.com/formulary/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of a record dump. YAML is a superset of JSON,
// so the same decoder reads both.
type Document struct {
	Herbs    []domain.HerbRecord    `json:"herbs" yaml:"herbs"`
	Formulas []domain.FormulaRecord `json:"formulas" yaml:"formulas"`
}

// FileSource reads herbs and formulas from a single YAML or JSON file.
// The file is re-read on every call so edits are picked up by the next refresh.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load decodes the whole document.
func (s *FileSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrRecordSourceFailure, s.path, err)
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrRecordSourceFailure, s.path, err)
	}
	return doc, nil
}

// ListHerbs returns every herb in the file.
func (s *FileSource) ListHerbs(ctx context.Context) ([]domain.HerbRecord, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Herbs, nil
}

// ListFormulas returns every formula in the file.
func (s *FileSource) ListFormulas(ctx context.Context) ([]domain.FormulaRecord, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Formulas, nil
}

// DecodeDocument parses a YAML or JSON record dump.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return &doc, nil
}
