package domain

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Origin is the provenance tag of a formula. It drives a badge in the browser and
// is never interpreted by the matching engine.
type Origin string

const (
	OriginClassical Origin = "classical"
	OriginModern    Origin = "modern"
	OriginPatent    Origin = "patent"
	OriginCustom    Origin = "custom"
	OriginUnknown   Origin = "unknown"
)

// ParseOrigin maps a stored tag onto the closed Origin set.
func ParseOrigin(s string) Origin {
	switch o := Origin(strings.ToLower(strings.TrimSpace(s))); o {
	case OriginClassical, OriginModern, OriginPatent, OriginCustom:
		return o
	default:
		return OriginUnknown
	}
}

// UnmarshalJSON decodes any string (or nothing) into a known Origin.
func (o *Origin) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*o = OriginUnknown
		return nil
	}
	*o = ParseOrigin(s)
	return nil
}

// UnmarshalYAML decodes any scalar into a known Origin.
func (o *Origin) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*o = OriginUnknown
		return nil
	}
	*o = ParseOrigin(node.Value)
	return nil
}

// FormulaRecord is a formula as stored in the document store
type FormulaRecord struct {
	ID                    string `json:"_id,omitempty" yaml:"_id,omitempty"`
	PinyinName            Names  `json:"pinyinName,omitempty" yaml:"pinyinName,omitempty"`
	EnglishName           Names  `json:"englishName,omitempty" yaml:"englishName,omitempty"`
	Origin                Origin `json:"origin,omitempty" yaml:"origin,omitempty"`
	Category              Names  `json:"category,omitempty" yaml:"category,omitempty"`
	IngredientsAndDosages Names  `json:"ingredientsAndDosages,omitempty" yaml:"ingredientsAndDosages,omitempty"`
	Actions               Names  `json:"actions,omitempty" yaml:"actions,omitempty"`
	Indications           Names  `json:"indications,omitempty" yaml:"indications,omitempty"`
	Notes                 Names  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// DisplayName returns the formula's pinyin name, falling back to its English
// name, then UnknownDisplayName.
func (f FormulaRecord) DisplayName() string {
	if name, ok := f.PinyinName.First(); ok {
		return name
	}
	if name, ok := f.EnglishName.First(); ok {
		return name
	}
	return UnknownDisplayName
}
