package domain

// UnknownDisplayName is shown for a herb that carries no usable identity field.
const UnknownDisplayName = "Unknown"

// IdentityField names one of the fields a herb may be identified by
type IdentityField int

const (
	FieldPinyinName IdentityField = iota
	FieldName
	FieldEnglishNames
	FieldPharmaceuticalName
	FieldPharmaceuticalLatin
	FieldLatinName
)

// String returns the stored document key of the field.
func (f IdentityField) String() string {
	switch f {
	case FieldPinyinName:
		return "pinyinName"
	case FieldName:
		return "name"
	case FieldEnglishNames:
		return "englishNames"
	case FieldPharmaceuticalName:
		return "pharmaceuticalName"
	case FieldPharmaceuticalLatin:
		return "pharmaceuticalLatin"
	case FieldLatinName:
		return "latinName"
	default:
		return "unknown"
	}
}

// DisplayNamePriority is the order in which identity fields are tried when a
// herb needs a single human-readable name.
var DisplayNamePriority = []IdentityField{
	FieldPinyinName,
	FieldName,
	FieldEnglishNames,
	FieldPharmaceuticalName,
	FieldPharmaceuticalLatin,
	FieldLatinName,
}

// MatchableFields are the identity fields consulted when resolving an
// ingredient name to a herb. latinName is display-only.
var MatchableFields = []IdentityField{
	FieldPinyinName,
	FieldName,
	FieldEnglishNames,
	FieldPharmaceuticalName,
	FieldPharmaceuticalLatin,
}

// HerbRecord represents one materia medica entry as stored in the document store
type HerbRecord struct {
	ID                  string        `json:"_id,omitempty" yaml:"_id,omitempty"`
	PinyinName          Names         `json:"pinyinName,omitempty" yaml:"pinyinName,omitempty"`
	Name                Names         `json:"name,omitempty" yaml:"name,omitempty"`
	EnglishNames        Names         `json:"englishNames,omitempty" yaml:"englishNames,omitempty"`
	PharmaceuticalName  Names         `json:"pharmaceuticalName,omitempty" yaml:"pharmaceuticalName,omitempty"`
	PharmaceuticalLatin Names         `json:"pharmaceuticalLatin,omitempty" yaml:"pharmaceuticalLatin,omitempty"`
	LatinName           Names         `json:"latinName,omitempty" yaml:"latinName,omitempty"`
	Category            Names         `json:"category,omitempty" yaml:"category,omitempty"`
	Taste               Names         `json:"taste,omitempty" yaml:"taste,omitempty"`
	Temperature         Names         `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	ChannelsEntered     DelimitedList `json:"channelsEntered,omitempty" yaml:"channelsEntered,omitempty"`
	Properties          DelimitedList `json:"properties,omitempty" yaml:"properties,omitempty"`
	Cautions            Names         `json:"cautions,omitempty" yaml:"cautions,omitempty"`
	Notes               Names         `json:"notes,omitempty" yaml:"notes,omitempty"`
	DosageDefault       Names         `json:"dosage,omitempty" yaml:"dosage,omitempty"`
}

// Field returns the values stored under an identity field.
func (h HerbRecord) Field(f IdentityField) Names {
	switch f {
	case FieldPinyinName:
		return h.PinyinName
	case FieldName:
		return h.Name
	case FieldEnglishNames:
		return h.EnglishNames
	case FieldPharmaceuticalName:
		return h.PharmaceuticalName
	case FieldPharmaceuticalLatin:
		return h.PharmaceuticalLatin
	case FieldLatinName:
		return h.LatinName
	default:
		return nil
	}
}

// DisplayName returns the first non-blank value of the first populated identity
// field in DisplayNamePriority order, or UnknownDisplayName.
func (h HerbRecord) DisplayName() string {
	for _, f := range DisplayNamePriority {
		if name, ok := h.Field(f).First(); ok {
			return name
		}
	}
	return UnknownDisplayName
}

// IdentityNames flattens every matchable identity field into one list,
// preserving field priority and element order.
func (h HerbRecord) IdentityNames() []string {
	var names []string
	for _, f := range MatchableFields {
		names = append(names, h.Field(f)...)
	}
	return names
}

// HerbSuggestion is a herb whose names resemble a name that did not resolve
type HerbSuggestion struct {
	HerbID      string  `json:"id,omitempty"`
	DisplayName string  `json:"displayName"`
	MatchedName string  `json:"matchedName"`
	Score       float64 `json:"score"`
}
