package domain

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Names is a name-bearing field that may be stored as a single string, a list of
// strings, null, or be missing entirely. Values of any other shape decode to an
// empty Names instead of failing the whole record.
type Names []string

// First returns the first non-blank element, trimmed.
func (n Names) First() (string, bool) {
	for _, v := range n {
		if s := strings.TrimSpace(v); s != "" {
			return s, true
		}
	}
	return "", false
}

// Present reports whether at least one element is non-blank.
func (n Names) Present() bool {
	_, ok := n.First()
	return ok
}

// UnmarshalJSON accepts a string, a list, or null.
func (n *Names) UnmarshalJSON(data []byte) error {
	*n = Names(decodeJSONStrings(data))
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	*n = Names(decodeYAMLStrings(node))
	return nil
}

// DelimitedList is a list field that may also be stored as one delimiter-separated
// string ("Lung, Spleen; Heart"). Decoding always yields the split, trimmed list.
type DelimitedList []string

// listDelimiters are the separators accepted inside a single stored string.
const listDelimiters = ",;/、，；"

// UnmarshalJSON accepts a delimited string, a list, or null.
func (d *DelimitedList) UnmarshalJSON(data []byte) error {
	*d = splitDelimited(decodeJSONStrings(data))
	return nil
}

// UnmarshalYAML accepts a delimited scalar or a sequence.
func (d *DelimitedList) UnmarshalYAML(node *yaml.Node) error {
	*d = splitDelimited(decodeYAMLStrings(node))
	return nil
}

// SplitDelimited normalizes raw values the same way DelimitedList decoding does.
func SplitDelimited(values ...string) DelimitedList {
	return splitDelimited(values)
}

func splitDelimited(values []string) DelimitedList {
	var out DelimitedList
	for _, v := range values {
		parts := strings.FieldsFunc(v, func(r rune) bool {
			return strings.ContainsRune(listDelimiters, r)
		})
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func decodeJSONStrings(data []byte) []string {
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		return []string{single}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}

	out := make([]string, 0, len(list))
	for _, raw := range list {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func decodeYAMLStrings(node *yaml.Node) []string {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		return []string{node.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode && item.Tag != "!!null" {
				out = append(out, item.Value)
			}
		}
		return out
	case yaml.AliasNode:
		if node.Alias != nil {
			return decodeYAMLStrings(node.Alias)
		}
	}
	return nil
}
