package workflowdoc

import (
	"strconv"
	"strings"
)

const (
	stringTagConstant   = "!!str"
	boolTagConstant     = "!!bool"
	intTagConstant      = "!!int"
	floatTagConstant    = "!!float"
	nullTagConstant     = "!!null"
	trueLiteralConstant = "true"
)

// Kind enumerates the variants a Node can take.
type Kind int

// Node variants.
const (
	KindNull Kind = iota
	KindMapping
	KindSequence
	KindScalar
)

// String returns the variant name.
func (kind Kind) String() string {
	switch kind {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "null"
	}
}

// Entry is one key/value pair of a mapping, kept in declaration order.
type Entry struct {
	Key   string
	Value Node
}

// Node is an immutable tagged variant of a parsed YAML value. The zero value is Null.
type Node struct {
	kind    Kind
	tag     string
	text    string
	entries []Entry
	items   []Node
}

// NullNode returns the Null variant.
func NullNode() Node {
	return Node{kind: KindNull}
}

// ScalarNode builds a scalar with the supplied YAML tag.
func ScalarNode(tag string, text string) Node {
	return Node{kind: KindScalar, tag: tag, text: text}
}

// StringNode builds a string scalar.
func StringNode(text string) Node {
	return ScalarNode(stringTagConstant, text)
}

// MappingNode builds a mapping; a repeated key keeps its first position and its last value.
func MappingNode(entries ...Entry) Node {
	ordered := make([]Entry, 0, len(entries))
	positions := make(map[string]int, len(entries))
	for _, entry := range entries {
		if position, exists := positions[entry.Key]; exists {
			ordered[position].Value = entry.Value
			continue
		}
		positions[entry.Key] = len(ordered)
		ordered = append(ordered, entry)
	}
	return Node{kind: KindMapping, entries: ordered}
}

// SequenceNode builds a sequence.
func SequenceNode(items ...Node) Node {
	copied := make([]Node, len(items))
	copy(copied, items)
	return Node{kind: KindSequence, items: copied}
}

// Kind reports the variant.
func (node Node) Kind() Kind {
	return node.kind
}

// IsNull reports whether the node is Null.
func (node Node) IsNull() bool {
	return node.kind == KindNull
}

// IsMapping reports whether the node is a mapping.
func (node Node) IsMapping() bool {
	return node.kind == KindMapping
}

// IsSequence reports whether the node is a sequence.
func (node Node) IsSequence() bool {
	return node.kind == KindSequence
}

// IsScalar reports whether the node is a scalar.
func (node Node) IsScalar() bool {
	return node.kind == KindScalar
}

// IsString reports whether the node is a string scalar.
func (node Node) IsString() bool {
	return node.kind == KindScalar && node.tag == stringTagConstant
}

// Tag returns the resolved YAML tag of a scalar.
func (node Node) Tag() string {
	return node.tag
}

// Text returns the literal text of a scalar and an empty string otherwise.
func (node Node) Text() string {
	if node.kind != KindScalar {
		return ""
	}
	return node.text
}

// Len returns the number of entries or items; scalars and Null have length zero.
func (node Node) Len() int {
	switch node.kind {
	case KindMapping:
		return len(node.entries)
	case KindSequence:
		return len(node.items)
	default:
		return 0
	}
}

// Lookup returns the value stored under key when the node is a mapping.
func (node Node) Lookup(key string) (Node, bool) {
	if node.kind != KindMapping {
		return NullNode(), false
	}
	for _, entry := range node.entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return NullNode(), false
}

// Get returns the value stored under key or Null.
func (node Node) Get(key string) Node {
	value, _ := node.Lookup(key)
	return value
}

// ContainsKey reports whether a mapping declares key, even with a null value.
func (node Node) ContainsKey(key string) bool {
	_, present := node.Lookup(key)
	return present
}

// Entries returns a copy of the mapping entries.
func (node Node) Entries() []Entry {
	if node.kind != KindMapping {
		return nil
	}
	copied := make([]Entry, len(node.entries))
	copy(copied, node.entries)
	return copied
}

// Items returns a copy of the sequence items.
func (node Node) Items() []Node {
	if node.kind != KindSequence {
		return nil
	}
	copied := make([]Node, len(node.items))
	copy(copied, node.items)
	return copied
}

// TextEquals reports whether the node is a scalar whose text equals value.
func (node Node) TextEquals(value string) bool {
	return node.kind == KindScalar && node.text == value
}

// ContainsText reports whether a sequence holds a scalar equal to value.
func (node Node) ContainsText(value string) bool {
	for _, item := range node.Items() {
		if item.TextEquals(value) {
			return true
		}
	}
	return false
}

// Truthy follows YAML intuition: Null, empty collections, empty strings,
// false and numeric zero are false.
func (node Node) Truthy() bool {
	switch node.kind {
	case KindMapping:
		return len(node.entries) > 0
	case KindSequence:
		return len(node.items) > 0
	case KindScalar:
		switch node.tag {
		case boolTagConstant:
			return strings.EqualFold(node.text, trueLiteralConstant)
		case intTagConstant, floatTagConstant:
			numericValue, parseError := strconv.ParseFloat(node.text, 64)
			return parseError != nil || numericValue != 0
		default:
			return len(node.text) > 0
		}
	default:
		return false
	}
}
