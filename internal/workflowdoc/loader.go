package workflowdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	fileNotFoundTemplateConstant      = "File not found: %s"
	syntaxErrorTemplateConstant       = "YAML parsing error: %s"
	shapeErrorMessageConstant         = "Workflow must be a YAML object/dictionary"
	readErrorTemplateConstant         = "Unable to read file %s: %s"
	mergeKeyTagConstant               = "!!merge"
	maximumAliasDepthConstant         = 64
	aliasDepthExceededMessageConstant = "alias nesting too deep"
	expansionExceededMessageConstant  = "document is too large after alias expansion"
	multipleDocumentsMessageConstant  = "expected a single document in the stream"
	minimumNodeBudgetConstant         = 10000
	aliasExpansionFactorConstant      = 100
)

// LoadErrorKind classifies loader failures.
type LoadErrorKind string

// Loader failure kinds.
const (
	LoadErrorNotFound LoadErrorKind = LoadErrorKind("not_found")
	LoadErrorRead     LoadErrorKind = LoadErrorKind("read")
	LoadErrorSyntax   LoadErrorKind = LoadErrorKind("syntax")
	LoadErrorShape    LoadErrorKind = LoadErrorKind("shape")
)

// LoadError reports why a workflow document could not be handed to the rules.
type LoadError struct {
	Kind  LoadErrorKind
	Path  string
	Cause error
}

// Error renders the terminal finding message for the failure.
func (loadError LoadError) Error() string {
	switch loadError.Kind {
	case LoadErrorNotFound:
		return fmt.Sprintf(fileNotFoundTemplateConstant, loadError.Path)
	case LoadErrorSyntax:
		return fmt.Sprintf(syntaxErrorTemplateConstant, causeText(loadError.Cause))
	case LoadErrorShape:
		return shapeErrorMessageConstant
	default:
		return fmt.Sprintf(readErrorTemplateConstant, loadError.Path, causeText(loadError.Cause))
	}
}

// Unwrap exposes the underlying cause.
func (loadError LoadError) Unwrap() error {
	return loadError.Cause
}

// Source is a loaded workflow document together with its raw text.
type Source struct {
	Path    string
	Content string
	Root    Node
}

// Load reads and parses the workflow at path. A document whose root is not a
// mapping is returned together with a LoadErrorShape error so callers can
// choose how strictly to treat it.
func Load(path string) (Source, error) {
	content, readError := os.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Source{Path: path}, LoadError{Kind: LoadErrorNotFound, Path: path, Cause: readError}
		}
		return Source{Path: path}, LoadError{Kind: LoadErrorRead, Path: path, Cause: readError}
	}
	return Parse(path, string(content))
}

// Parse builds a Source from in-memory content. Streams holding more than one
// document are rejected, and alias expansion is bounded relative to the size
// of the parsed document.
func Parse(path string, content string) (Source, error) {
	source := Source{Path: path, Content: content}

	document, decodingError := decodeSingleDocument(content)
	if decodingError != nil {
		return source, LoadError{Kind: LoadErrorSyntax, Path: path, Cause: decodingError}
	}

	converter := newNodeConverter(document)
	root, conversionError := converter.convert(document, 0)
	if conversionError != nil {
		return source, LoadError{Kind: LoadErrorSyntax, Path: path, Cause: conversionError}
	}
	source.Root = root

	if !root.IsMapping() {
		return source, LoadError{Kind: LoadErrorShape, Path: path}
	}
	return source, nil
}

func decodeSingleDocument(content string) (*yaml.Node, error) {
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(content)))

	var document yaml.Node
	if decodingError := decoder.Decode(&document); decodingError != nil {
		if errors.Is(decodingError, io.EOF) {
			return nil, nil
		}
		return nil, decodingError
	}

	var trailing yaml.Node
	trailingError := decoder.Decode(&trailing)
	switch {
	case errors.Is(trailingError, io.EOF):
		return &document, nil
	case trailingError != nil:
		return nil, trailingError
	default:
		return nil, errors.New(multipleDocumentsMessageConstant)
	}
}

// nodeConverter turns a yaml.Node tree into Nodes, charging every produced
// node against a budget so repeated aliases cannot expand without bound.
type nodeConverter struct {
	remaining int
}

func newNodeConverter(document *yaml.Node) *nodeConverter {
	budget := countParsedNodes(document) * aliasExpansionFactorConstant
	if budget < minimumNodeBudgetConstant {
		budget = minimumNodeBudgetConstant
	}
	return &nodeConverter{remaining: budget}
}

func countParsedNodes(yamlNode *yaml.Node) int {
	if yamlNode == nil {
		return 0
	}
	count := 1
	for _, child := range yamlNode.Content {
		count += countParsedNodes(child)
	}
	return count
}

func (converter *nodeConverter) convert(yamlNode *yaml.Node, depth int) (Node, error) {
	if yamlNode == nil {
		return NullNode(), nil
	}
	if depth > maximumAliasDepthConstant {
		return NullNode(), errors.New(aliasDepthExceededMessageConstant)
	}
	converter.remaining--
	if converter.remaining < 0 {
		return NullNode(), errors.New(expansionExceededMessageConstant)
	}

	switch yamlNode.Kind {
	case yaml.DocumentNode:
		if len(yamlNode.Content) == 0 {
			return NullNode(), nil
		}
		return converter.convert(yamlNode.Content[0], depth)
	case yaml.AliasNode:
		return converter.convert(yamlNode.Alias, depth+1)
	case yaml.SequenceNode:
		items := make([]Node, 0, len(yamlNode.Content))
		for _, child := range yamlNode.Content {
			item, itemError := converter.convert(child, depth)
			if itemError != nil {
				return NullNode(), itemError
			}
			items = append(items, item)
		}
		return SequenceNode(items...), nil
	case yaml.MappingNode:
		return converter.convertMapping(yamlNode, depth)
	case yaml.ScalarNode:
		tag := yamlNode.ShortTag()
		if tag == nullTagConstant {
			return NullNode(), nil
		}
		return ScalarNode(tag, yamlNode.Value), nil
	default:
		return NullNode(), nil
	}
}

func (converter *nodeConverter) convertMapping(yamlNode *yaml.Node, depth int) (Node, error) {
	entries := make([]Entry, 0, len(yamlNode.Content)/2)
	var merged []Entry

	for index := 0; index+1 < len(yamlNode.Content); index += 2 {
		keyNode := yamlNode.Content[index]
		value, valueError := converter.convert(yamlNode.Content[index+1], depth)
		if valueError != nil {
			return NullNode(), valueError
		}

		if keyNode.ShortTag() == mergeKeyTagConstant {
			merged = append(merged, mergeSources(value)...)
			continue
		}

		key, keyError := converter.convert(keyNode, depth)
		if keyError != nil {
			return NullNode(), keyError
		}
		entries = append(entries, Entry{Key: key.Text(), Value: value})
	}

	if len(merged) == 0 {
		return MappingNode(entries...), nil
	}

	explicit := MappingNode(entries...)
	combined := explicit.Entries()
	for _, mergedEntry := range merged {
		if explicit.ContainsKey(mergedEntry.Key) {
			continue
		}
		combined = append(combined, mergedEntry)
	}
	return firstWinsMapping(combined), nil
}

func mergeSources(value Node) []Entry {
	if value.IsMapping() {
		return value.Entries()
	}
	var entries []Entry
	for _, item := range value.Items() {
		entries = append(entries, item.Entries()...)
	}
	return entries
}

func firstWinsMapping(entries []Entry) Node {
	seen := make(map[string]struct{}, len(entries))
	ordered := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if _, exists := seen[entry.Key]; exists {
			continue
		}
		seen[entry.Key] = struct{}{}
		ordered = append(ordered, entry)
	}
	return Node{kind: KindMapping, entries: ordered}
}

func causeText(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}
