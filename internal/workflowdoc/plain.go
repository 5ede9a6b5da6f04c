package workflowdoc

import (
	"strconv"
	"strings"
)

// PlainValue converts a node into the generic values produced by JSON
// decoding: map[string]any, []any, float64, bool, string and nil.
func PlainValue(node Node) any {
	switch node.Kind() {
	case KindMapping:
		values := make(map[string]any, node.Len())
		for _, entry := range node.Entries() {
			values[entry.Key] = PlainValue(entry.Value)
		}
		return values
	case KindSequence:
		values := make([]any, 0, node.Len())
		for _, item := range node.Items() {
			values = append(values, PlainValue(item))
		}
		return values
	case KindScalar:
		return plainScalar(node)
	default:
		return nil
	}
}

func plainScalar(node Node) any {
	switch node.Tag() {
	case boolTagConstant:
		return strings.EqualFold(node.Text(), trueLiteralConstant)
	case intTagConstant:
		if integerValue, parseError := strconv.ParseInt(strings.ReplaceAll(node.Text(), "_", ""), 0, 64); parseError == nil {
			return float64(integerValue)
		}
		return node.Text()
	case floatTagConstant:
		if floatValue, parseError := strconv.ParseFloat(node.Text(), 64); parseError == nil {
			return floatValue
		}
		return node.Text()
	default:
		return node.Text()
	}
}
