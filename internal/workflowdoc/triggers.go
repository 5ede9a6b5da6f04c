package workflowdoc

const triggersKeyConstant = "on"

// Triggers is the normalized set of events declared under "on".
type Triggers struct {
	names   []string
	configs map[string]Node
}

// NormalizeTriggers reads "on" from a workflow root. A string yields one
// event, a sequence yields its scalar items, a mapping yields its keys, and
// Null or any other shape yields no events.
func NormalizeTriggers(workflow Node) Triggers {
	triggers := Triggers{configs: map[string]Node{}}
	declaration := workflow.Get(triggersKeyConstant)

	switch declaration.Kind() {
	case KindScalar:
		triggers.add(declaration.Text(), NullNode())
	case KindSequence:
		for _, item := range declaration.Items() {
			if item.IsScalar() {
				triggers.add(item.Text(), NullNode())
			}
		}
	case KindMapping:
		for _, entry := range declaration.Entries() {
			triggers.add(entry.Key, entry.Value)
		}
	}
	return triggers
}

func (triggers *Triggers) add(name string, configuration Node) {
	if _, exists := triggers.configs[name]; exists {
		return
	}
	triggers.names = append(triggers.names, name)
	triggers.configs[name] = configuration
}

// Contains reports whether the event is declared.
func (triggers Triggers) Contains(name string) bool {
	_, exists := triggers.configs[name]
	return exists
}

// Config returns the configuration attached to an event, Null when absent.
func (triggers Triggers) Config(name string) Node {
	configuration, exists := triggers.configs[name]
	if !exists {
		return NullNode()
	}
	return configuration
}

// Names lists the events in declaration order.
func (triggers Triggers) Names() []string {
	copied := make([]string, len(triggers.names))
	copy(copied, triggers.names)
	return copied
}

// IsEmpty reports whether no events are declared.
func (triggers Triggers) IsEmpty() bool {
	return len(triggers.names) == 0
}
