// Package visualizer renders state machines as Mermaid state diagrams.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/statemachine"
)

// Visualizer errors.
var (
	ErrMachineNil     = errors.New("machine cannot be nil")
	ErrDefinitionNil  = errors.New("definition cannot be nil")
	ErrNoInitialState = errors.New("definition must have an initial state")
)

// GenerateMermaid converts a Machine to a Mermaid state diagram.
func GenerateMermaid(m *statemachine.Machine) (string, error) {
	return GenerateMermaidWithOptions(m, DefaultOptions())
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
// The [*] marker points at the initial state; HighlightCurrent marks the
// state the machine is in now.
func GenerateMermaidWithOptions(m *statemachine.Machine, opts Options) (string, error) {
	if m == nil {
		return "", ErrMachineNil
	}

	current := m.State()
	states := sortedStates(m.States())

	handled := make(map[string][]string, len(states))

	for _, state := range states {
		delegate, ok := m.Delegate(state)
		if !ok {
			continue
		}

		for _, action := range m.Actions() {
			if _, ok := delegate.Handler(action); ok {
				handled[state] = append(handled[state], action)
			}
		}
	}

	highlight := slices.Clone(opts.Highlight)
	if opts.HighlightCurrent {
		highlight = append(highlight, current)
	}

	return render(diagram{
		initial:   m.InitialState(),
		states:    states,
		handled:   handled,
		highlight: highlight,
	}, opts), nil
}

// GenerateMermaidFromDefinition renders a definition's states and initial
// state. Delegates are unknown at this point, so no actions are shown.
func GenerateMermaidFromDefinition(def *statemachine.Definition, opts Options) (string, error) {
	if def == nil {
		return "", ErrDefinitionNil
	}

	if def.InitialState == "" {
		return "", ErrNoInitialState
	}

	return render(diagram{
		initial:   def.InitialState,
		states:    sortedStates(def.States),
		highlight: opts.Highlight,
	}, opts), nil
}

// GenerateMermaidFromFile loads a YAML definition and renders it.
func GenerateMermaidFromFile(path string, opts Options) (string, error) {
	def, err := statemachine.LoadDefinition(path)
	if err != nil {
		return "", fmt.Errorf("failed to load definition: %w", err)
	}

	return GenerateMermaidFromDefinition(def, opts)
}

type diagram struct {
	initial   string
	states    []string
	handled   map[string][]string
	highlight []string
}

func render(d diagram, opts Options) string {
	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("stateDiagram-%s\n", direction))
	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", d.initial))

	highlightMap := make(map[string]bool, len(d.highlight))
	for _, state := range d.highlight {
		highlightMap[state] = true
	}

	edgeMap := make(map[string][]Edge)
	for _, edge := range opts.Edges {
		edgeMap[edge.From] = append(edgeMap[edge.From], edge)
	}

	for _, state := range d.states {
		actions := d.handled[state]

		if opts.ShowActions && len(actions) > 0 {
			sb.WriteString(fmt.Sprintf("    %s: %s\\n[%s]\n",
				state, state, strings.Join(actions, ", ")))
		} else {
			sb.WriteString(fmt.Sprintf("    %s\n", state))
		}

		switch {
		case highlightMap[state]:
			sb.WriteString(fmt.Sprintf("    class %s highlighted\n", state))
		case len(actions) > 0:
			sb.WriteString(fmt.Sprintf("    class %s actionState\n", state))
		}

		for _, edge := range edgeMap[state] {
			label := ""
			if edge.Action != "" {
				label = ": " + edge.Action
			}

			sb.WriteString(fmt.Sprintf("    %s --> %s%s\n", state, edge.To, label))
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef actionState fill:#e1f5ff,stroke:#01579b,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")

	sb.WriteString("```\n")

	return sb.String()
}

func sortedStates(states []string) []string {
	sorted := slices.Clone(states)
	natsort.Sort(sorted)

	return sorted
}
