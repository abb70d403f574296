package visualizer

// Edge is a transition drawn on the diagram. The machine itself does not
// declare transitions (handlers decide at runtime), so edges are supplied
// by the caller.
type Edge struct {
	From   string
	To     string
	Action string
}

// Options configures the visualization output.
type Options struct {
	// ShowActions lists the actions each state's delegate handles
	ShowActions bool

	// HighlightCurrent styles the machine's current state
	HighlightCurrent bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right)
	Direction string

	// Highlight styles additional states
	Highlight []string

	// Edges are drawn as labeled transitions between states
	Edges []Edge
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowActions:      true,
		HighlightCurrent: true,
		Direction:        "TD",
	}
}

// WithShowActions enables/disables action details.
func (o Options) WithShowActions(show bool) Options {
	o.ShowActions = show

	return o
}

// WithHighlightCurrent enables/disables styling of the current state.
func (o Options) WithHighlightCurrent(highlight bool) Options {
	o.HighlightCurrent = highlight

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlight sets states to highlight.
func (o Options) WithHighlight(states ...string) Options {
	o.Highlight = states

	return o
}

// WithEdges sets the transitions to draw.
func (o Options) WithEdges(edges ...Edge) Options {
	o.Edges = edges

	return o
}
