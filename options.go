package docmorph

// Option configures an Engine.
type Option func(*Engine)

// WithBlueprintStore sets the resource store container blueprints are read
// from. Without it only the built-in default blueprint is available.
func WithBlueprintStore(store BlueprintStore) Option {
	return func(e *Engine) {
		e.blueprints = store
	}
}

// WithDefaultTemplate sets the blueprint reference used by container writes
// when ConvertOptions.TemplateRef is empty.
func WithDefaultTemplate(ref string) Option {
	return func(e *Engine) {
		e.defaultTemplate = ref
	}
}

// WithStyles replaces default stylesheet rules per selector. Selectors not
// named keep their defaults.
func WithStyles(overrides map[string]string) Option {
	return func(e *Engine) {
		e.styles = e.styles.merge(overrides)
	}
}

// WithRenderer substitutes a full typesetting backend for fixed-layout
// output. Without it the minimal placeholder backend is used and writes
// carry a DegradedRendering warning.
func WithRenderer(r Renderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithPreviewer substitutes the fixed-layout read collaborator.
func WithPreviewer(p Previewer) Option {
	return func(e *Engine) {
		e.previewer = p
	}
}

// WithChartRenderer sets the collaborator that turns chart specs into image
// bytes, enabling ```chart fenced blocks in markdown input.
func WithChartRenderer(r ChartRenderer) Option {
	return func(e *Engine) {
		e.charts = r
	}
}

// WithKeepDataURIs configures whether full base64 data URIs survive in
// markdown output (default: false, which truncates them).
func WithKeepDataURIs(keep bool) Option {
	return func(e *Engine) {
		e.keepDataURIs = keep
	}
}

// ConvertOptions carries per-call configuration. The zero value is valid:
// all booleans default to false and nothing is required.
type ConvertOptions struct {
	// PreserveFormatting retains line-break-driven structure when degrading
	// to plain text.
	PreserveFormatting bool
	// IncludeStyles injects the stylesheet into hypertext output.
	IncludeStyles bool
	// CustomStyles overrides stylesheet rules per selector for this call.
	CustomStyles map[string]string
	// PreserveImages inlines embedded images as data URIs when reading the
	// container format; when false they are dropped with a warning.
	PreserveImages bool
	// ImageBasePath resolves relative image references in hypertext input.
	ImageBasePath string
	// OutputPath, when set, writes the produced payload to storage in
	// addition to returning it.
	OutputPath string
	// Metadata is bound into container blueprint placeholders by name.
	Metadata map[string]string
	// TemplateRef names the container blueprint to bind against; empty
	// selects the engine default.
	TemplateRef string
}
