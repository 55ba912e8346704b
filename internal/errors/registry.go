package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// State Runtime Errors (S001-S099)
	// ============================================

	"S001": {
		Category:   CategoryState,
		Message:    "State disposed while computing",
		Detail:     "A state cannot be disposed while a computation, a cleanup callback or a named state factory is executing, and parameter states are never disposed by callers.",
		Suggestion: "Dispose states from event handlers or scheduled callbacks.",
	},
	"S002": {
		Category:   CategoryState,
		Message:    "Illegal nesting",
		Detail:     "Update passes, top-level computations and tree nodes cannot be started from inside a running computation; leaf scopes cannot nest scopes; nodes can only be attached below an updatable node.",
		Suggestion: "Move the call out of the computation, or use Compute for nested derived values.",
	},
	"S003": {
		Category:   CategoryState,
		Message:    "Local state created outside a computation",
		Detail:     "Local states are owned by the scope that is currently computing. Without a running computation there is no scope to own them.",
		Suggestion: "Create a global state, or create the local state inside Compute or an updatable node.",
	},
	"S004": {
		Category: CategoryState,
		Message:  "Write rejected by value tracker",
		Detail:   "The OnUpdate hook of the state's value tracker refused the new value.",
	},
	"S005": {
		Category:   CategoryState,
		Message:    "State modified while computing",
		Detail:     "Writing a managed state from inside a running computation could feed back into the same update pass.",
		Suggestion: "Schedule the write with ScheduleCallback so it lands in the next frame.",
	},
	"S006": {
		Category: CategoryState,
		Message:  "Circular dependency detected",
		Detail:   "A computable state was read while it was being computed.",
	},
	"S007": {
		Category: CategoryState,
		Message:  "Named state not found",
		Detail:   "No state with this name is visible from the current scope or the global registry.",
	},
	"S008": {
		Category: CategoryState,
		Message:  "Named state type mismatch",
		Detail:   "The named state exists but holds a different value type.",
	},
	"S009": {
		Category:   CategoryState,
		Message:    "Stale context",
		Detail:     "A Context is only valid while its own computation is running.",
		Suggestion: "Use the Context passed to the innermost factory or updater.",
	},
	"S010": {
		Category: CategoryState,
		Message:  "State disposed",
		Detail:   "The computation was disposed and can no longer be evaluated.",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "An INCREMENTAL_* environment variable could not be parsed.",
	},

	// ============================================
	// Export Errors (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryExport,
		Message:  "Journal export failed",
		Detail:   "The journal could not be written to its store.",
	},
	"X002": {
		Category:   CategoryExport,
		Message:    "Unsupported export target",
		Detail:     "Export targets are local paths or s3://bucket/key URLs.",
		Suggestion: "Use --out ./journal.json or --out s3://bucket/journal.json",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template.
// Call it during initialization only.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
