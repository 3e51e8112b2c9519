package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (R001-R099)
	// ============================================

	"R001": {
		Category:   CategoryRuntime,
		Message:    "Dependency cycle detected",
		Detail:     "A derivation read itself while it was being computed, directly or through other derivations.",
		Suggestion: "Break the cycle by reading one of the nodes with Peek or inside Untracked.",
	},
	"R002": {
		Category: CategoryRuntime,
		Message:  "Transaction not active",
		Detail:   "Only the innermost open transaction can be committed or aborted, and only once.",
	},
	"R003": {
		Category: CategoryRuntime,
		Message:  "Value unresolved",
		Detail:   "The node has no value yet. Set the atom or wait for its inputs to resolve.",
	},
	"R004": {
		Category: CategoryRuntime,
		Message:  "Event loop stopped",
		Detail:   "Work was submitted after the runtime's event loop exited.",
	},
	"R005": {
		Category: CategoryRuntime,
		Message:  "Task panicked",
		Detail:   "A function run on the event loop panicked. The loop recovered and kept running.",
	},

	// ============================================
	// Config Errors (R100-R199)
	// ============================================

	"R100": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "No derivable.json or derivable.yaml was found in the directory or its parents.",
		Suggestion: "Run 'derivable config init' to create one.",
	},
	"R101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file could not be parsed.",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config field holds a value outside its allowed range.",
	},
	"R103": {
		Category:   CategoryConfig,
		Message:    "Config file exists",
		Detail:     "Refusing to overwrite an existing config file.",
		Suggestion: "Pass --force to overwrite it.",
	},
	"R104": {
		Category: CategoryConfig,
		Message:  "Invalid seed file",
		Detail:   "The atom seed file could not be parsed. It must map atom names to values.",
	},

	// ============================================
	// CLI and Inspector Errors (R200-R299)
	// ============================================

	"R200": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command line flag holds an unsupported value.",
	},
	"R201": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The inspector server stopped with an error.",
	},
	"R210": {
		Category: CategoryInspect,
		Message:  "Node not found",
		Detail:   "No atom or derivation is registered under that name.",
	},
	"R211": {
		Category: CategoryInspect,
		Message:  "Node is read-only",
		Detail:   "Only atoms can be written. Derivations are computed from their inputs.",
	},
	"R212": {
		Category: CategoryInspect,
		Message:  "Invalid atom value",
		Detail:   "The value does not match the atom's type.",
	},
	"R213": {
		Category: CategoryInspect,
		Message:  "Transaction failed",
		Detail:   "A write in the transaction failed, so every write in it was rolled back.",
	},
	"R214": {
		Category: CategoryInspect,
		Message:  "Duplicate node name",
		Detail:   "A node with that name is already registered.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
