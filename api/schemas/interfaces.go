package schemas

import (
	"context"
)

// -- Reasoning Oracle --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced capabilities.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions controls the text generation process of the LLM.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // Asks the model for a JSON response body.
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
}

// GenerationRequest encapsulates a complete request to the LLM.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient is the reasoning oracle used for planning and evaluation. The returned
// text carries no structural guarantees; callers must treat it as untrusted.
type LLMClient interface {
	// Generate produces a text completion for the request. It blocks until the
	// provider answers or ctx is done.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// -- Action Executor --

// ActionResult is the outcome of a single action invocation. Failures are
// reported as values (Succeeded=false) so the caller always has something to
// record.
type ActionResult struct {
	Succeeded bool           `json:"success"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ActionExecutor performs concrete operations on behalf of the agent.
//
// Invoke must never panic or return a Go error for bad input; unknown action
// names and invalid arguments come back as ActionResult{Succeeded: false}.
type ActionExecutor interface {
	Invoke(ctx context.Context, actionName string, arguments map[string]any) ActionResult
}

// ActionParameter describes one argument accepted by an action.
type ActionParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ActionDefinition advertises an action to the oracle.
type ActionDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  []ActionParameter `json:"parameters"`
}

// ActionCatalog is implemented by executors that can list the actions they
// dispatch. The same list is rendered into every oracle prompt.
type ActionCatalog interface {
	Definitions() []ActionDefinition
}
