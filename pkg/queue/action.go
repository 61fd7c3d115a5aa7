package queue

// Action is the tagged union the Project Queue routes to a project's
// lock . Exactly one of Improve/Stop is non-nil.
type Action struct {
	Improve *ImproveAction
	Stop    *StopAction
}

// ImproveAction starts a turn.
type ImproveAction struct {
	ProjectID        string
	TaskID           string
	Question         string
	SearchEnabled    *bool
	Attachments      []string
	AuthToken        string
	ProviderOverride *ProviderOverride
	CustomAgents     []CustomAgentSpec
}

// ProviderOverride is the inline provider config the caller may supply
// in place of fetching the preferred provider from Core .
type ProviderOverride struct {
	ProviderName string
	ModelType    string
	APIKey       string
	EndpointURL  string
	ExtraParams  map[string]any
}

// Complete reports whether the override carries everything needed to
// skip the Core provider lookup.
func (p *ProviderOverride) Complete() bool {
	return p != nil && p.ProviderName != "" && p.ModelType != "" && p.APIKey != ""
}

// CustomAgentSpec is a caller-supplied agent profile override, merged
// by case-insensitive name over the built-in roster .
type CustomAgentSpec struct {
	Name         string
	Description  string
	SystemPrompt string
	Tools        []string
}

// StopAction requests graceful cancellation of the in-flight turn for a
// project.
type StopAction struct {
	ProjectID string
	Reason    string
}

func NewImprove(a ImproveAction) Action { return Action{Improve: &a} }
func NewStop(a StopAction) Action       { return Action{Stop: &a} }
