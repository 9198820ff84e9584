package brief

// ProviderStatus is what one source delivered for a request.
type ProviderStatus string

const (
	StatusLive         ProviderStatus = "live"
	StatusCached       ProviderStatus = "cached"
	StatusNone         ProviderStatus = "none"
	StatusUnconfigured ProviderStatus = "unconfigured"
)

// SourceCheck records a single source's status for the runtime report.
type SourceCheck struct {
	Source   string         `json:"source"`
	Status   ProviderStatus `json:"status"`
	Required bool           `json:"required"`
	Note     string         `json:"note,omitempty"`
}
