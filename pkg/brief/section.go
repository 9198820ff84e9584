package brief

import "strings"

const (
	MaxFindings = 10
	MaxEvidence = 10
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
)

type Module string

const (
	ModuleContract Module = "contract"
	ModuleMarket   Module = "market"
	ModuleIntel    Module = "intel"
	ModuleHolders  Module = "holders"
)

type Finding struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
	Module   Module   `json:"module"`
}

type Evidence struct {
	Label  string `json:"label"`
	URL    string `json:"url"`
	Value  string `json:"value,omitempty"`
	Module Module `json:"module"`
}

// Section is the private accumulator of one enrichment module.
type Section struct {
	Module   Module
	Findings []Finding
	Evidence []Evidence
	Checks   []SourceCheck
}

func NewSection(m Module) *Section {
	return &Section{Module: m}
}

func (s *Section) Add(sev Severity, text string) {
	s.Findings = append(s.Findings, Finding{Severity: sev, Text: text, Module: s.Module})
}

// Link adds an evidence entry; entries without a URL are dropped.
func (s *Section) Link(label, url, value string) {
	if url == "" {
		return
	}
	s.Evidence = append(s.Evidence, Evidence{Label: label, URL: url, Value: value, Module: s.Module})
}

func (s *Section) Check(source string, status ProviderStatus, required bool, note string) {
	s.Checks = append(s.Checks, SourceCheck{Source: source, Status: status, Required: required, Note: note})
}

// Compose merges module sections in the given order and applies the
// finding and evidence caps. Nil sections are skipped.
func Compose(sections ...*Section) ([]Finding, []Evidence, []SourceCheck) {
	findings := make([]Finding, 0, MaxFindings)
	evidence := make([]Evidence, 0, MaxEvidence)
	var checks []SourceCheck
	for _, s := range sections {
		if s == nil {
			continue
		}
		for _, f := range s.Findings {
			if len(findings) < MaxFindings {
				findings = append(findings, f)
			}
		}
		for _, e := range s.Evidence {
			if len(evidence) < MaxEvidence {
				evidence = append(evidence, e)
			}
		}
		checks = append(checks, s.Checks...)
	}
	return findings, evidence, checks
}

// Risk-type entity keywords.
var riskEntityKeywords = []string{"mixer", "hacker", "exploit", "sanctioned", "scammer", "phishing"}

// IsRiskEntity reports whether an entity type matches a risk keyword.
func IsRiskEntity(entityType string) bool {
	t := strings.ToLower(entityType)
	if t == "" {
		return false
	}
	for _, k := range riskEntityKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// Abbrev shortens an address for display.
func Abbrev(addr string) string {
	if len(addr) > 12 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	}
	return addr
}
