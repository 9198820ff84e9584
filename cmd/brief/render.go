package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/chain-brief/pkg/brief"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).
			Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dimStyle = lipgloss.NewStyle().Faint(true)

	severityColor = map[brief.Severity]*color.Color{
		brief.SeverityCritical: color.New(color.FgRed, color.Bold),
		brief.SeverityWarning:  color.New(color.FgYellow),
		brief.SeverityInfo:     color.New(color.FgCyan),
		brief.SeveritySuccess:  color.New(color.FgGreen),
	}
)

func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return color.New(color.FgRed, color.Bold)
	case score >= 55:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func render(w io.Writer, r *brief.BriefResult) {
	title := fmt.Sprintf("%s  %s on %s", brief.Abbrev(r.Target.Address), r.Target.Kind, r.Target.Chain)
	fmt.Fprintln(w, headerStyle.Render(title))
	fmt.Fprintf(w, "Risk score: %s\n\n", scoreColor(r.RiskScore).Sprintf("%d/100", r.RiskScore))

	fmt.Fprintln(w, r.Narrative.Summary)
	fmt.Fprintln(w, r.Narrative.Explanation)
	fmt.Fprintln(w)

	if len(r.Findings) > 0 {
		fmt.Fprintln(w, "Findings:")
		for _, f := range r.Findings {
			c, ok := severityColor[f.Severity]
			if !ok {
				c = color.New(color.Reset)
			}
			fmt.Fprintf(w, "  %s %s\n", c.Sprintf("%-8s", strings.ToUpper(string(f.Severity))), f.Text)
		}
		fmt.Fprintln(w)
	}

	if len(r.Evidence) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Module", "Evidence", "Value", "Link"})
		table.SetAutoWrapText(false)
		for _, e := range r.Evidence {
			table.Append([]string{string(e.Module), e.Label, e.Value, e.URL})
		}
		table.Render()
		fmt.Fprintln(w)
	}

	var sources []string
	for _, s := range r.Runtime.Sources {
		sources = append(sources, s.Source+"="+string(s.Status))
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("mode %s · narrative %s · %s",
		r.Runtime.Mode, r.Narrative.Source, strings.Join(sources, " "))))
}
