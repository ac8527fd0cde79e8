package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/japaniel/oewn/pkg/dictionary"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	lemmaStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	posStyle      = lipgloss.NewStyle().Italic(true).Foreground(colorMuted)
	labelStyle    = lipgloss.NewStyle().Bold(true)
	exampleStyle  = lipgloss.NewStyle().Italic(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorFail)
	indentedStyle = lipgloss.NewStyle().PaddingLeft(4)
)

func renderEntry(r dictionary.EntryResult) string {
	var b strings.Builder
	b.WriteString(lemmaStyle.Render(r.Lemma))
	b.WriteString(" ")
	b.WriteString(posStyle.Render(r.POS.String()))
	for _, p := range r.Pronunciations {
		ipa := "/" + p.Text + "/"
		if p.Variety != "" {
			ipa += " (" + p.Variety + ")"
		}
		b.WriteString("  " + mutedStyle.Render(ipa))
	}
	b.WriteString("\n")

	for i, s := range r.Senses {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, strings.Join(s.Definitions, "; "))
		var body []string
		for _, ex := range s.Examples {
			body = append(body, exampleStyle.Render(`"`+ex+`"`))
		}
		if len(s.Synonyms) > 0 {
			body = append(body, labelStyle.Render("synonyms: ")+strings.Join(s.Synonyms, ", "))
		}
		for _, g := range s.Relations {
			body = append(body, labelStyle.Render(strings.ReplaceAll(string(g.Type), "_", " ")+": ")+strings.Join(dictionary.Lemmas(g.Targets), ", "))
		}
		if len(body) > 0 {
			b.WriteString(indentedStyle.Render(strings.Join(body, "\n")))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatCount renders an integer string with thousands separators, or
// returns it unchanged when it is not a number.
func formatCount(s string) string {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return s
	}
	return humanize.Comma(n)
}
