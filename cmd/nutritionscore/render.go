package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/franckalain/nutritionscore/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Width(18)
	finalStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	gradeColors = map[string]lipgloss.Color{
		"A": lipgloss.Color("28"),
		"B": lipgloss.Color("112"),
		"C": lipgloss.Color("220"),
		"D": lipgloss.Color("208"),
		"E": lipgloss.Color("196"),
	}
)

func gradeStyle(grade string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := gradeColors[grade]; ok {
		style = style.Foreground(c)
	}
	return style
}

// renderResult writes a human readable summary of one result
func renderResult(w io.Writer, name string, res *models.ScoreResult) {
	var b strings.Builder

	b.WriteString(titleStyle.Render(name) + "\n")
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	row("Food type", string(res.FoodType))
	row("Nutri-Score", fmt.Sprintf("%d (grade %s)", res.NutriScore, gradeStyle(res.NutriScoreGrade).Render(res.NutriScoreGrade)))
	row("Scaled", fmt.Sprintf("%d/100", res.Scaled100))

	additives := make([]string, 0, len(res.Additives))
	for _, a := range res.Additives {
		additives = append(additives, fmt.Sprintf("%s (%s)", a.ENumber, a.Risk))
	}
	if len(additives) == 0 {
		additives = append(additives, "none")
	}
	row("Additives", strings.Join(additives, ", "))
	row("Additive penalty", fmt.Sprintf("-%d", res.AdditivesRisk))
	row("Organic penalty", fmt.Sprintf("-%d", res.OrganicPenalty))
	row("Final score", finalStyle.Render(fmt.Sprintf("%d/100", res.FinalScore)))

	fmt.Fprintln(w, b.String())
}
