package presenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	gold  = lipgloss.Color("#D4AF37")
	green = lipgloss.Color("#10B981")
	red   = lipgloss.Color("#EF4444")
	teal  = lipgloss.Color("#14B8A6")
	muted = lipgloss.Color("#64748B")

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1).
			Width(24)

	cardTitleStyle = lipgloss.NewStyle().Foreground(muted)
	cardValueStyle = lipgloss.NewStyle().Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(gold).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(0, 1)

	simBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(gold).
			Padding(0, 1)
)

func toneColor(tone string) lipgloss.Color {
	switch tone {
	case "red":
		return red
	case "green":
		return green
	case "teal":
		return teal
	default:
		return muted
	}
}

func trendColor(t Trend) lipgloss.Color {
	switch t {
	case TrendUp:
		return green
	case TrendDown:
		return red
	default:
		return muted
	}
}

// RenderShell renders the status line shown above every view.
func RenderShell(s Shell) string {
	dot := lipgloss.NewStyle().Foreground(red).Render("●")
	if s.Online {
		dot = lipgloss.NewStyle().Foreground(green).Render("●")
	}
	parts := []string{headerStyle.UnsetMarginBottom().Render("TITANIUM"), dot, s.StatusLabel}
	if s.Simulated {
		parts = append(parts, simBadgeStyle.Render("SIMULATION"))
	}
	return strings.Join(parts, " ")
}

func RenderCards(cards []Card) string {
	blocks := make([]string, len(cards))
	for i, c := range cards {
		body := []string{
			cardTitleStyle.Render(strings.ToUpper(c.Title)),
			cardValueStyle.Render(c.Value),
		}
		if c.Sub != "" {
			body = append(body, lipgloss.NewStyle().Foreground(trendColor(c.Trend)).Render(c.Sub))
		}
		blocks[i] = cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func RenderChart(c ChartView) string {
	lines := []string{
		headerStyle.Render(c.Header),
		lipgloss.NewStyle().Foreground(green).Render(c.BullProb) + "  " +
			lipgloss.NewStyle().Foreground(red).Render(c.BearProb),
		fmt.Sprintf("samples %d  low %s  high %s", len(c.Points), c.Low, c.High),
	}
	if len(c.Points) > 0 {
		lines = append(lines, sparkline(c))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func sparkline(c ChartView) string {
	lo, hi := c.Points[0].Price, c.Points[0].Price
	for _, p := range c.Points {
		lo, hi = min(lo, p.Price), max(hi, p.Price)
	}
	var b strings.Builder
	for _, p := range c.Points {
		idx := len(sparkRunes) / 2
		if hi > lo {
			idx = int((p.Price - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return lipgloss.NewStyle().Foreground(gold).Render(b.String())
}

func RenderLogs(lines []LogLine) string {
	if len(lines) == 0 {
		return lipgloss.NewStyle().Italic(true).Foreground(muted).Render(LogPlaceholder)
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		level := lipgloss.NewStyle().Bold(true).Foreground(toneColor(l.Tone)).Render(string(l.Level))
		out[i] = fmt.Sprintf("%s %s %s", cardTitleStyle.Render(l.Time), level, l.Message)
	}
	return strings.Join(out, "\n")
}

var tradeColumns = []string{"Time", "Symbol", "Side", "Qty", "Price", "Status"}

func RenderTrades(t TradesView) string {
	if len(t.Rows) == 0 {
		return panelStyle.Render(strings.Join(tradeColumns, "  ") + "\n" +
			lipgloss.NewStyle().Foreground(muted).Render(t.Placeholder))
	}

	cells := make([][]string, 0, len(t.Rows)+1)
	cells = append(cells, tradeColumns)
	for _, r := range t.Rows {
		cells = append(cells, []string{r.Time, r.Symbol, r.Side, r.Qty, r.Price, r.Status})
	}
	widths := make([]int, len(tradeColumns))
	for _, row := range cells {
		for i, v := range row {
			widths[i] = max(widths[i], lipgloss.Width(v))
		}
	}

	lines := make([]string, len(cells))
	for ri, row := range cells {
		parts := make([]string, len(row))
		for i, v := range row {
			style := lipgloss.NewStyle().Width(widths[i])
			switch {
			case ri == 0:
				style = style.Foreground(muted)
			case i == 1:
				style = style.Bold(true).Foreground(gold)
			case i == 2:
				style = style.Bold(true).Foreground(toneColor(t.Rows[ri-1].Tone))
			}
			parts[i] = style.Render(v)
		}
		lines[ri] = strings.Join(parts, "  ")
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// RenderPage renders a full view for the terminal.
func RenderPage(p Page) string {
	sections := []string{RenderShell(p.Shell)}
	switch {
	case p.Placeholder != nil:
		sections = append(sections, headerStyle.Render(p.Placeholder.Title), p.Placeholder.Detail)
	case p.Trades != nil:
		sections = append(sections, headerStyle.Render("Execution History"), RenderTrades(*p.Trades))
	default:
		sections = append(sections, RenderCards(p.Cards))
		if p.Chart != nil {
			sections = append(sections, RenderChart(*p.Chart))
		}
		sections = append(sections, headerStyle.Render("SYSTEM LOG"), RenderLogs(p.Logs))
	}
	return strings.Join(sections, "\n\n")
}
