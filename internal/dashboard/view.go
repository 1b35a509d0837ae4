package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stocktracker/internal/page"
	"stocktracker/internal/query"
	"stocktracker/pkg/stocktracker"
)

// Styles.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	panelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	panelFocused   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tickerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	watchStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

// pctStyle picks the gain/loss color for a signed percent change.
func pctStyle(v float64) lipgloss.Style {
	if v < 0 {
		return lossStyle
	}
	return gainStyle
}

// View renders the full frame: header bar, scrolling viewport, footer bar.
// The auth screen is small enough to render without the viewport.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.screen == screenAuth {
		return m.renderAuth()
	}

	headerBar := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("4")).
		Render(padOrTrunc(m.headerText(), m.width))

	footerBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("8")).
		Render(padOrTrunc(m.footerText(), m.width))

	return headerBar + "\n" + m.viewport.View() + "\n" + footerBar
}

func (m Model) headerText() string {
	name := ""
	if u := m.session.User(); u != nil {
		name = u.Name
	}
	if m.screen == screenDetail {
		ticker := ""
		if m.detail != nil {
			ticker = m.detail.Ticker
		}
		return fmt.Sprintf(" Stock Tracker  %s    %s ", ticker, name)
	}
	window, ok := m.cache.Availability()
	rangeText := "loading..."
	if ok {
		rangeText = fmt.Sprintf("%s .. %s (%d days)", window.StartDate, window.EndDate, window.TotalDays)
	}
	status := ""
	if m.fetching {
		status = "    fetching..."
	}
	return fmt.Sprintf(" Stock Tracker    data: %s    %s%s ", rangeText, name, status)
}

func (m Model) footerText() string {
	if m.prompt != promptNone {
		return " enter apply  esc cancel"
	}
	if m.screen == screenDetail {
		return " esc back  w watch  n note  / search  q quit"
	}
	return " tab panel  left/right page  + size  1-6 periods  b/o sort  f sector  m mcap  d dates  / search  r reload  ctrl+l logout  q quit"
}

func (m Model) renderContent() string {
	if m.screen == screenDetail {
		return m.renderDetail()
	}
	return m.renderDashboard()
}

// ---------------------------------------------------------------------------
// Auth screen
// ---------------------------------------------------------------------------

func (m Model) renderAuth() string {
	var b strings.Builder
	b.WriteString("\n")
	if m.registerMode {
		b.WriteString(titleStyle.Render("  Stock Tracker — Register"))
	} else {
		b.WriteString(titleStyle.Render("  Stock Tracker — Login"))
	}
	b.WriteString("\n\n")
	for _, input := range m.inputs {
		b.WriteString("  " + input.View() + "\n")
	}
	b.WriteString("\n")
	if m.authBusy {
		b.WriteString(dimStyle.Render("  Signing in...") + "\n")
	}
	if m.authErr != "" {
		b.WriteString(errStyle.Render("  "+m.authErr) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  enter submit  tab next field  ctrl+r switch login/register  ctrl+c quit"))
	b.WriteString("\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Dashboard screen
// ---------------------------------------------------------------------------

func (m Model) renderDashboard() string {
	var b strings.Builder

	if m.booting {
		b.WriteString(dimStyle.Render("  Loading market data..."))
		b.WriteString("\n")
		return b.String()
	}
	if m.bootErr != "" {
		b.WriteString(errStyle.Render("  " + m.bootErr))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  press r to retry"))
		b.WriteString("\n")
		return b.String()
	}

	if m.prompt != promptNone {
		b.WriteString(promptStyle.Render("  > "))
		b.WriteString(m.promptInput.View())
		b.WriteString("\n\n")
	}
	if m.promptErr != "" {
		b.WriteString(errStyle.Render("  " + m.promptErr))
		b.WriteString("\n\n")
	}
	if m.paramErr != "" {
		b.WriteString(errStyle.Render("  " + m.paramErr))
		b.WriteString("\n\n")
	}

	set := m.movers.Set()
	m.renderMoversPanel(&b, "Top Gainers", set.Gainers, m.gainersPage, m.focus == panelGainers)
	b.WriteString("\n")
	m.renderMoversPanel(&b, "Top Losers", set.Losers, m.losersPage, m.focus == panelLosers)
	b.WriteString("\n")
	m.renderAnalysisPanel(&b)
	return b.String()
}

func (m Model) renderMoversPanel(b *strings.Builder, label string, rows []stocktracker.Stock, ctrl *page.Controller, focused bool) {
	writePanelLabel(b, label, ctrl, len(rows), focused)
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  (no data)"))
		b.WriteString("\n")
		return
	}

	period := m.cfg.Dashboard.MoversPeriod
	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-12s %-32s %12s %10s", "TICKER", "COMPANY", "PRICE", fmt.Sprintf("%dD%%", period))))
	b.WriteString("\n")
	for _, row := range page.VisibleSlice(ctrl, rows) {
		change, _ := row.Change(period)
		b.WriteString("  ")
		b.WriteString(tickerStyle.Render(fmt.Sprintf("%-12s", row.Ticker)))
		b.WriteString(fmt.Sprintf(" %-32s", trunc(row.CompanyName, 32)))
		b.WriteString(fmt.Sprintf(" %12s", FormatNumber(row.LatestPrice)))
		b.WriteString(pctStyle(change).Render(fmt.Sprintf(" %10s", FormatPct(change))))
		b.WriteString("\n")
	}
}

func (m Model) renderAnalysisPanel(b *strings.Builder) {
	rows := m.engine.Results()
	writePanelLabel(b, "Analysis", m.analysisPage, len(rows), m.focus == panelAnalysis)

	params := m.engine.Params()
	b.WriteString(dimStyle.Render("  " + describeParams(params)))
	b.WriteString("\n")

	if msg := m.engine.Err(); msg != "" {
		b.WriteString(errStyle.Render("  " + msg))
		b.WriteString("\n")
	}

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  No stocks match the current filters."))
		b.WriteString("\n")
		return
	}

	header := fmt.Sprintf("  %-12s %-28s %-20s %14s %10s", "TICKER", "COMPANY", "SECTOR", "MKT CAP", "PRICE")
	for _, p := range params.ChangePeriods {
		header += fmt.Sprintf(" %8s", fmt.Sprintf("%dD%%", p))
	}
	header += fmt.Sprintf(" %6s", "DATA%")
	b.WriteString(colHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, row := range page.VisibleSlice(m.analysisPage, rows) {
		b.WriteString("  ")
		b.WriteString(tickerStyle.Render(fmt.Sprintf("%-12s", row.Ticker)))
		b.WriteString(fmt.Sprintf(" %-28s", trunc(row.CompanyName, 28)))
		b.WriteString(fmt.Sprintf(" %-20s", trunc(row.Sector, 20)))
		b.WriteString(fmt.Sprintf(" %14s", FormatNumber(row.MarketCap)))
		b.WriteString(fmt.Sprintf(" %10s", FormatNumber(row.LatestPrice)))
		for _, p := range params.ChangePeriods {
			change, ok := row.Change(p)
			if !ok {
				b.WriteString(dimStyle.Render(fmt.Sprintf(" %8s", "-")))
				continue
			}
			b.WriteString(pctStyle(change).Render(fmt.Sprintf(" %8s", FormatPct(change))))
		}
		b.WriteString(fmt.Sprintf(" %5.1f%%", row.DataCompletenessPct))
		b.WriteString("\n")
	}

	summary := m.engine.Summary()
	if summary.TotalStocks > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf(
			"  %d stocks  full data: %d  partial: %d  avg completeness: %.1f%%",
			summary.TotalStocks,
			summary.StocksWithFullData,
			summary.StocksWithPartialData,
			summary.AvgDataCompleteness,
		)))
		b.WriteString("\n")
	}
}

func writePanelLabel(b *strings.Builder, label string, ctrl *page.Controller, total int, focused bool) {
	count := ctrl.PageCount(total)
	pos := "0/0"
	if count > 0 {
		pos = fmt.Sprintf("%d/%d", ctrl.Page(), count)
	}
	text := fmt.Sprintf("  %s  page %s  size %d  ", label, pos, ctrl.PageSize())
	if focused {
		b.WriteString(panelFocused.Render(text))
	} else {
		b.WriteString(panelStyle.Render(text))
	}
	b.WriteString("\n")
}

// describeParams renders the active query parameters on one line.
func describeParams(p query.Params) string {
	parts := []string{
		fmt.Sprintf("%s .. %s", p.StartDate, p.EndDate),
		fmt.Sprintf("sort: %s %s", p.SortBy, p.SortOrder),
		fmt.Sprintf("periods: %s", joinInts(p.ChangePeriods)),
	}
	if p.Sector != "" {
		parts = append(parts, "sector: "+p.Sector)
	}
	if p.MarketCapMin != nil || p.MarketCapMax != nil {
		lo, hi := "-", "-"
		if p.MarketCapMin != nil {
			lo = FormatNumber(*p.MarketCapMin)
		}
		if p.MarketCapMax != nil {
			hi = FormatNumber(*p.MarketCapMax)
		}
		parts = append(parts, fmt.Sprintf("mcap: %s..%s", lo, hi))
	}
	return strings.Join(parts, "    ")
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

// ---------------------------------------------------------------------------
// Detail screen
// ---------------------------------------------------------------------------

func (m Model) renderDetail() string {
	var b strings.Builder

	if m.prompt != promptNone {
		b.WriteString(promptStyle.Render("  > "))
		b.WriteString(m.promptInput.View())
		b.WriteString("\n\n")
	}
	if m.promptErr != "" {
		b.WriteString(errStyle.Render("  " + m.promptErr))
		b.WriteString("\n\n")
	}

	if m.detailErr != "" {
		b.WriteString(errStyle.Render("  " + m.detailErr))
		b.WriteString("\n")
		return b.String()
	}
	if m.detail == nil {
		b.WriteString(dimStyle.Render("  Loading..."))
		b.WriteString("\n")
		return b.String()
	}
	s := *m.detail

	b.WriteString("  ")
	b.WriteString(tickerStyle.Render(s.Ticker))
	b.WriteString("  " + s.CompanyName)
	if m.watched {
		b.WriteString("  " + watchStyle.Render("[watching]"))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + s.Sector))
	b.WriteString("\n\n")

	writeField(&b, "Market Cap", FormatNumber(s.MarketCap)+" Cr")
	writeField(&b, "Latest Price", FormatNumber(s.LatestPrice))
	writeField(&b, "Price Date", FormatDate(s.LatestPriceDate))
	writeField(&b, "Completeness", fmt.Sprintf("%.1f%% (%d/%d days)", s.DataCompletenessPct, s.DaysWithPrice, s.TotalDays))
	b.WriteString("\n")

	if len(s.Changes) > 0 {
		b.WriteString(panelStyle.Render("  Price Changes"))
		b.WriteString("\n")
		for _, p := range query.DefaultPeriods {
			change, ok := s.Change(p)
			if !ok {
				continue
			}
			label := fmt.Sprintf("%d day", p)
			b.WriteString(fmt.Sprintf("  %-14s", label))
			b.WriteString(pctStyle(change).Render(FormatPct(change)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if s.Description != "" {
		b.WriteString("  " + s.Description + "\n\n")
	}
	if len(s.Products) > 0 {
		writeField(&b, "Products", strings.Join(s.Products, ", "))
	}
	if len(s.Promoters) > 0 {
		writeField(&b, "Promoters", strings.Join(s.Promoters, ", "))
	}
	if s.PromoterShare > 0 {
		writeField(&b, "Promoter Share", fmt.Sprintf("%.2f%%", s.PromoterShare))
	}
	if s.Debt > 0 {
		writeField(&b, "Debt", FormatNumber(s.Debt)+" Cr")
	}
	if s.Employees > 0 {
		writeField(&b, "Employees", FormatInt(s.Employees))
	}
	if s.Founded > 0 {
		writeField(&b, "Founded", fmt.Sprintf("%d", s.Founded))
	}

	if m.note != "" {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render("  Note"))
		b.WriteString("\n  " + m.note + "\n")
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-16s", label)))
	b.WriteString(value)
	b.WriteString("\n")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func padOrTrunc(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func trunc(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
