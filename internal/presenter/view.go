package presenter

import (
	"fmt"
	"strings"
	"time"

	"TitaniumDesk/internal/domain/models"
	"TitaniumDesk/internal/usecase"
	"TitaniumDesk/pkg/util"
)

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

const (
	ViewDashboard = "dashboard"
	ViewStrategy  = "strategy"
	ViewTrades    = "trades"
	ViewRisk      = "risk"
	ViewSettings  = "settings"

	DefaultSymbol    = "GLD"
	LogPlaceholder   = "Waiting for system logs..."
	TradePlaceholder = "No recent trades fetched."
)

type NavItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

var navItems = []NavItem{
	{ID: ViewDashboard, Label: "Live Desk"},
	{ID: ViewStrategy, Label: "Strategy"},
	{ID: ViewTrades, Label: "Execution"},
	{ID: ViewRisk, Label: "Risk Mgmt"},
	{ID: ViewSettings, Label: "Settings"},
}

// KnownView reports whether name is a navigation target.
func KnownView(name string) bool {
	for _, it := range navItems {
		if it.ID == name {
			return true
		}
	}
	return false
}

type Shell struct {
	Nav         []NavItem `json:"nav"`
	Online      bool      `json:"online"`
	StatusLabel string    `json:"status_label"`
	Simulated   bool      `json:"simulated"`
}

type Card struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Sub   string `json:"sub,omitempty"`
	Trend Trend  `json:"trend"`
}

type ChartView struct {
	Symbol   string              `json:"symbol"`
	Header   string              `json:"header"`
	BullProb string              `json:"bull_prob"`
	BearProb string              `json:"bear_prob"`
	Points   []models.ChartPoint `json:"points"`
	Labels   []string            `json:"labels"`
	Polyline string              `json:"polyline"`
	Low      string              `json:"low"`
	High     string              `json:"high"`
}

type LogLine struct {
	ID      string          `json:"id"`
	Time    string          `json:"time"`
	Level   models.LogLevel `json:"level"`
	Message string          `json:"message"`
	Tone    string          `json:"tone"`
}

type TradeRow struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Qty    string `json:"qty"`
	Price  string `json:"price"`
	Status string `json:"status"`
	Tone   string `json:"tone"`
}

type TradesView struct {
	Rows        []TradeRow `json:"rows"`
	Placeholder string     `json:"placeholder,omitempty"`
}

type PlaceholderView struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Page is everything needed to render one view.
type Page struct {
	View           string           `json:"view"`
	Shell          Shell            `json:"shell"`
	Cards          []Card           `json:"cards,omitempty"`
	Chart          *ChartView       `json:"chart,omitempty"`
	Logs           []LogLine        `json:"logs,omitempty"`
	LogPlaceholder string           `json:"log_placeholder,omitempty"`
	Trades         *TradesView      `json:"trades,omitempty"`
	Placeholder    *PlaceholderView `json:"placeholder,omitempty"`
}

// Build renders view from snap. Unknown views fall back to the dashboard.
func Build(snap usecase.Snapshot, view string, loc *time.Location) Page {
	if !KnownView(view) {
		view = ViewDashboard
	}
	p := Page{View: view, Shell: BuildShell(snap, view)}

	switch view {
	case ViewDashboard:
		p.Cards = Cards(snap)
		chart := Chart(snap, loc)
		p.Chart = &chart
		p.Logs = Logs(snap.Logs, 0, loc)
		if len(p.Logs) == 0 {
			p.LogPlaceholder = LogPlaceholder
		}
	case ViewTrades:
		t := Trades(snap.Trades, loc)
		p.Trades = &t
	default:
		p.Placeholder = &PlaceholderView{
			Title:  "Module Under Construction",
			Detail: fmt.Sprintf("Connect backend to unlock %s data streams.", view),
		}
	}
	return p
}

func BuildShell(snap usecase.Snapshot, active string) Shell {
	nav := make([]NavItem, len(navItems))
	for i, it := range navItems {
		it.Active = it.ID == active
		nav[i] = it
	}
	label := "Offline"
	if snap.System.Connected {
		label = "System Online"
	}
	return Shell{Nav: nav, Online: snap.System.Connected, StatusLabel: label, Simulated: snap.Simulated}
}

// Cards builds Total Equity, Live Price, HMM Regime and Buying Power in that order.
func Cards(snap usecase.Snapshot) []Card {
	equity := Card{Title: "Total Equity", Value: missing, Trend: TrendDown}
	power := Card{Title: "Buying Power", Value: missing, Sub: "Available Margin", Trend: TrendNeutral}
	if a := snap.Account; a != nil {
		equity.Value = money(a.Equity)
		equity.Sub = fmt.Sprintf("%s (%s)", signed(a.DailyPnl, 2), percent(a.DailyPnlPct, 2))
		if a.DailyPnl >= 0 {
			equity.Trend = TrendUp
		}
		power.Value = money(a.BuyingPower)
	}

	price := Card{Title: "Live Price", Value: missing, Trend: TrendNeutral}
	if t := snap.Ticker; t != nil {
		price.Value = "$" + fixed(t.Price, 2)
		price.Sub = "Vol: " + percent(t.Volatility, 2)
	}

	regime := Card{Title: "HMM Regime", Value: "INIT", Sub: "Model Loading", Trend: TrendNeutral}
	if r := snap.Regime; r != nil {
		regime.Value = string(r.Label)
		regime.Sub = "Score: " + fixed(r.Score, 3)
		switch r.Action {
		case models.ActionBuy:
			regime.Trend = TrendUp
		case models.ActionSell:
			regime.Trend = TrendDown
		}
	}

	return []Card{equity, price, regime, power}
}

const (
	chartWidth  = 600.0
	chartHeight = 200.0
)

func Chart(snap usecase.Snapshot, loc *time.Location) ChartView {
	c := ChartView{Symbol: DefaultSymbol, Points: snap.Chart, Labels: make([]string, len(snap.Chart))}
	if snap.Ticker != nil && snap.Ticker.Symbol != "" {
		c.Symbol = snap.Ticker.Symbol
	}
	c.Header = "LIVE MARKET FEED :: " + c.Symbol

	var bull, bear float64
	if snap.Regime != nil {
		bull, bear = snap.Regime.Probabilities.Bull, snap.Regime.Probabilities.Bear
	}
	c.BullProb = "BULL PROB: " + percent(bull, 0)
	c.BearProb = "BEAR PROB: " + percent(bear, 0)

	if len(snap.Chart) == 0 {
		c.Low, c.High = missing, missing
		return c
	}

	lo, hi := snap.Chart[0].Price, snap.Chart[0].Price
	for i, p := range snap.Chart {
		c.Labels[i] = util.ClockLabel(p.Time, loc)
		lo, hi = min(lo, p.Price), max(hi, p.Price)
	}
	c.Low, c.High = fixed(lo, 2), fixed(hi, 2)
	c.Polyline = polyline(snap.Chart, lo, hi)
	return c
}

func polyline(points []models.ChartPoint, lo, hi float64) string {
	step := 0.0
	if len(points) > 1 {
		step = chartWidth / float64(len(points)-1)
	}
	parts := make([]string, len(points))
	for i, p := range points {
		y := chartHeight / 2
		if hi > lo {
			y = chartHeight - (p.Price-lo)/(hi-lo)*chartHeight
		}
		parts[i] = fmt.Sprintf("%.1f,%.1f", float64(i)*step, y)
	}
	return strings.Join(parts, " ")
}

// Logs returns entries newest first, at most limit when limit > 0.
func Logs(entries []models.LogEntry, limit int, loc *time.Location) []LogLine {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LogLine, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		e := entries[i]
		out = append(out, LogLine{
			ID:      e.ID,
			Time:    util.ClockLabel(e.Timestamp, loc),
			Level:   e.Level,
			Message: e.Message,
			Tone:    logTone(e.Level),
		})
	}
	return out
}

func logTone(l models.LogLevel) string {
	switch l {
	case models.LevelError:
		return "red"
	case models.LevelTrade:
		return "teal"
	default:
		return "muted"
	}
}

func Trades(trades []models.Trade, loc *time.Location) TradesView {
	if len(trades) == 0 {
		return TradesView{Rows: []TradeRow{}, Placeholder: TradePlaceholder}
	}
	rows := make([]TradeRow, len(trades))
	for i, t := range trades {
		tone := "red"
		if t.Side == models.SideBuy {
			tone = "green"
		}
		rows[i] = TradeRow{
			ID:     t.ID,
			Time:   util.ClockLabel(t.Timestamp, loc),
			Symbol: t.Symbol,
			Side:   strings.ToUpper(string(t.Side)),
			Qty:    decimalString(t.Qty),
			Price:  "$" + fixed(t.Price, 2),
			Status: string(t.Status),
			Tone:   tone,
		}
	}
	return TradesView{Rows: rows}
}
