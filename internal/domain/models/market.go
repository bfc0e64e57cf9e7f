package models

import (
	"time"

	"TitaniumDesk/pkg/util"
)

type RegimeLabel string

const (
	RegimeBull RegimeLabel = "BULL"
	RegimeBear RegimeLabel = "BEAR"
	RegimeChop RegimeLabel = "CHOP"
)

// RegimeLabels lists labels in draw order for the simulator.
var RegimeLabels = []RegimeLabel{RegimeBull, RegimeBear, RegimeChop}

func (l RegimeLabel) Valid() bool {
	switch l {
	case RegimeBull, RegimeBear, RegimeChop:
		return true
	}
	return false
}

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ActionFor maps a regime label to its recommended action.
func ActionFor(l RegimeLabel) Action {
	switch l {
	case RegimeBull:
		return ActionBuy
	case RegimeBear:
		return ActionSell
	default:
		return ActionHold
	}
}

type LogLevel string

const (
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
	LevelTrade    LogLevel = "TRADE"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError, LevelCritical, LevelTrade:
		return true
	}
	return false
}

type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

type TradeStatus string

const (
	StatusFilled   TradeStatus = "filled"
	StatusNew      TradeStatus = "new"
	StatusCanceled TradeStatus = "canceled"
)

// OrderSide is the side accepted by the manual override endpoint.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

func (s OrderSide) Valid() bool { return s == OrderBuy || s == OrderSell }

type Ticker struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	ChangePct  float64 `json:"change_pct"`
	Volatility float64 `json:"volatility"`
	Timestamp  string  `json:"timestamp"`
}

// Time parses the ticker timestamp, falling back to the zero time.
func (t Ticker) Time() time.Time { return util.ParseTimeDefault(t.Timestamp, time.Time{}) }

type Probabilities struct {
	Bull float64 `json:"BULL"`
	Bear float64 `json:"BEAR"`
	Chop float64 `json:"CHOP"`
}

type Regime struct {
	Label         RegimeLabel   `json:"current_regime"`
	Score         float64       `json:"score"`
	Probabilities Probabilities `json:"probabilities"`
	Action        Action        `json:"action"`
}

type Account struct {
	Equity      float64 `json:"equity"`
	Cash        float64 `json:"cash"`
	DailyPnl    float64 `json:"daily_pnl"`
	DailyPnlPct float64 `json:"daily_pnl_pct"`
	BuyingPower float64 `json:"buying_power"`
}

type LogEntry struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
}

type Trade struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Side      TradeSide   `json:"side"`
	Qty       float64     `json:"qty"`
	Price     float64     `json:"price"`
	Timestamp string      `json:"timestamp"`
	Status    TradeStatus `json:"status"`
}

type ConnectionState struct {
	Connected  bool   `json:"isConnected"`
	Running    bool   `json:"isRunning"`
	LastUpdate string `json:"lastUpdate"`
}

// ConnectionPatch is the partial state carried by SYSTEM_STATUS. Absent fields stay nil.
type ConnectionPatch struct {
	Connected  *bool   `json:"isConnected,omitempty"`
	Running    *bool   `json:"isRunning,omitempty"`
	LastUpdate *string `json:"lastUpdate,omitempty"`
}

// Apply merges the present fields of p into s.
func (p ConnectionPatch) Apply(s ConnectionState) ConnectionState {
	if p.Connected != nil {
		s.Connected = *p.Connected
	}
	if p.Running != nil {
		s.Running = *p.Running
	}
	if p.LastUpdate != nil {
		s.LastUpdate = *p.LastUpdate
	}
	return s
}

// ChartPoint is one sample of the rolling price/regime chart.
type ChartPoint struct {
	Time        string  `json:"time"`
	Price       float64 `json:"price"`
	RegimeScore float64 `json:"regimeScore"`
}

// Stamp renders t the way the backend stamps events.
func Stamp(t time.Time) string { return util.FormatISO(t) }
