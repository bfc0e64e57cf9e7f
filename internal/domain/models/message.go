package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

type EventType string

const (
	EventTicker       EventType = "TICKER"
	EventRegime       EventType = "REGIME"
	EventAccount      EventType = "ACCOUNT"
	EventLog          EventType = "LOG"
	EventTradeHistory EventType = "TRADE_HISTORY"
	EventSystemStatus EventType = "SYSTEM_STATUS"
)

// EventTypes is the closed set of inbound event types.
var EventTypes = []EventType{EventTicker, EventRegime, EventAccount, EventLog, EventTradeHistory, EventSystemStatus}

var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrUnknownEventType = errors.New("unknown event type")
)

// Envelope is the raw {type, data} frame exchanged with the backend.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is a decoded envelope. Exactly one payload field is set, matching Type.
type Event struct {
	Type    EventType
	Ticker  *Ticker
	Regime  *Regime
	Account *Account
	Log     *LogEntry
	Trades  []Trade
	Status  *ConnectionPatch
}

// DecodeEvent parses one inbound text frame.
func DecodeEvent(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return env.Decode()
}

// Decode unpacks Data into the typed payload for Type.
func (e Envelope) Decode() (Event, error) {
	ev := Event{Type: e.Type}
	var target any
	switch e.Type {
	case EventTicker:
		ev.Ticker = &Ticker{}
		target = ev.Ticker
	case EventRegime:
		ev.Regime = &Regime{}
		target = ev.Regime
	case EventAccount:
		ev.Account = &Account{}
		target = ev.Account
	case EventLog:
		ev.Log = &LogEntry{}
		target = ev.Log
	case EventTradeHistory:
		target = &ev.Trades
	case EventSystemStatus:
		ev.Status = &ConnectionPatch{}
		target = ev.Status
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	if len(e.Data) > 0 {
		if err := json.Unmarshal(e.Data, target); err != nil {
			return Event{}, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, e.Type, err)
		}
	}
	if ev.Type == EventTradeHistory && ev.Trades == nil {
		ev.Trades = []Trade{}
	}
	return ev, nil
}

// Payload returns the typed payload carried by the event.
func (e Event) Payload() any {
	switch e.Type {
	case EventTicker:
		return e.Ticker
	case EventRegime:
		return e.Regime
	case EventAccount:
		return e.Account
	case EventLog:
		return e.Log
	case EventTradeHistory:
		return e.Trades
	case EventSystemStatus:
		return e.Status
	}
	return nil
}

// MarshalJSON renders the event back into its {type, data} envelope.
func (e Event) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Payload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Type, Data: data})
}

func TickerEvent(t Ticker) Event   { return Event{Type: EventTicker, Ticker: &t} }
func RegimeEvent(r Regime) Event   { return Event{Type: EventRegime, Regime: &r} }
func AccountEvent(a Account) Event { return Event{Type: EventAccount, Account: &a} }
func LogEvent(l LogEntry) Event    { return Event{Type: EventLog, Log: &l} }

func TradeHistoryEvent(trades []Trade) Event {
	if trades == nil {
		trades = []Trade{}
	}
	return Event{Type: EventTradeHistory, Trades: trades}
}

// StatusEvent builds the synthetic SYSTEM_STATUS the uplink announces on open and close.
func StatusEvent(connected bool) Event {
	return Event{Type: EventSystemStatus, Status: &ConnectionPatch{Connected: &connected}}
}

// EncodeOutbound flattens payload next to the type key ({"type": T, ...payload}).
// Payload keys win on collision.
func EncodeOutbound(msgType string, payload map[string]any) ([]byte, error) {
	out := make(map[string]any, len(payload)+1)
	out["type"] = msgType
	for k, v := range payload {
		out[k] = v
	}
	return json.Marshal(out)
}
