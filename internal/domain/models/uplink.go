package models

// LinkState is the uplink connection state.
type LinkState string

const (
	LinkDisconnected LinkState = "DISCONNECTED"
	LinkConnecting   LinkState = "CONNECTING"
	LinkOpen         LinkState = "OPEN"
	LinkExhausted    LinkState = "EXHAUSTED" // retries used up, terminal
	LinkClosed       LinkState = "CLOSED"    // torn down by the owner, terminal
)

// Terminal reports whether no further connection attempts will be made.
func (s LinkState) Terminal() bool { return s == LinkExhausted || s == LinkClosed }

// UplinkStats is a point-in-time view of the uplink client.
type UplinkStats struct {
	State     LinkState `json:"state"`
	URL       string    `json:"url"`
	Attempts  int       `json:"attempts"`
	Opens     int       `json:"opens"`
	Dropped   int       `json:"dropped"`
	LastError string    `json:"last_error,omitempty"`
}
