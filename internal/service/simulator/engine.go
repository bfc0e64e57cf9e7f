package simulator

import (
	"math/rand"
	"time"

	"TitaniumDesk/internal/domain/models"
)

// Config holds the fixed parameters of the offline feed.
type Config struct {
	Symbol         string
	StartPrice     float64
	ReferencePrice float64 // price at which simulated PnL is zero
	BaseEquity     float64
	Cash           float64
	BuyingPower    float64
	PnlPerPoint    float64
	StepRange      float64 // full width of the uniform price step
	VolFloor       float64
	VolBand        float64
	RegimeFlipProb float64
}

// DefaultConfig mirrors the desk's gold feed.
func DefaultConfig() Config {
	return Config{
		Symbol:         "XAU/USD",
		StartPrice:     2040.50,
		ReferencePrice: 2000,
		BaseEquity:     100000,
		Cash:           50000,
		BuyingPower:    400000,
		PnlPerPoint:    10,
		StepRange:      2.5,
		VolFloor:       0.12,
		VolBand:        0.05,
		RegimeFlipProb: 0.1,
	}
}

// Probabilities is the fixed vector attached to every simulated regime.
// It is illustrative and deliberately not renormalized against the draw.
var Probabilities = models.Probabilities{Bull: 0.3, Bear: 0.3, Chop: 0.4}

// Tick is one step of simulated data. Regime is nil unless the regime flipped.
type Tick struct {
	Ticker  models.Ticker
	Regime  *models.Regime
	Account models.Account
	Delta   float64
}

// Engine is a bounded random walk over price with derived account and
// regime data. It is not safe for concurrent use.
type Engine struct {
	cfg   Config
	rng   *rand.Rand
	price float64
}

// New creates an engine. A nil rng is seeded from the wall clock.
func New(cfg Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{cfg: cfg, rng: rng, price: cfg.StartPrice}
}

// Price returns the current simulated price.
func (e *Engine) Price() float64 { return e.price }

// Step advances the walk by one tick stamped at now.
func (e *Engine) Step(now time.Time) Tick {
	delta := (e.rng.Float64() - 0.5) * e.cfg.StepRange
	e.price += delta

	t := Tick{
		Delta: delta,
		Ticker: models.Ticker{
			Symbol:     e.cfg.Symbol,
			Price:      e.price,
			ChangePct:  delta / e.price,
			Volatility: e.cfg.VolFloor + e.rng.Float64()*e.cfg.VolBand,
			Timestamp:  models.Stamp(now),
		},
	}

	if e.rng.Float64() > 1-e.cfg.RegimeFlipProb {
		label := models.RegimeLabels[e.rng.Intn(len(models.RegimeLabels))]
		t.Regime = &models.Regime{
			Label:         label,
			Score:         e.rng.Float64(),
			Probabilities: Probabilities,
			Action:        models.ActionFor(label),
		}
	}

	t.Account = e.account()
	return t
}

func (e *Engine) account() models.Account {
	pnl := (e.price - e.cfg.ReferencePrice) * e.cfg.PnlPerPoint
	return models.Account{
		Equity:      e.cfg.BaseEquity + pnl,
		Cash:        e.cfg.Cash,
		DailyPnl:    pnl,
		DailyPnlPct: pnl / e.cfg.BaseEquity,
		BuyingPower: e.cfg.BuyingPower,
	}
}
