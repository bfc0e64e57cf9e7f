package simulator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"TitaniumDesk/internal/domain/models"
)

func TestStepChangePctIdentity(t *testing.T) {
	e := New(DefaultConfig(), rand.New(rand.NewSource(42)))
	now := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	prev := e.Price()
	for i := 0; i < 1000; i++ {
		tick := e.Step(now.Add(time.Duration(i) * time.Second))
		if tick.Ticker.ChangePct != tick.Delta/tick.Ticker.Price {
			t.Fatalf("tick %d: change_pct %v != delta/price %v", i, tick.Ticker.ChangePct, tick.Delta/tick.Ticker.Price)
		}
		if math.Abs(tick.Delta) > 1.25 {
			t.Fatalf("tick %d: step %v out of range", i, tick.Delta)
		}
		if math.Abs(tick.Ticker.Price-(prev+tick.Delta)) > 1e-9 {
			t.Fatalf("tick %d: price did not follow the walk", i)
		}
		if tick.Ticker.Volatility < 0.12 || tick.Ticker.Volatility >= 0.17 {
			t.Fatalf("tick %d: volatility %v outside band", i, tick.Ticker.Volatility)
		}
		prev = tick.Ticker.Price
	}
}

func TestStepDeterministicForSeed(t *testing.T) {
	a := New(DefaultConfig(), rand.New(rand.NewSource(7)))
	b := New(DefaultConfig(), rand.New(rand.NewSource(7)))
	now := time.Unix(0, 0)
	for i := 0; i < 50; i++ {
		ta, tb := a.Step(now), b.Step(now)
		if ta.Ticker != tb.Ticker || ta.Account != tb.Account {
			t.Fatalf("tick %d diverged", i)
		}
	}
}

func TestRegimeFlipsRarelyWithMappedAction(t *testing.T) {
	e := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	flips := 0
	const n = 10000
	for i := 0; i < n; i++ {
		tick := e.Step(time.Unix(int64(i), 0))
		if tick.Regime == nil {
			continue
		}
		flips++
		r := tick.Regime
		if !r.Label.Valid() {
			t.Fatalf("invalid label %q", r.Label)
		}
		if r.Action != models.ActionFor(r.Label) {
			t.Fatalf("label %s mapped to %s", r.Label, r.Action)
		}
		if r.Probabilities != Probabilities {
			t.Fatalf("probabilities should be the fixed vector, got %+v", r.Probabilities)
		}
		if r.Score < 0 || r.Score >= 1 {
			t.Fatalf("score %v out of range", r.Score)
		}
	}
	rate := float64(flips) / n
	if rate < 0.08 || rate > 0.12 {
		t.Fatalf("flip rate %v far from 0.1", rate)
	}
}

func TestAccountIsAffineInPrice(t *testing.T) {
	e := New(DefaultConfig(), rand.New(rand.NewSource(3)))
	tick := e.Step(time.Unix(0, 0))
	pnl := (tick.Ticker.Price - 2000) * 10
	want := models.Account{
		Equity:      100000 + pnl,
		Cash:        50000,
		DailyPnl:    pnl,
		DailyPnlPct: pnl / 100000,
		BuyingPower: 400000,
	}
	if tick.Account != want {
		t.Fatalf("unexpected account %+v want %+v", tick.Account, want)
	}
}

func TestStepStampsTickerTime(t *testing.T) {
	e := New(DefaultConfig(), rand.New(rand.NewSource(3)))
	now := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	tick := e.Step(now)
	if tick.Ticker.Symbol != "XAU/USD" || !tick.Ticker.Time().Equal(now) {
		t.Fatalf("unexpected ticker %+v", tick.Ticker)
	}
}
