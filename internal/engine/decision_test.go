package engine

import (
	"math"
	"testing"

	"solana-copy-engine/internal/domain"
)

func testSession() *domain.SessionContext {
	return &domain.SessionContext{
		UserID:              "user-1",
		TokenPercent:        10,
		SlippageBps:         500,
		Targets:             []string{testActor},
		UseAcceleratedRelay: true,
	}
}

func TestDecide_Buy(t *testing.T) {
	event := &domain.TradeEvent{
		Signature:        "sig-buy",
		Actor:            testActor,
		Mint:             testMint,
		TokenPreAmount:   0,
		TokenPostAmount:  10,
		PoolPreLamports:  1_000_000_000,
		PoolPostLamports: 900_000_000,
	}

	intent := Decide(event, testSession())
	if intent == nil {
		t.Fatal("Decide returned nil, want buy intent")
	}
	if intent.Direction != domain.SwapDirectionBuy {
		t.Errorf("Direction = %s, want buy", intent.Direction)
	}
	if intent.Basis != domain.SizeBasisQuote {
		t.Errorf("Basis = %s, want quote", intent.Basis)
	}
	// 0.1 SOL moved through the pool, scaled by 10%.
	if math.Abs(intent.Amount-0.01) > 1e-12 {
		t.Errorf("Amount = %f, want 0.01", intent.Amount)
	}
	if intent.SlippageBps != 500 {
		t.Errorf("SlippageBps = %d, want 500", intent.SlippageBps)
	}
	if !intent.UseAcceleratedRelay {
		t.Error("UseAcceleratedRelay = false, want true")
	}
}

// The pool lamport delta direction depends on which account resolved as the
// pool; the buy sizing uses the magnitude either way.
func TestDecide_BuyPoolDeltaSign(t *testing.T) {
	up := &domain.TradeEvent{
		TokenPreAmount: 0, TokenPostAmount: 10,
		PoolPreLamports: 900_000_000, PoolPostLamports: 1_000_000_000,
	}
	down := &domain.TradeEvent{
		TokenPreAmount: 0, TokenPostAmount: 10,
		PoolPreLamports: 1_000_000_000, PoolPostLamports: 900_000_000,
	}

	a := Decide(up, testSession())
	b := Decide(down, testSession())
	if a == nil || b == nil {
		t.Fatal("Decide returned nil for a valid buy")
	}
	if a.Amount != b.Amount {
		t.Errorf("amounts differ by delta sign: %f vs %f", a.Amount, b.Amount)
	}
}

func TestDecide_Sell(t *testing.T) {
	event := &domain.TradeEvent{
		Signature:       "sig-sell",
		Actor:           testActor,
		Mint:            testMint,
		TokenPreAmount:  10,
		TokenPostAmount: 4,
	}

	intent := Decide(event, testSession())
	if intent == nil {
		t.Fatal("Decide returned nil, want sell intent")
	}
	if intent.Direction != domain.SwapDirectionSell {
		t.Errorf("Direction = %s, want sell", intent.Direction)
	}
	if intent.Basis != domain.SizeBasisBase {
		t.Errorf("Basis = %s, want base", intent.Basis)
	}
	// 6 tokens sold, scaled by 10%.
	if math.Abs(intent.Amount-0.6) > 1e-12 {
		t.Errorf("Amount = %f, want 0.6", intent.Amount)
	}
}

func TestDecide_ZeroDelta(t *testing.T) {
	event := &domain.TradeEvent{
		TokenPreAmount:   5,
		TokenPostAmount:  5,
		PoolPreLamports:  1_000_000_000,
		PoolPostLamports: 900_000_000,
	}

	if intent := Decide(event, testSession()); intent != nil {
		t.Errorf("Decide = %+v, want nil for zero delta", intent)
	}
}

func TestDecide_ZeroPoolDelta(t *testing.T) {
	event := &domain.TradeEvent{
		TokenPreAmount:   0,
		TokenPostAmount:  10,
		PoolPreLamports:  1_000_000_000,
		PoolPostLamports: 1_000_000_000,
	}

	if intent := Decide(event, testSession()); intent != nil {
		t.Errorf("Decide = %+v, want nil when no SOL moved", intent)
	}
}
