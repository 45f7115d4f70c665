package domain

import "time"

// Position is one open exposure held by an agent.
// Created on a filled buy; removed on a matching close or agent kill.
type Position struct {
	PositionID string
	AgentID    string

	Market string
	Side   IntentSide // buy (long) or sell (short)
	Amount float64    // base units

	EntryPrice    float64
	CurrentPrice  float64
	UnrealizedPnL float64

	// Optional exit levels
	StopLoss   float64
	TakeProfit float64

	OpenedAt time.Time
}

// MarkToMarket returns the current USD value of the position.
func (p *Position) MarkToMarket() float64 {
	price := p.CurrentPrice
	if price == 0 {
		price = p.EntryPrice
	}
	return p.Amount * price
}
