package alpaca

import (
	"context"
	"fmt"

	"portfolio_analyzer/internal/market"
	"portfolio_analyzer/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// positionsClient is the part of the Alpaca trading client we use.
type positionsClient interface {
	GetPositions() ([]alpaca.Position, error)
}

// Provider implements market.HoldingsProvider over Alpaca open positions.
type Provider struct {
	tradeClient positionsClient
}

// Ensure Provider implements the interface
var _ market.HoldingsProvider = (*Provider)(nil)

// NewProvider returns a new Alpaca provider. Empty credentials make the SDK
// fall back to the APCA_* environment variables.
func NewProvider(apiKey, apiSecret, baseURL string) *Provider {
	return &Provider{
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

// ListHoldings maps every open position to a holding. Alpaca has no sector
// information, so Sector stays empty.
func (p *Provider) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to list Alpaca positions: %w", err)
	}

	holdings := make([]models.Holding, 0, len(positions))
	for _, x := range positions {
		holdings = append(holdings, toHolding(x))
	}
	return holdings, nil
}

func toHolding(x alpaca.Position) models.Holding {
	// Pointer fields are nil outside market hours for some assets.
	current := x.AvgEntryPrice
	if x.CurrentPrice != nil {
		current = *x.CurrentPrice
	}
	pnl := current.Sub(x.AvgEntryPrice).Mul(x.Qty)
	if x.UnrealizedPL != nil {
		pnl = *x.UnrealizedPL
	}

	return models.Holding{
		Symbol:       x.Symbol,
		Quantity:     x.Qty,           // decimal.Decimal (value)
		AveragePrice: x.AvgEntryPrice, // decimal.Decimal (value)
		LastPrice:    current,
		PnL:          pnl,
	}
}
