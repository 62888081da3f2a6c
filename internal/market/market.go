package market

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"portfolio_analyzer/internal/models"
)

// HoldingsProvider is where the analyzer gets positions from.
// A broker account and a local file are interchangeable behind it.
type HoldingsProvider interface {
	ListHoldings(ctx context.Context) ([]models.Holding, error)
}

// FileProvider reads holdings from a YAML or JSON file.
//
// The file is either a plain list of holdings or a mapping with a
// "holdings" list:
//
//	holdings:
//	  - symbol: INFY
//	    sector: IT
//	    quantity: 10
//	    average_price: 1500.50
//	    last_price: 1402.10
//	    pnl: -984    # optional, derived from prices when absent
type FileProvider struct {
	Path string
}

// Ensure FileProvider implements the interface
var _ HoldingsProvider = (*FileProvider)(nil)

// NewFileProvider returns a provider for path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// amount decodes a YAML scalar straight into a decimal so prices are not
// rounded through float64.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(value.Value, "_", ""))
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q", value.Line, value.Value)
	}
	a.Decimal = d
	return nil
}

type holdingRow struct {
	Symbol       string  `yaml:"symbol"`
	Sector       string  `yaml:"sector"`
	Quantity     amount  `yaml:"quantity"`
	AveragePrice amount  `yaml:"average_price"`
	LastPrice    amount  `yaml:"last_price"`
	PnL          *amount `yaml:"pnl"`
}

type holdingsFile struct {
	Holdings []holdingRow `yaml:"holdings"`
}

// ListHoldings reads and validates the file on every call.
func (p *FileProvider) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings file: %w", err)
	}

	holdings, err := ParseHoldings(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Path, err)
	}
	return holdings, nil
}

// ParseHoldings decodes a holdings document (YAML, or JSON as a YAML subset).
func ParseHoldings(data []byte) ([]models.Holding, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid holdings document: %w", err)
	}
	if len(root.Content) == 0 {
		return []models.Holding{}, nil
	}

	var rows []holdingRow
	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&rows); err != nil {
			return nil, fmt.Errorf("invalid holdings list: %w", err)
		}
	case yaml.MappingNode:
		var f holdingsFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("invalid holdings document: %w", err)
		}
		rows = f.Holdings
	default:
		return nil, fmt.Errorf("invalid holdings document: expected a list or a mapping")
	}

	holdings := make([]models.Holding, 0, len(rows))
	for i, r := range rows {
		h, err := r.toHolding()
		if err != nil {
			return nil, fmt.Errorf("holding %d: %w", i+1, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

func (r holdingRow) toHolding() (models.Holding, error) {
	symbol := strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return models.Holding{}, fmt.Errorf("symbol is required")
	}
	if r.Quantity.IsNegative() {
		return models.Holding{}, fmt.Errorf("%s: quantity cannot be negative", symbol)
	}
	if r.AveragePrice.IsNegative() || r.LastPrice.IsNegative() {
		return models.Holding{}, fmt.Errorf("%s: prices cannot be negative", symbol)
	}

	pnl := r.LastPrice.Sub(r.AveragePrice.Decimal).Mul(r.Quantity.Decimal)
	if r.PnL != nil {
		pnl = r.PnL.Decimal
	}

	return models.Holding{
		Symbol:       symbol,
		Sector:       strings.TrimSpace(r.Sector),
		Quantity:     r.Quantity.Decimal,
		AveragePrice: r.AveragePrice.Decimal,
		LastPrice:    r.LastPrice.Decimal,
		PnL:          pnl,
	}, nil
}
