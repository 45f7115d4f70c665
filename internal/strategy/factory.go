package strategy

import (
	"errors"

	"agent-control-plane/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType   = errors.New("unknown strategy type")
	ErrMissingMarket         = errors.New("strategy requires Market")
	ErrMissingBaseSize       = errors.New("strategy requires BaseSizeUSD")
	ErrMissingEntryChangePct = errors.New("MOMENTUM requires EntryChangePct")
	ErrMissingReferencePrice = errors.New("MEAN_REVERSION requires ReferencePrice")
	ErrMissingBandPct        = errors.New("MEAN_REVERSION requires BandPct")
)

// FromConfig creates a Strategy from domain.StrategyConfig.
// Validates required parameters per strategy type.
func FromConfig(cfg domain.StrategyConfig) (Strategy, error) {
	if cfg.Market == "" {
		return nil, ErrMissingMarket
	}
	if cfg.BaseSizeUSD == nil {
		return nil, ErrMissingBaseSize
	}

	switch cfg.StrategyType {
	case domain.StrategyTypeMomentum:
		return fromMomentumConfig(cfg)
	case domain.StrategyTypeMeanReversion:
		return fromMeanReversionConfig(cfg)
	default:
		return nil, ErrUnknownStrategyType
	}
}

// fromMomentumConfig creates MomentumStrategy from config.
func fromMomentumConfig(cfg domain.StrategyConfig) (*MomentumStrategy, error) {
	if cfg.EntryChangePct == nil {
		return nil, ErrMissingEntryChangePct
	}

	return NewMomentumStrategy(cfg.Market, *cfg.EntryChangePct, *cfg.BaseSizeUSD, cfg.Leverage), nil
}

// fromMeanReversionConfig creates MeanReversionStrategy from config.
func fromMeanReversionConfig(cfg domain.StrategyConfig) (*MeanReversionStrategy, error) {
	if cfg.ReferencePrice == nil {
		return nil, ErrMissingReferencePrice
	}
	if cfg.BandPct == nil {
		return nil, ErrMissingBandPct
	}

	return NewMeanReversionStrategy(
		cfg.Market,
		*cfg.ReferencePrice,
		*cfg.BandPct,
		*cfg.BaseSizeUSD,
		cfg.Leverage,
	), nil
}
