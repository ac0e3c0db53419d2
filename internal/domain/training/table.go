package training

import (
	"github.com/okian/trendcast/internal/domain/arima"
	"github.com/okian/trendcast/internal/domain/sport"
)

// Spec is the configured order for one pair. A nil Seasonal means plain ARIMA.
type Spec struct {
	Order    arima.Order
	Seasonal *arima.SeasonalOrder
}

// Table maps a (sport, kind) pair to its order.
type Table map[sport.Key]Spec

func plain(p, d, q int) Spec {
	return Spec{Order: arima.Order{P: p, D: d, Q: q}}
}

func seasonal(p, d, q, sp, sd, sq, m int) Spec {
	return Spec{
		Order:    arima.Order{P: p, D: d, Q: q},
		Seasonal: &arima.SeasonalOrder{P: sp, D: sd, Q: sq, M: m},
	}
}

// DefaultTable returns the shipped orders.
func DefaultTable() Table {
	return Table{
		{Sport: sport.Football, Kind: sport.ARIMA}:    plain(2, 1, 2),
		{Sport: sport.Football, Kind: sport.SARIMA}:   seasonal(1, 1, 1, 1, 1, 1, 12),
		{Sport: sport.Basketball, Kind: sport.ARIMA}:  plain(2, 1, 1),
		{Sport: sport.Basketball, Kind: sport.SARIMA}: seasonal(1, 1, 1, 0, 1, 1, 12),
		{Sport: sport.Cricket, Kind: sport.ARIMA}:     plain(1, 1, 2),
		{Sport: sport.Cricket, Kind: sport.SARIMA}:    seasonal(1, 1, 0, 1, 1, 0, 12),
		{Sport: sport.Tennis, Kind: sport.ARIMA}:      plain(1, 1, 1),
		{Sport: sport.Tennis, Kind: sport.SARIMA}:     seasonal(1, 1, 1, 1, 0, 1, 12),
	}
}
