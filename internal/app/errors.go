package service

import "errors"

// ErrSeriesTooShort is returned when a backtest split leaves an empty side.
var ErrSeriesTooShort = errors.New("series too short to split")
