// Package sport holds the allow-lists for sports and model kinds and the
// mapping from a sport to the dataset column that feeds it.
package sport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSport is returned for sports outside the allow-list.
	ErrInvalidSport = errors.New("invalid sport selected")
	// ErrInvalidModel is returned for model kinds outside the allow-list.
	ErrInvalidModel = errors.New("invalid model type selected")
)

// Sport identifies a supported sport.
type Sport string

// Supported sports.
const (
	Football   Sport = "football"
	Basketball Sport = "basketball"
	Cricket    Sport = "cricket"
	Tennis     Sport = "tennis"
)

// ModelKind selects plain or seasonal ARIMA.
type ModelKind string

// Supported model kinds.
const (
	ARIMA  ModelKind = "arima"
	SARIMA ModelKind = "sarima"
)

// All returns every supported sport in a stable order.
func All() []Sport {
	return []Sport{Football, Basketball, Cricket, Tennis}
}

// Kinds returns every supported model kind.
func Kinds() []ModelKind {
	return []ModelKind{ARIMA, SARIMA}
}

// ParseSport lower-cases and trims s and checks it against the allow-list.
func ParseSport(s string) (Sport, error) {
	v := Sport(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All() {
		if v == known {
			return v, nil
		}
	}
	return "", ErrInvalidSport
}

// ParseModelKind lower-cases and trims s and checks it against the allow-list.
func ParseModelKind(s string) (ModelKind, error) {
	v := ModelKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if v == known {
			return v, nil
		}
	}
	return "", ErrInvalidModel
}

// Key identifies one cached model.
type Key struct {
	Sport Sport
	Kind  ModelKind
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Sport, k.Kind)
}

// Keys returns every (sport, kind) pair.
func Keys() []Key {
	keys := make([]Key, 0, len(All())*len(Kinds()))
	for _, s := range All() {
		for _, k := range Kinds() {
			keys = append(keys, Key{Sport: s, Kind: k})
		}
	}
	return keys
}
