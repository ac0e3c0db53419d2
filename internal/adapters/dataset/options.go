package dataset

import "github.com/okian/trendcast/pkg/logger"

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load events.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithIndexColumn overrides the name of the date column. Defaults to "Month".
func WithIndexColumn(name string) Option {
	return func(ld *Loader) {
		if name != "" {
			ld.indexColumn = name
		}
	}
}
