package sport

import "maps"

// Columns maps a sport to the dataset column holding its series.
type Columns map[Sport]string

// DefaultColumns is the shipped mapping. The dataset only carries
// "Premier League" and "NBA", so cricket and tennis reuse the NBA column
// until real sources are added.
func DefaultColumns() Columns {
	return Columns{
		Football:   "Premier League",
		Basketball: "NBA",
		Cricket:    "NBA",
		Tennis:     "NBA",
	}
}

// Column returns the column for s and whether one is mapped.
func (c Columns) Column(s Sport) (string, bool) {
	col, ok := c[s]
	return col, ok && col != ""
}

// Merge returns a copy of c with the non-empty entries of override applied.
func (c Columns) Merge(override Columns) Columns {
	out := maps.Clone(c)
	if out == nil {
		out = Columns{}
	}
	for k, v := range override {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
