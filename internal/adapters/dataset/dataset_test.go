package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/trendcast/pkg/logger"
)

const trendsCSV = `Category: All categories

Month,Premier League,NBA
2004-01,10,40
2004-02,12,<1
2004-03,14,38
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "multiTimeline.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	Convey("Given a Google Trends export", t, func() {
		table, err := Parse(strings.NewReader(trendsCSV), "")

		Convey("Then the preamble is skipped and columns are kept in order", func() {
			So(err, ShouldBeNil)
			So(table.Len(), ShouldEqual, 3)
			So(table.Columns(), ShouldResemble, []string{"Premier League", "NBA"})
			So(table.Index()[1].Equal(time.Date(2004, time.February, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})

		Convey("Then a column becomes a series", func() {
			s, err := table.Series("NBA")
			So(err, ShouldBeNil)
			So(s.Values, ShouldResemble, []float64{40, 0.5, 38})
			So(s.Name, ShouldEqual, "NBA")
		})

		Convey("Then an unknown column is reported", func() {
			_, err := table.Series("Wimbledon")
			So(errors.Is(err, ErrColumnNotFound), ShouldBeTrue)
		})

		Convey("Then copies are independent", func() {
			cp := table.Copy()
			cp.columns["NBA"][0] = -1
			s, _ := table.Series("NBA")
			So(s.Values[0], ShouldEqual, 40)
		})
	})

	Convey("Given other date layouts", t, func() {
		csv := "Month,X\n2004-01-15,1\n2004/02,2\n03/2004,3\n2004-04-01 00:00:00,4\n"
		table, err := Parse(strings.NewReader(csv), "Month")

		Convey("Then every row is truncated to its month", func() {
			So(err, ShouldBeNil)
			idx := table.Index()
			So(len(idx), ShouldEqual, 4)
			for i, ts := range idx {
				So(ts.Day(), ShouldEqual, 1)
				So(int(ts.Month()), ShouldEqual, i+1)
			}
		})
	})

	Convey("Given malformed input", t, func() {
		Convey("When the header is missing", func() {
			_, err := Parse(strings.NewReader("Date,X\n2004-01,1\n"), "")
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})

		Convey("When a cell is empty", func() {
			_, err := Parse(strings.NewReader("Month,X\n2004-01,\n"), "")
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, `column "X"`)
		})

		Convey("When a date is unrecognised", func() {
			_, err := Parse(strings.NewReader("Month,X\nJanuary,1\n"), "")
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})

		Convey("When a row is short", func() {
			_, err := Parse(strings.NewReader("Month,X,Y\n2004-01,1\n"), "")
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})
	})
}

func TestLoader(t *testing.T) {
	Convey("Given a loader", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()

		Convey("When the file is missing", func() {
			l := NewLoader(filepath.Join(t.TempDir(), "missing.csv"))
			_, err := l.Load(ctx)

			Convey("Then ErrNotFound is returned and nothing is cached", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "missing.csv")
				So(l.Loaded(), ShouldBeFalse)
			})
		})

		Convey("When the file exists", func() {
			path := writeFile(t, trendsCSV)
			l := NewLoader(path, WithLogger(logger.Named("test")))
			first, err := l.Load(ctx)
			So(err, ShouldBeNil)

			Convey("Then later loads are served from memory", func() {
				So(os.Remove(path), ShouldBeNil)
				second, err := l.Load(ctx)
				So(err, ShouldBeNil)
				So(second.Len(), ShouldEqual, first.Len())
				So(l.Loaded(), ShouldBeTrue)
			})

			Convey("Then callers cannot mutate the cached table", func() {
				first.columns["NBA"][0] = 999
				again, _ := l.Load(ctx)
				s, _ := again.Series("NBA")
				So(s.Values[0], ShouldEqual, 40)
			})
		})

		Convey("When many goroutines load at once", func() {
			l := NewLoader(writeFile(t, trendsCSV))
			var wg sync.WaitGroup
			errs := make([]error, 16)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = l.Load(ctx)
				}(i)
			}
			wg.Wait()

			Convey("Then all succeed", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})

		Convey("When a missing file appears later", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "late.csv")
			l := NewLoader(path)
			_, err := l.Load(ctx)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(os.WriteFile(path, []byte(trendsCSV), 0o600), ShouldBeNil)

			Convey("Then the next load retries and succeeds", func() {
				table, err := l.Load(ctx)
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 3)
			})
		})
	})
}
