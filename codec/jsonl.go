package codec

import (
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/prone/model"
)

// CoresetRow is one weighted draw in the JSON Lines form of a coreset.
type CoresetRow struct {
	Index  int       `json:"index"`
	Weight float64   `json:"weight"`
	Point  []float64 `json:"point,omitempty"`
}

// WriteCoresetJSONL writes one CoresetRow per draw of c, each on its own
// line. If points is nil the rows carry no coordinates.
func WriteCoresetJSONL(w io.Writer, c *model.Coreset, points [][]float64) error {
	if len(c.Indices) != len(c.Weights) {
		return fmt.Errorf("codec: %d indices but %d weights", len(c.Indices), len(c.Weights))
	}

	var (
		enc GoJSON
		buf []byte
		err error
	)
	for d, idx := range c.Indices {
		row := CoresetRow{Index: idx, Weight: c.Weights[d]}
		if points != nil {
			if idx < 0 || idx >= len(points) {
				return fmt.Errorf("codec: draw %d references point %d of %d", d, idx, len(points))
			}
			row.Point = points[idx]
		}

		if buf, err = enc.Append(buf[:0], row); err != nil {
			return err
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadCoresetJSONL reads rows written by WriteCoresetJSONL.
func ReadCoresetJSONL(r io.Reader) ([]CoresetRow, error) {
	dec := gojson.NewDecoder(r)

	var rows []CoresetRow
	for {
		var row CoresetRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("codec: row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
}
