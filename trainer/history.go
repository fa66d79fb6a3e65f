package trainer

import "bufio"
import "io"
import "math"
import "os"
import "strconv"
import "strings"

import "github.com/pkg/errors"

// Columns of a Row, in persisted order.
const (
	ColumnCombined = iota
	ColumnPDE
	ColumnBoundaryLeft
	ColumnBoundaryRight
	ColumnData
	ColumnPDE1
)

// Row holds the epoch means: combined, f, bc_l, bc_r, data L2, f1.
type Row [6]float64

// History is the per-epoch metrics table.
type History struct {
	Rows []Row
}

// Column extracts one metric over all epochs.
func (h *History) Column(c int) []float64 {
	o := make([]float64, len(h.Rows))
	for i, r := range h.Rows {
		o[i] = r[c]
	}
	return o
}

// WriteTo writes one space separated line per epoch.
func (h *History) WriteTo(w io.Writer) (n int64, err error) {
	bw := bufio.NewWriter(w)
	var buf []byte
	for _, r := range h.Rows {
		buf = buf[:0]
		for i, v := range r {
			if i != 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'e', 8, 64)
		}
		buf = append(buf, '\n')
		m, err := bw.Write(buf)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Save writes the table atomically.
func (h *History) Save(path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		_, err := h.WriteTo(w)
		return err
	})
}

// ReadFrom appends the rows of a table written by WriteTo.
func (h *History) ReadFrom(r io.Reader) (n int64, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		n += int64(len(line)) + 1
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != len(Row{}) {
			return n, errors.Errorf("history row %d has %d columns", len(h.Rows), len(fields))
		}
		var row Row
		for i, f := range fields {
			if row[i], err = strconv.ParseFloat(f, 64); err != nil {
				return n, errors.Wrapf(err, "history row %d", len(h.Rows))
			}
		}
		h.Rows = append(h.Rows, row)
	}
	return n, sc.Err()
}

// LoadHistory reads a table saved by Save.
func LoadHistory(path string) (*History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := &History{}
	if _, err := h.ReadFrom(f); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return h, nil
}

// Resize keeps the first epochs rows, padding missing epochs with NaN rows.
func (h *History) Resize(epochs int) {
	if len(h.Rows) >= epochs {
		h.Rows = h.Rows[:epochs]
		return
	}
	var missing Row
	for i := range missing {
		missing[i] = math.NaN()
	}
	for len(h.Rows) < epochs {
		h.Rows = append(h.Rows, missing)
	}
}
