package datasets

import "encoding/json"
import "os"

import "github.com/pkg/errors"

type fileJson struct {
	Input  json.RawMessage `json:"input"`
	Output json.RawMessage `json:"output"`
	X      json.RawMessage `json:"x"`
}

// field decodes a [samples][points] or [samples][points][channels] array.
func field(data json.RawMessage, name string) ([][][]float64, error) {
	var three [][][]float64
	if err := json.Unmarshal(data, &three); err == nil {
		return three, nil
	}
	var two [][]float64
	if err := json.Unmarshal(data, &two); err != nil {
		return nil, errors.Wrapf(err, "field %q", name)
	}
	three = make([][][]float64, len(two))
	for s, row := range two {
		three[s] = make([][]float64, len(row))
		for j, v := range row {
			three[s][j] = []float64{v}
		}
	}
	return three, nil
}

// grid decodes x as either [points] or [1][points].
func grid(data json.RawMessage) ([]float64, error) {
	var one []float64
	if err := json.Unmarshal(data, &one); err == nil {
		return one, nil
	}
	var two [][]float64
	if err := json.Unmarshal(data, &two); err != nil {
		return nil, errors.Wrap(err, `field "x"`)
	}
	if len(two) == 0 {
		return nil, errors.Wrap(ErrShape, `field "x" is empty`)
	}
	return two[0], nil
}

// ReadJson reads a dataset file with the fields input, output and x.
func ReadJson(name string) (*Raw, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var f fileJson
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "dataset %s", name)
	}
	var r Raw
	if r.Input, err = field(f.Input, "input"); err != nil {
		return nil, errors.Wrapf(err, "dataset %s", name)
	}
	if r.Output, err = field(f.Output, "output"); err != nil {
		return nil, errors.Wrapf(err, "dataset %s", name)
	}
	if r.X, err = grid(f.X); err != nil {
		return nil, errors.Wrapf(err, "dataset %s", name)
	}
	return &r, nil
}

// WriteJson stores r in the format ReadJson reads.
func (r *Raw) WriteJson(name string) error {
	data, err := json.Marshal(map[string]interface{}{
		"input":  r.Input,
		"output": r.Output,
		"x":      r.X,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0644)
}
