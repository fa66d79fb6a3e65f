package feedforward

import "compress/zlib"
import "encoding/json"
import "io"
import "os"

import "github.com/pkg/errors"

// ErrWeightsMismatch is returned when stored weights do not fit the network.
var ErrWeightsMismatch = errors.New("weights do not match network")

// TensorJson is the stored form of one parameter tensor.
type TensorJson struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Value []float64 `json:"value"`
}

// WeightsJson returns the network weights as a JSON-ready slice.
func (f FeedforwardNetwork) WeightsJson() (o []TensorJson) {
	for _, p := range f.Params() {
		o = append(o, TensorJson{Name: p.Name, Shape: p.Shape, Value: p.Value})
	}
	return
}

// LoadWeightsJson copies decoded weights into the network.
func (f FeedforwardNetwork) LoadWeightsJson(data json.RawMessage) error {
	var stored []TensorJson
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	params := f.Params()
	if len(stored) != len(params) {
		return errors.Wrapf(ErrWeightsMismatch, "%d tensors stored, %d in network", len(stored), len(params))
	}
	for i, p := range params {
		if stored[i].Name != p.Name || len(stored[i].Value) != len(p.Value) {
			return errors.Wrapf(ErrWeightsMismatch, "tensor %d: stored %s[%d], network %s[%d]",
				i, stored[i].Name, len(stored[i].Value), p.Name, len(p.Value))
		}
	}
	for i, p := range params {
		copy(p.Value, stored[i].Value)
	}
	return nil
}

// WriteCompressedWeightsToFile writes model weights to a zlib file
func (f FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = f.WriteCompressedWeights(file)
	file.Close()
	return err
}

// WriteCompressedWeights writes model weights to a writer
func (f FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	zw := zlib.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(f.WeightsJson()); err != nil {
		return err
	}
	return zw.Close()
}

// ReadCompressedWeightsFromFile reads model weights from a zlib file
func (f FeedforwardNetwork) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	err = f.ReadCompressedWeights(file)
	file.Close()
	return err
}

// ReadCompressedWeights reads model weights from a reader
func (f FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return err
	}
	var data json.RawMessage
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return err
	}
	if err := f.LoadWeightsJson(data); err != nil {
		return err
	}
	return zr.Close()
}
