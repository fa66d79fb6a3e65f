package trainer

import "compress/zlib"
import "encoding/hex"
import "encoding/json"
import "io"
import "os"
import "path/filepath"
import "reflect"
import "strconv"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/learning"
import "github.com/neurlang/pino1d/net/feedforward"

// ErrCheckpointMismatch reports a checkpoint that does not fit the model.
var ErrCheckpointMismatch = errors.New("checkpoint does not match model")

// Architecture identifies the model a checkpoint belongs to.
type Architecture struct {
	Name   string `json:"name"`
	InDim  int    `json:"in_dim"`
	OutDim int    `json:"out_dim"`
	Modes  []int  `json:"modes,omitempty"`
	FcDim  int    `json:"fc_dim,omitempty"`
	Layers []int  `json:"layers"`
	Act    string `json:"act"`
}

// Weighted is a model whose parameters can be stored as JSON.
type Weighted interface {
	WeightsJson() []feedforward.TensorJson
	LoadWeightsJson(data json.RawMessage) error
	Params() []*layer.Param
}

// Checkpoint is the persisted training state.
type Checkpoint struct {
	RunID     string             `json:"run_id"`
	Epoch     int                `json:"epoch"`
	Dataset   string             `json:"dataset,omitempty"`
	Model     Architecture       `json:"model"`
	Weights   json.RawMessage    `json:"weights"`
	Optimizer learning.AdamState `json:"optimizer"`
}

// FileCheckpointer writes zlib compressed JSON checkpoints to
// Root/Dir/Name, inserting _<epoch> before the extension of periodic ones.
type FileCheckpointer struct {
	Root, Dir, Name string

	RunID   string
	Dataset [32]byte
	Arch    Architecture
	Model   Weighted
	Adam    *learning.Adam
}

// Path returns the file a checkpoint of epoch is written to.
func (f *FileCheckpointer) Path(epoch int, final bool) string {
	root := f.Root
	if root == "" {
		root = "checkpoints"
	}
	name := f.Name
	if !final {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + strconv.Itoa(epoch) + ext
	}
	return filepath.Join(root, f.Dir, name)
}

func (f *FileCheckpointer) Checkpoint(epoch int, final bool) error {
	weights, err := json.Marshal(f.Model.WeightsJson())
	if err != nil {
		return err
	}
	c := Checkpoint{
		RunID:   f.RunID,
		Epoch:   epoch,
		Model:   f.Arch,
		Weights: weights,
	}
	if f.Dataset != [32]byte{} {
		c.Dataset = hex.EncodeToString(f.Dataset[:])
	}
	if f.Adam != nil {
		c.Optimizer = f.Adam.State()
	}
	return writeAtomic(f.Path(epoch, final), func(w io.Writer) error {
		zw := zlib.NewWriter(w)
		if err := json.NewEncoder(zw).Encode(&c); err != nil {
			return err
		}
		return zw.Close()
	})
}

// LoadCheckpoint reads a checkpoint file.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	zr, err := zlib.NewReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "checkpoint %s", path)
	}
	defer zr.Close()
	var c Checkpoint
	if err := json.NewDecoder(zr).Decode(&c); err != nil {
		return nil, errors.Wrapf(err, "checkpoint %s", path)
	}
	return &c, nil
}

// Restore loads the weights, and the optimizer state when adam is not nil,
// after checking the architecture.
func (c *Checkpoint) Restore(path string, arch Architecture, model Weighted, adam *learning.Adam) error {
	if !reflect.DeepEqual(c.Model, arch) {
		return errors.Wrapf(ErrCheckpointMismatch, "%s: stored %+v, configured %+v", path, c.Model, arch)
	}
	if err := model.LoadWeightsJson(c.Weights); err != nil {
		return errors.Wrapf(ErrCheckpointMismatch, "%s: %v", path, err)
	}
	if adam != nil {
		if err := adam.Load(c.Optimizer, model.Params()); err != nil {
			return errors.Wrapf(ErrCheckpointMismatch, "%s: %v", path, err)
		}
	}
	return nil
}
