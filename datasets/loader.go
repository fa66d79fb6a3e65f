package datasets

import "math/rand/v2"

import "github.com/neurlang/pino1d/layer"

// Batch is one mini-batch of inputs and targets.
type Batch struct {
	X, Y layer.Tensor
}

// Loader splits a dataset into mini-batches, optionally reshuffled every
// epoch. The last batch may be smaller.
type Loader struct {
	Data      *Dataset
	BatchSize int
	Shuffle   bool
	rng       *rand.Rand
	order     []int
}

// NewLoader returns a loader over d. rng is only used when shuffling.
func NewLoader(d *Dataset, batchSize int, shuffle bool, rng *rand.Rand) *Loader {
	if batchSize <= 0 {
		batchSize = 1
	}
	order := make([]int, d.Samples)
	for i := range order {
		order[i] = i
	}
	return &Loader{Data: d, BatchSize: batchSize, Shuffle: shuffle, rng: rng, order: order}
}

// Len is the number of batches per epoch.
func (l *Loader) Len() int {
	return (l.Data.Samples + l.BatchSize - 1) / l.BatchSize
}

// Epoch returns the batches of one pass over the data.
func (l *Loader) Epoch() []Batch {
	if l.Shuffle && l.rng != nil {
		l.rng.Shuffle(len(l.order), func(i, j int) { l.order[i], l.order[j] = l.order[j], l.order[i] })
	}
	batches := make([]Batch, 0, l.Len())
	for start := 0; start < len(l.order); start += l.BatchSize {
		end := min(start+l.BatchSize, len(l.order))
		x, y := l.Data.Gather(l.order[start:end])
		batches = append(batches, Batch{X: x, Y: y})
	}
	return batches
}
