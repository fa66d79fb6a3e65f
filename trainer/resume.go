package trainer

import "encoding/hex"

import "github.com/neurlang/pino1d/learning"

// Resume loads the checkpoint at path into model and adam, positions the
// schedule after the stored epoch and returns the epoch to continue from.
// The loss aggregator is not part of a checkpoint and starts fresh.
func Resume(path string, arch Architecture, model Weighted, adam *learning.Adam, sched *learning.MultiStep, dataset [32]byte) (int, error) {
	c, err := LoadCheckpoint(path)
	if err != nil {
		return 0, err
	}
	if err := c.Restore(path, arch, model, adam); err != nil {
		return 0, err
	}
	if c.Dataset != "" && c.Dataset != hex.EncodeToString(dataset[:]) {
		println("warning: resuming", path, "on a different dataset")
	}
	if sched != nil {
		sched.Seek(c.Epoch + 1)
	}
	return c.Epoch + 1, nil
}
