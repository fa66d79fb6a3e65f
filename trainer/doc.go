// Package trainer provides high-level training orchestration for neural
// operators with physics-informed losses. It runs the epoch loop, balances
// the loss terms through an aggregator, tracks the per-epoch metrics and
// persists checkpoints and the metrics history.
package trainer
