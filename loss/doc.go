// Package loss defines the named loss terms of a physics-informed training
// step, the weight maps that combine them, and the data-fit loss.
package loss
