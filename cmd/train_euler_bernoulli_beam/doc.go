// Package main trains and tests a neural operator surrogate for a simply
// supported Euler-Bernoulli beam, predicting deflection and bending moment
// from the distributed load.
//
// Usage:
//
//	train_euler_bernoulli_beam -config_path configs/euler_bernoulli_beam.yaml -mode train
package main
