// Package main trains and tests a neural operator surrogate for the axial
// displacement of a tapered elastic bar fixed at the left end and loaded
// at the right end.
//
// Usage:
//
//	train_elastic_bar -config_path configs/elastic_bar.yaml -mode train -log
//	train_elastic_bar -config_path configs/elastic_bar.yaml -mode test
//
// Without data.datapath the bar samples are generated from the closed form
// solution with random taper coefficients.
package main
