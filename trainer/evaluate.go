package trainer

import "gonum.org/v1/gonum/stat"

import "github.com/neurlang/pino1d/loss"

// Evaluate runs model over every batch and returns the mean per-batch
// relative L2 error and its standard error.
func Evaluate(model Model, data Batches) (mean, stderr float64, err error) {
	var errs []float64
	for _, b := range data.Epoch() {
		out := model.Forward(b.X)
		if len(out.Data) != len(b.Y.Data) {
			return 0, 0, ErrShape
		}
		l2, _ := loss.RelativeL2(out.Data, b.Y.Data, b.Y.B)
		errs = append(errs, l2)
	}
	switch len(errs) {
	case 0:
		return 0, 0, ErrConfig
	case 1:
		return errs[0], 0, nil
	}
	mean, std := stat.MeanStdDev(errs, nil)
	return mean, stat.StdErr(std, float64(len(errs))), nil
}
