// Package device reports the compute hardware and sizes the worker pool
// shared by the numeric kernels.
package device

import "fmt"
import "io"
import "runtime"

import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"
import "github.com/klauspost/cpuid/v2"

// Info describes the host.
type Info struct {
	Brand    string
	Physical int
	Logical  int
	AVX2     bool
	AVX512   bool
	NEON     bool
	GPUs     []GPU
}

// GPU describes one CUDA device.
type GPU struct {
	Name    string
	Memory  int64
	Compute string
}

// Probe inspects the host CPU and, when built with the cuda tag, the GPUs.
func Probe() Info {
	info := Info{
		Brand:    cpuid.CPU.BrandName,
		Physical: cpuid.CPU.PhysicalCores,
		Logical:  cpuid.CPU.LogicalCores,
		AVX2:     cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3),
		AVX512:   cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		NEON:     cpuid.CPU.Supports(cpuid.ASIMD),
	}
	info.GPUs = probeCUDA()
	return info
}

// Threads is the default kernel parallelism: the physical cores when known.
func (i Info) Threads() int {
	if i.Physical > 0 {
		return i.Physical
	}
	return runtime.GOMAXPROCS(0)
}

// NewPool starts a worker pool with threads workers, or the default when
// threads is not positive. A single thread yields a nil pool, which makes
// every kernel run inline.
func (i Info) NewPool(threads int) *workerpool.Pool {
	if threads <= 0 {
		threads = i.Threads()
	}
	if threads == 1 {
		return nil
	}
	return workerpool.New(threads)
}

// Report writes a short human readable description.
func (i Info) Report(w io.Writer) {
	fmt.Fprintf(w, "CPU: %s, %d cores, %d threads", i.Brand, i.Physical, i.Logical)
	switch {
	case i.AVX512:
		fmt.Fprintf(w, ", AVX-512")
	case i.AVX2:
		fmt.Fprintf(w, ", AVX2")
	case i.NEON:
		fmt.Fprintf(w, ", NEON")
	}
	fmt.Fprintln(w)
	for n, g := range i.GPUs {
		fmt.Fprintf(w, "GPU %d: %q, %d bytes, compute %s\n", n, g.Name, g.Memory, g.Compute)
	}
}
