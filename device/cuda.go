//go:build cuda

package device

import "fmt"

import "gorgonia.org/cu"

func probeCUDA() (gpus []GPU) {
	devices, err := cu.NumDevices()
	if err != nil {
		return nil
	}
	for d := 0; d < devices; d++ {
		name, _ := cu.Device(d).Name()
		mem, _ := cu.Device(d).TotalMem()
		maj, _ := cu.Device(d).Attribute(cu.ComputeCapabilityMajor)
		min, _ := cu.Device(d).Attribute(cu.ComputeCapabilityMinor)
		gpus = append(gpus, GPU{Name: name, Memory: mem, Compute: fmt.Sprintf("%d.%d", maj, min)})
	}
	return
}
