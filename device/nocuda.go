//go:build !cuda

package device

func probeCUDA() []GPU { return nil }
