// Package device probes the host for a usable GPU adapter via WebGPU.
// Backends consult the probe when a configuration asks for a device;
// no kernels run on the adapter here, the probe only answers "is the
// requested device real".
package device

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Info describes the probed adapter.
type Info struct {
	Name   string
	Vendor string
}

var (
	probeOnce sync.Once
	probeInfo *Info
	probeErr  error
)

// Probe requests a WebGPU adapter and device, returning adapter info on
// success. The result is cached for the life of the process: adapters
// do not come and go between predictor constructions.
func Probe() (*Info, error) {
	probeOnce.Do(func() {
		probeInfo, probeErr = probe()
	})
	return probeInfo, probeErr
}

// Available reports whether a GPU adapter can be acquired.
func Available() bool {
	_, err := Probe()
	return err == nil
}

func probe() (info *Info, err error) {
	// Recover from panic if the wgpu native library is not present.
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}
	defer adapter.Release()

	adapterInfo := adapter.GetInfo()

	dev, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}
	dev.Release()

	return &Info{
		Name:   adapterInfo.Name,
		Vendor: adapterInfo.VendorName,
	}, nil
}
