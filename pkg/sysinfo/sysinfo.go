// Package sysinfo reports host facts the runtime sizes itself by.
package sysinfo

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// counter is swapped in tests.
var counter = cpu.Counts

// LogicalCPUs returns the number of logical processors on the host.
// If the OS query fails or reports nothing, it falls back to runtime.NumCPU,
// so the result is always at least 1.
func LogicalCPUs() int {
	n, err := counter(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if n <= 0 {
		n = 1
	}
	return n
}

// PhysicalCPUs returns the number of physical cores, or 0 when unknown.
func PhysicalCPUs() int {
	n, err := counter(false)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
