package bench

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// HostInfo describes the machine a report was produced on.
type HostInfo struct {
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os"`
	Platform      string `json:"platform,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	Arch          string `json:"arch"`
	GoVersion     string `json:"go_version"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	CPUModel      string `json:"cpu_model,omitempty"`
	PhysicalCores int    `json:"physical_cores,omitempty"`
	LogicalCores  int    `json:"logical_cores,omitempty"`
	TotalMemory   uint64 `json:"total_memory_bytes,omitempty"`
}

// CollectHostInfo gathers host details. Probes that fail are logged and
// left empty; the Go runtime fields are always set.
func CollectHostInfo(ctx context.Context, l *zap.Logger) HostInfo {
	info := HostInfo{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		GoVersion:  runtime.Version(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		info.KernelVersion = h.KernelVersion
	} else {
		l.Warn("host info unavailable", zap.Error(err))
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	} else if err != nil {
		l.Warn("cpu info unavailable", zap.Error(err))
	}

	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.PhysicalCores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.LogicalCores = n
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.TotalMemory = vm.Total
	} else {
		l.Warn("memory info unavailable", zap.Error(err))
	}

	return info
}

// processMonitor samples this process' resident memory.
type processMonitor struct {
	proc *process.Process
}

func newProcessMonitor(ctx context.Context) *processMonitor {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return &processMonitor{}
	}
	return &processMonitor{proc: proc}
}

// rss returns the resident set size, or zero if it cannot be read.
func (m *processMonitor) rss(ctx context.Context) uint64 {
	if m.proc == nil {
		return 0
	}
	info, err := m.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0
	}
	return info.RSS
}
