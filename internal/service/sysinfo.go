package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

const cpuSampleInterval = 500 * time.Millisecond

type DiskInfo struct {
	TotalGb        float64 `json:"totalGb"`
	UsedGb         float64 `json:"usedGb"`
	FreeGb         float64 `json:"freeGb"`
	UsedPercentage float64 `json:"usedPercentage"`
	FreePercentage float64 `json:"freePercentage"`
}

type MemInfo struct {
	TotalMemMb        float64 `json:"totalMemMb"`
	UsedMemMb         float64 `json:"usedMemMb"`
	FreeMemMb         float64 `json:"freeMemMb"`
	UsedMemPercentage float64 `json:"usedMemPercentage"`
	FreeMemPercentage float64 `json:"freeMemPercentage"`
}

type SystemInfo struct {
	CPU  float64  `json:"CPU"` // percent busy across all cores
	Disk DiskInfo `json:"DISK"`
	Mem  MemInfo  `json:"MEM"`
}

// SystemInfoService reports host load and the usage of the storage volume.
type SystemInfoService struct {
	volume string

	cpuPercent func(ctx context.Context) (float64, error)
	diskUsage  func(ctx context.Context, path string) (*disk.UsageStat, error)
	memory     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

func NewSystemInfoService(storageVolume string) *SystemInfoService {
	return &SystemInfoService{
		volume:     storageVolume,
		cpuPercent: sampleCPU,
		diskUsage:  disk.UsageWithContext,
		memory:     mem.VirtualMemoryWithContext,
	}
}

func sampleCPU(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, errors.New("no cpu sample")
	}
	return pct[0], nil
}

func (s *SystemInfoService) Get(ctx context.Context) (*SystemInfo, error) {
	busy, err := s.cpuPercent(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu usage: %w", err)
	}
	du, err := s.diskUsage(ctx, s.volume)
	if err != nil {
		return nil, fmt.Errorf("disk usage of %s: %w", s.volume, err)
	}
	vm, err := s.memory(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory usage: %w", err)
	}

	const gb, mb = 1 << 30, 1 << 20
	return &SystemInfo{
		CPU: round2(busy),
		Disk: DiskInfo{
			TotalGb:        round2(float64(du.Total) / gb),
			UsedGb:         round2(float64(du.Used) / gb),
			FreeGb:         round2(float64(du.Free) / gb),
			UsedPercentage: round2(du.UsedPercent),
			FreePercentage: round2(100 - du.UsedPercent),
		},
		Mem: MemInfo{
			TotalMemMb:        round2(float64(vm.Total) / mb),
			UsedMemMb:         round2(float64(vm.Used) / mb),
			FreeMemMb:         round2(float64(vm.Available) / mb),
			UsedMemPercentage: round2(vm.UsedPercent),
			FreeMemPercentage: round2(100 - vm.UsedPercent),
		},
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
