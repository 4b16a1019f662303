// Package system: 운영 확인용 시스템 리소스 통계
package system

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger: 데이터베이스 상태 확인 경계 (database.PostgresService가 구현)
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemStats: 시스템 리소스 통계
type SystemStats struct {
	CPUUsage      float64 `json:"cpuUsage"`      // CPU 사용률 (%)
	MemoryUsage   float64 `json:"memoryUsage"`   // 메모리 사용률 (%)
	MemoryTotal   uint64  `json:"memoryTotal"`   // 전체 메모리 (Bytes)
	MemoryUsed    uint64  `json:"memoryUsed"`    // 사용 중인 메모리 (Bytes)
	HeapAllocated uint64  `json:"heapAllocated"` // Go 힙 사용량 (Bytes)
	Goroutines    int     `json:"goroutines"`
	DBHealthy     bool    `json:"dbHealthy"`
	DBLatencyMS   int64   `json:"dbLatencyMs"`
}

// Collector: 시스템 리소스 통계를 수집하는 서비스입니다.
type Collector struct {
	db Pinger
}

// NewCollector: 새 Collector를 생성합니다. db는 nil일 수 있다 (테스트).
func NewCollector(db Pinger) *Collector {
	return &Collector{db: db}
}

// GetCurrentStats: 현재 시스템 리소스 상태를 반환합니다.
func (c *Collector) GetCurrentStats(ctx context.Context) (*SystemStats, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory stats: %w", err)
	}

	// CPU 사용률 (즉시 반환)
	cpus, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu stats: %w", err)
	}

	var cpuUsage float64
	if len(cpus) > 0 {
		cpuUsage = cpus[0]
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := &SystemStats{
		CPUUsage:      cpuUsage,
		MemoryUsage:   v.UsedPercent,
		MemoryTotal:   v.Total,
		MemoryUsed:    v.Used,
		HeapAllocated: ms.HeapAlloc,
		Goroutines:    runtime.NumGoroutine(),
	}

	if c.db != nil {
		start := time.Now()
		err := c.db.Ping(ctx)
		stats.DBHealthy = err == nil
		stats.DBLatencyMS = time.Since(start).Milliseconds()
	}

	return stats, nil
}
