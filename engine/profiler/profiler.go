package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler samples frame pacing and Go heap statistics from the render loop
// and logs a one-line report at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerOption is a function that modifies the profiler's settings.
type ProfilerOption func(*Profiler)

// WithUpdateInterval sets how often the profiler writes a report. Intervals
// of zero or less keep the default of one second.
//
// Parameters:
//   - interval: time.Duration between reports
//
// Returns:
//   - ProfilerOption: the option function
func WithUpdateInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// NewProfiler creates a new Profiler with the specified options applied.
//
// Parameters:
//   - options: variadic ProfilerOption settings
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Tick records one rendered frame. When the update interval has elapsed it
// logs frames per second, mean frame time, heap size, allocation rate, GC
// pause figures, and the process footprint, then starts a new sample window.
//
// Returns:
//   - bool: true if a report was logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	frameMs := elapsed.Seconds() * 1000 / float64(p.frameCount)

	runtime.ReadMemStats(&p.memStats)
	heapMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs holds the most recent 256 GC pauses in a circular buffer.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	log.Printf("[lens] %.1f fps (%.2f ms/frame) | heap %.2f MB | alloc %.2f MB/s | gc %d (last %d µs, max %d µs) | sys %.2f MB",
		fps, frameMs, heapMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
