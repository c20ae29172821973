package build

import (
	"sync"
	"time"
)

// BuildMetrics tracks build performance across runs of a pipeline
type BuildMetrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	FilesProcessed   int64
	AverageDuration  time.Duration
	TotalDuration    time.Duration
	LastBuild        time.Time
	mutex            sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordBuild records a build result in the metrics
func (bm *BuildMetrics) RecordBuild(result BuildResult) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds++
	bm.TotalDuration += result.Duration
	bm.FilesProcessed += int64(result.FilesProcessed)
	bm.LastBuild = time.Now()

	if result.Success {
		bm.SuccessfulBuilds++
	} else {
		bm.FailedBuilds++
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalBuilds)
}

// GetSnapshot returns a copy of the current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	return BuildMetrics{
		TotalBuilds:      bm.TotalBuilds,
		SuccessfulBuilds: bm.SuccessfulBuilds,
		FailedBuilds:     bm.FailedBuilds,
		FilesProcessed:   bm.FilesProcessed,
		AverageDuration:  bm.AverageDuration,
		TotalDuration:    bm.TotalDuration,
		LastBuild:        bm.LastBuild,
	}
}

// Reset resets all metrics
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds = 0
	bm.SuccessfulBuilds = 0
	bm.FailedBuilds = 0
	bm.FilesProcessed = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
	bm.LastBuild = time.Time{}
}

// GetSuccessRate returns the success rate as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalBuilds == 0 {
		return 0.0
	}

	return float64(bm.SuccessfulBuilds) / float64(bm.TotalBuilds) * 100.0
}
