// Package mapping wires HybridGrid into a producer/consumer scan-mapping
// loop: odometry results are submitted from a sensor thread, and a single
// background worker looks up each result's surrounding cloud, inserts its
// scans, and republishes the surrounding clouds it found.
package mapping

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"go.viam.com/hybridmap/hybridgrid"
	"go.viam.com/hybridmap/logging"
	"go.viam.com/hybridmap/pointcloud"
	"go.viam.com/hybridmap/spatialmath"
	"go.viam.com/hybridmap/utils"
)

// Mode selects Pipeline's backpressure behavior.
type Mode int

const (
	// OfflineMode processes every submitted result in order; Submit blocks
	// once the internal queue fills.
	OfflineMode Mode = iota
	// OnlineMode never lets the consumer fall behind the sensor: whenever
	// it finishes a pop and finds more results already queued, it drains
	// down to the newest one before processing, dropping the rest.
	OnlineMode
)

// queueCapacity bounds Pipeline's internal channel, absorbing short bursts
// of Submit calls without blocking the producer while the consumer catches
// up or the drain runs.
const queueCapacity = 8

// consumerIdleTimeout bounds how long the consumer waits for a result
// before re-checking for cancellation, standing in for the original's
// timed queue pop.
const consumerIdleTimeout = 250 * time.Millisecond

// OdometryResult is a single pose estimate paired with the corner and
// surface feature scans it was computed from. It is the unit of work
// submitted to a Pipeline.
type OdometryResult struct {
	CornerScan pointcloud.PointCloud
	SurfScan   pointcloud.PointCloud
	Pose       spatialmath.Pose
}

// Result is what a Pipeline produces after mapping one OdometryResult.
type Result struct {
	Request        OdometryResult
	CornerSurround pointcloud.PointCloud
	SurfSurround   pointcloud.PointCloud
	Err            error
}

// Pipeline runs one consumer goroutine that, per submitted OdometryResult,
// looks up the surrounding cloud in both the corner and surface grids
// around the result's pose, then inserts the result's (transformed) scans
// into those same grids. In OnlineMode, if results arrive faster than they
// can be mapped, all but the newest queued result are dropped so mapping
// never falls behind the sensor.
type Pipeline struct {
	cornerGrid *hybridgrid.HybridGrid
	surfGrid   *hybridgrid.HybridGrid
	logger     logging.Logger
	mode       Mode

	queue   chan OdometryResult
	results chan Result
	workers utils.StoppableWorkers

	mu      sync.Mutex
	lastErr error

	closeOnce sync.Once
}

// NewPipeline returns a running Pipeline that maps every submitted
// OdometryResult into cornerGrid and surfGrid, mirroring the original's
// separate corner/surface map instances. The consumer goroutine starts
// immediately.
func NewPipeline(cornerGrid, surfGrid *hybridgrid.HybridGrid, logger logging.Logger, mode Mode) *Pipeline {
	p := &Pipeline{
		cornerGrid: cornerGrid,
		surfGrid:   surfGrid,
		logger:     logger,
		mode:       mode,
		queue:      make(chan OdometryResult, queueCapacity),
		results:    make(chan Result, queueCapacity),
	}
	p.workers = utils.NewStoppableWorkers(p.run)
	return p
}

// Results returns the channel mapped Results are published on. It is
// closed after Close returns.
func (p *Pipeline) Results() <-chan Result {
	return p.results
}

// Submit enqueues result for mapping, blocking if the internal queue is
// full. OnlineMode's backlog dropping happens on the consumer side, not
// here: Submit's only job is to get result onto the queue.
func (p *Pipeline) Submit(result OdometryResult) {
	p.queue <- result
}

// Close stops the consumer goroutine and waits for it to exit, then closes
// Results. It returns any error accumulated while processing submitted
// results, or nil on a clean shutdown.
func (p *Pipeline) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.workers.Stop()
		close(p.results)
		p.mu.Lock()
		err = p.lastErr
		p.mu.Unlock()
	})
	return err
}

func (p *Pipeline) run(ctx context.Context) {
	for {
		var result OdometryResult
		select {
		case <-ctx.Done():
			return
		case result = <-p.queue:
		case <-time.After(consumerIdleTimeout):
			continue
		}

		if p.mode == OnlineMode {
		drainLoop:
			for {
				select {
				case newer := <-p.queue:
					p.logger.Warnw("drop lidar frame in mapping for real time performance")
					result = newer
				default:
					break drainLoop
				}
			}
		}

		res := p.process(result)
		select {
		case p.results <- res:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) process(result OdometryResult) Result {
	cornerSurround, cornerSurrErr := p.cornerGrid.GetSurroundedCloud(result.CornerScan, result.Pose)
	surfSurround, surfSurrErr := p.surfGrid.GetSurroundedCloud(result.SurfScan, result.Pose)
	if err := multierr.Combine(cornerSurrErr, surfSurrErr); err != nil {
		p.recordErr(err)
		return Result{Request: result, Err: err}
	}

	cornerTransformed, cornerXErr := pointcloud.ApplyOffset(result.CornerScan, result.Pose)
	surfTransformed, surfXErr := pointcloud.ApplyOffset(result.SurfScan, result.Pose)
	if err := multierr.Combine(cornerXErr, surfXErr); err != nil {
		p.recordErr(err)
		return Result{Request: result, CornerSurround: cornerSurround, SurfSurround: surfSurround, Err: err}
	}

	insertErr := multierr.Combine(
		p.cornerGrid.InsertScan(cornerTransformed),
		p.surfGrid.InsertScan(surfTransformed),
	)
	if insertErr != nil {
		p.recordErr(insertErr)
	}
	if p.logger != nil && insertErr == nil {
		p.logger.Debugw("mapped odometry result",
			"corner surrounding points", cornerSurround.Size(),
			"surf surrounding points", surfSurround.Size())
	}
	return Result{
		Request:        result,
		CornerSurround: cornerSurround,
		SurfSurround:   surfSurround,
		Err:            insertErr,
	}
}

func (p *Pipeline) recordErr(err error) {
	p.mu.Lock()
	p.lastErr = multierr.Append(p.lastErr, err)
	p.mu.Unlock()
}
