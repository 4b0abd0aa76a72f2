package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tweetkit/pkg/logger"
	"tweetkit/pkg/ratelimit"
)

// Job is one media upload
type Job struct {
	Source   string
	Category string

	index int
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	MediaID  string
	Error    error
	Duration time.Duration
	Worker   int
}

// Uploader runs a complete upload session for one source
type Uploader interface {
	Upload(ctx context.Context, source, category string) (string, error)
}

// Recorder remembers finished uploads
type Recorder interface {
	RecordUpload(ctx context.Context, source, mediaID string) error
}

// WorkerPool runs uploads concurrently. Every job gets its own session; the
// limiter is shared by all workers.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	uploader    Uploader
	recorder    Recorder
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
	stopOnce    sync.Once
}

// NewWorkerPool creates a pool. recorder and rateLimiter may be nil.
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	uploader Uploader,
	recorder Recorder,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		uploader:    uploader,
		recorder:    recorder,
		rateLimiter: rateLimiter,
		logger:      logger.OrGlobal(log),
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting upload pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for queued jobs and closes Results
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		wp.logger.Debug("Upload pool stopped")
	})
}

// Submit queues a job
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Upload queued", map[string]interface{}{
			"source":   job.Source,
			"category": job.Category,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("upload pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel. It is closed by Stop and must be
// drained while jobs run.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if err := wp.ctx.Err(); err != nil {
			result = Result{Job: job, Error: err, Worker: id}
		} else {
			result = wp.processJob(job, id)
		}
		wp.resultQueue <- result
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job, Worker: workerID}
	fields := map[string]interface{}{
		"worker_id": workerID,
		"source":    job.Source,
	}

	if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	mediaID, err := wp.uploader.Upload(wp.ctx, job.Source, job.Category)
	result.Duration = time.Since(start)
	fields["duration"] = result.Duration
	if err != nil {
		result.Error = fmt.Errorf("upload of %s failed: %w", job.Source, err)
		fields["error"] = err.Error()
		wp.logger.ErrorWithFields("Upload failed", fields)
		return result
	}
	result.MediaID = mediaID
	fields["media_id"] = mediaID

	if wp.recorder != nil {
		if err := wp.recorder.RecordUpload(wp.ctx, job.Source, mediaID); err != nil {
			wp.logger.WithError(err).WarnWithFields("Recording upload failed", fields)
		}
	}

	wp.logger.DebugWithFields("Upload completed", fields)
	return result
}

// Run uploads every job and returns the results in job order
func Run(ctx context.Context, numWorkers int, uploader Uploader, recorder Recorder, limiter ratelimit.Limiter, log logger.Logger, jobs []Job) []Result {
	pool := NewWorkerPool(ctx, numWorkers, uploader, recorder, limiter, log)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i, job := range jobs {
			job.index = i
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	results := make([]Result, 0, len(jobs))
	for r := range pool.Results() {
		results = append(results, r)
	}

	submitted := make(map[int]bool, len(results))
	for _, r := range results {
		submitted[r.Job.index] = true
	}
	for i, job := range jobs {
		if !submitted[i] {
			job.index = i
			results = append(results, Result{Job: job, Error: fmt.Errorf("upload of %s not started: %w", job.Source, context.Cause(pool.ctx))})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Job.index < results[j].Job.index })
	return results
}

// Summary counts successes and failures
func Summary(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Error != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
