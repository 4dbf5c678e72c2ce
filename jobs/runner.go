package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tsawler/ocrlayout/model"
)

// Task names a kind of work unit.
type Task string

const (
	// TaskProcessPath processes a file or directory already on disk.
	TaskProcessPath Task = "process-path"

	// TaskProcessUpload saves an upload, extracting archives, and then
	// processes the result like TaskProcessPath.
	TaskProcessUpload Task = "process-upload"
)

// Processor turns a path into documents.
type Processor interface {
	Path(ctx context.Context, path string, multiDoc bool) ([]*model.Document, error)
}

// Saver stores an uploaded file under key and returns the path to process.
type Saver interface {
	Save(key, filename string, r io.Reader) (string, error)
}

// Upload is a file received from a client and spooled to a temporary path.
// The runner removes TempPath once the upload has been saved.
type Upload struct {
	Filename string
	TempPath string
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Workers   int           // Number of worker goroutines (default: 1)
	QueueSize int           // Pending work limit (default: 100)
	Timeout   time.Duration // Per-job processing limit, zero for none
	Logger    zerolog.Logger
}

// unit is one queued piece of work.
type unit struct {
	task   Task
	jobID  string
	taskID string
	upload *Upload
}

// Runner executes jobs on a fixed pool of workers sharing one queue.
//
// Every task runs under its own context, so Abort can stop a single job
// while the rest keep running. Status changes go through the runner, which
// keeps terminal states final.
type Runner struct {
	store     Store
	processor Processor
	saver     Saver
	config    RunnerConfig
	log       zerolog.Logger

	queue chan *unit
	wg    sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	inFlight atomic.Int32
}

// NewRunner creates a runner. saver may be nil when uploads are not used.
func NewRunner(store Store, processor Processor, saver Saver, config RunnerConfig) *Runner {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}

	return &Runner{
		store:     store,
		processor: processor,
		saver:     saver,
		config:    config,
		log:       config.Logger.With().Str("component", "runner").Int("workers", config.Workers).Logger(),
		queue:     make(chan *unit, config.QueueSize),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Store returns the runner's job store.
func (r *Runner) Store() Store {
	return r.store
}

// Start launches the workers. They stop when ctx is done; use Wait to
// block until they have exited.
func (r *Runner) Start(ctx context.Context) {
	r.log.Info().Msg("runner starting")
	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// InFlight returns the number of units being executed.
func (r *Runner) InFlight() int {
	return int(r.inFlight.Load())
}

// QueueDepth returns the number of units waiting for a worker.
func (r *Runner) QueueDepth() int {
	return len(r.queue)
}

// SubmitPath creates a job processing path and queues it.
func (r *Runner) SubmitPath(ctx context.Context, path string, multiDoc bool) (*Job, error) {
	job := NewJob(path, multiDoc)
	return job, r.submit(ctx, job, &unit{task: TaskProcessPath, jobID: job.ID, taskID: job.TaskID})
}

// SubmitUpload creates a job for an uploaded file and queues it.
func (r *Runner) SubmitUpload(ctx context.Context, upload Upload, multiDoc bool) (*Job, error) {
	if r.saver == nil {
		return nil, errors.New("runner has no upload store")
	}
	job := NewJob("", multiDoc)
	return job, r.submit(ctx, job, &unit{task: TaskProcessUpload, jobID: job.ID, taskID: job.TaskID, upload: &upload})
}

func (r *Runner) submit(ctx context.Context, job *Job, u *unit) error {
	if err := r.store.Create(ctx, job); err != nil {
		return err
	}

	select {
	case r.queue <- u:
		r.log.Debug().Str("job_id", job.ID).Str("task", string(u.task)).Int("queue_len", len(r.queue)).Msg("job queued")
		return nil
	default:
		r.log.Warn().Str("job_id", job.ID).Msg("job queue full")
		job.Status = StatusFailed
		job.Error = ErrQueueFull.Error()
		if err := r.store.Update(ctx, job); err != nil {
			r.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to record queue rejection")
		}
		return ErrQueueFull
	}
}

// Abort cancels the job owning taskID. A queued job is marked aborted and
// skipped; a running job has its context canceled. Aborting a job that has
// already finished returns it unchanged.
func (r *Runner) Abort(ctx context.Context, taskID string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.store.GetByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}

	job.Status = StatusAborted
	job.Error = ErrAborted.Error()
	if err := r.store.Update(ctx, job); err != nil {
		return nil, err
	}
	if cancel, ok := r.cancels[taskID]; ok {
		cancel()
	}

	r.log.Info().Str("job_id", job.ID).Str("task_id", taskID).Msg("job aborted")
	return job, nil
}

// transition applies fn to the stored job unless the job is already
// terminal. It reports whether the change was stored.
func (r *Runner) transition(ctx context.Context, jobID string, fn func(*Job)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Status.Terminal() {
		return false, nil
	}
	fn(job)
	return true, r.store.Update(ctx, job)
}

func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	r.log.Debug().Int("worker_id", id).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case u := <-r.queue:
			r.inFlight.Add(1)
			r.run(ctx, u)
			r.inFlight.Add(-1)
		}
	}
}

// run executes one unit under its own cancellable context.
func (r *Runner) run(ctx context.Context, u *unit) {
	log := r.log.With().Str("job_id", u.jobID).Str("task_id", u.taskID).Str("task", string(u.task)).Logger()

	var taskCtx context.Context
	var cancel context.CancelFunc
	if r.config.Timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
	} else {
		taskCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	r.mu.Lock()
	r.cancels[u.taskID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.cancels, u.taskID)
		r.mu.Unlock()
	}()

	if u.upload != nil {
		defer os.Remove(u.upload.TempPath)
	}

	start := time.Now()
	docs, err := r.execute(taskCtx, u)
	if err != nil {
		if errors.Is(err, errSkipped) {
			log.Debug().Msg("job skipped")
			return
		}
		r.fail(ctx, u.jobID, err, log)
		return
	}

	stored, err := r.transition(ctx, u.jobID, func(j *Job) {
		j.Status = StatusCompleted
		j.Result = NewResult(docs)
		j.Error = ""
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store result")
		return
	}
	if stored {
		log.Info().Int("documents", len(docs)).Dur("elapsed", time.Since(start)).Msg("job completed")
	}
}

// errSkipped means the job was already terminal when a worker reached it.
var errSkipped = errors.New("job skipped")

func (r *Runner) execute(ctx context.Context, u *unit) ([]*model.Document, error) {
	switch u.task {
	case TaskProcessUpload:
		ok, err := r.transition(ctx, u.jobID, func(j *Job) { j.Status = StatusExtracting })
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errSkipped
		}

		path, err := r.saveUpload(u)
		if err != nil {
			return nil, err
		}
		if _, err := r.transition(ctx, u.jobID, func(j *Job) { j.FilePath = path }); err != nil {
			return nil, err
		}
		return r.process(ctx, u.jobID)

	case TaskProcessPath:
		return r.process(ctx, u.jobID)

	default:
		return nil, fmt.Errorf("unknown task %q", u.task)
	}
}

func (r *Runner) saveUpload(u *unit) (string, error) {
	f, err := os.Open(u.upload.TempPath)
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()
	return r.saver.Save(u.jobID, u.upload.Filename, f)
}

func (r *Runner) process(ctx context.Context, jobID string) ([]*model.Document, error) {
	var job *Job
	ok, err := r.transition(ctx, jobID, func(j *Job) {
		j.Status = StatusProcessing
		job = j.Clone()
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errSkipped
	}

	docs, err := r.processor.Path(ctx, job.FilePath, job.MultiDoc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// fail records err on the job unless it is already terminal. Context
// errors after an Abort leave the aborted state in place.
func (r *Runner) fail(ctx context.Context, jobID string, err error, log zerolog.Logger) {
	stored, uerr := r.transition(ctx, jobID, func(j *Job) {
		j.Status = StatusFailed
		j.Error = err.Error()
	})
	if uerr != nil {
		log.Error().Err(uerr).Msg("failed to record job failure")
		return
	}
	if stored {
		log.Error().Err(err).Msg("job failed")
	}
}
