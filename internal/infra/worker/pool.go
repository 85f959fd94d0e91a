package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Submit when every worker is busy and the buffer is full.
var ErrQueueFull = errors.New("worker queue full")

type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	once sync.Once
	n    int
	log  *zerolog.Logger
}

// NewPool sizes the queue at four slots per worker. workers <= 0 means one per CPU.
func NewPool(name string, workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	l := logger.With().Str("component", "worker").Str("pool", name).Logger()
	return &Pool{jobs: make(chan Task, workers*4), quit: make(chan struct{}), n: workers, log: &l}
}

func (p *Pool) Size() int { return p.n }

// Start launches the workers. They exit when ctx is done or Stop is called;
// tasks still queued at that point are dropped.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					p.run(ctx, id, task)
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Err(err).Int("worker", id).Msg("task failed")
	}
}

// Stop signals the workers and waits for in-flight tasks. Safe to call twice.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit queues task without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		return ErrQueueFull
	}
}
