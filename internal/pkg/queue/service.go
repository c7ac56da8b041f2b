package queue

import (
	"sync"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var errNoProcessor = errors.New("No processor provided")

// Processor does the actual work for one queued call
type Processor interface {
	Process(callID int64) error
}

//Service keeps pending call IDs and feeds them one by one
//to a single worker in arrival order.
//The worker starts on the first Enqueue and survives processor failures
type Service struct {
	proc Processor

	m       sync.Mutex
	items   []int64
	pending map[int64]struct{}
	started bool
	running bool

	notify chan struct{}
	quit   chan struct{}
	wg     sync.WaitGroup

	depthGauge prometheus.Gauge
	doneCount  prometheus.Counter
}

//NewService creates the queue service
func NewService(proc Processor) (*Service, error) {
	if proc == nil {
		return nil, errNoProcessor
	}
	s := &Service{proc: proc,
		pending: make(map[int64]struct{}),
		notify:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		depthGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "callsight_queue_depth",
			Help: "Count of calls waiting for processing"}),
		doneCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "callsight_queue_processed_total",
			Help: "Count of processed queue items"})}
	err := metrics.Register(s.depthGauge)
	if err != nil {
		return nil, err
	}
	err = metrics.Register(s.doneCount)
	if err != nil {
		return nil, err
	}
	return s, nil
}

//Enqueue adds a call to the tail of the queue.
//A call already waiting or being processed is not added again, the backlog
//loop polls PROCESSING calls and would otherwise queue the same ID repeatedly.
//Once a call finishes it can be enqueued anew.
//The worker is started if it is not running yet
func (s *Service) Enqueue(callID int64) {
	s.m.Lock()
	if _, ok := s.pending[callID]; ok {
		s.m.Unlock()
		return
	}
	s.pending[callID] = struct{}{}
	s.items = append(s.items, callID)
	s.depthGauge.Set(float64(len(s.items)))
	start := !s.started
	s.started = true
	s.m.Unlock()
	if start {
		s.startWorker()
	}
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

//Depth returns the count of waiting calls
func (s *Service) Depth() int {
	s.m.Lock()
	defer s.m.Unlock()
	return len(s.items)
}

//Running tells if the worker is busy with a call right now
func (s *Service) Running() bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.running
}

//Stop terminates the worker and waits for the current call to finish
func (s *Service) Stop() {
	s.m.Lock()
	started := s.started
	s.started = false
	s.m.Unlock()
	if !started {
		return
	}
	close(s.quit)
	s.wg.Wait()
}

func (s *Service) startWorker() {
	cmdapp.Log.Info("Starting queue worker")
	s.wg.Add(1)
	go s.work()
}

func (s *Service) work() {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-s.notify:
		case <-ticker.C:
		}
		for s.processNext() {
			select {
			case <-s.quit:
				return
			default:
			}
		}
	}
}

func (s *Service) processNext() bool {
	s.m.Lock()
	if len(s.items) == 0 {
		s.m.Unlock()
		return false
	}
	id := s.items[0]
	s.items = s.items[1:]
	s.depthGauge.Set(float64(len(s.items)))
	s.running = true
	s.m.Unlock()

	err := s.proc.Process(id)
	if err != nil {
		cmdapp.Log.Errorf("Call %d processing failed: %v", id, err)
	}
	s.doneCount.Inc()

	s.m.Lock()
	s.running = false
	delete(s.pending, id)
	s.m.Unlock()
	return true
}
