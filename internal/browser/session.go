// Package browser owns headless-browser sessions. One Session maps to one
// browser tab; executors create a Session per scan and must Close it on
// every exit path.
package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/accessify/insight/internal/model"
)

// Options configures a Session.
type Options struct {
	// Headless disables the visible browser window.
	Headless bool

	// IdleAfter is how long the network must stay quiet after navigation
	// before the page counts as settled.
	IdleAfter time.Duration
}

// Session is a single exclusive browser tab plus the network bookkeeping
// gathered while it loads pages.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc

	idleAfter time.Duration

	tally *resourceTally
	idle  chan struct{}
}

// NewSession launches a browser tab. The caller owns the session exclusively
// and must call Close when done.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	if opts.IdleAfter <= 0 {
		opts.IdleAfter = 2 * time.Second
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:       tabCtx,
		cancels:   []context.CancelFunc{cancelTab, cancelAlloc},
		idleAfter: opts.IdleAfter,
		tally:     newResourceTally(),
	}
	s.idle = s.listen()
	return s, nil
}

// listen wires a target listener that tracks in-flight requests for the
// network-idle signal and tallies completed resources by type.
func (s *Session) listen() chan struct{} {
	idleChan := make(chan struct{}, 1)
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(s.idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(s.ctx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventResponseReceived:
			s.tally.setType(string(e.RequestID), e.Type.String())
		case *network.EventLoadingFinished:
			s.tally.finish(string(e.RequestID), int64(e.EncodedDataLength))
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		case *network.EventLoadingFailed:
			s.tally.drop(string(e.RequestID))
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idleChan
}

// Navigate loads url and blocks until the network has been idle for the
// configured window, or timeout elapses. Navigation must complete before
// any evaluation runs against the page.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(navCtx,
		network.Enable(),
		chromedp.Navigate(url),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	select {
	case <-s.idle:
		return nil
	case <-navCtx.Done():
		// Page loaded but never went quiet within the window; proceed with
		// whatever has rendered.
		return nil
	}
}

// Evaluate runs a JavaScript expression in the page and decodes the result
// into out (which may be nil to discard it).
func (s *Session) Evaluate(ctx context.Context, expr string, out any) error {
	evalCtx := s.ctx
	if ctx != nil {
		var cancel context.CancelFunc
		if deadline, ok := ctx.Deadline(); ok {
			evalCtx, cancel = context.WithDeadline(s.ctx, deadline)
			defer cancel()
		}
	}
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// EvaluatePromise runs a JavaScript expression that yields a promise and
// decodes the settled value into out.
func (s *Session) EvaluatePromise(ctx context.Context, expr string, out any) error {
	evalCtx := s.ctx
	if ctx != nil {
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			evalCtx, cancel = context.WithDeadline(s.ctx, deadline)
			defer cancel()
		}
	}
	err := chromedp.Run(evalCtx, chromedp.Evaluate(expr, out,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return fmt.Errorf("evaluate promise: %w", err)
	}
	return nil
}

// OuterHTML returns the rendered document markup.
func (s *Session) OuterHTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("outer html: %w", err)
	}
	return html, nil
}

// Resources returns the breakdown of everything fetched so far.
func (s *Session) Resources() model.ResourceBreakdown {
	return s.tally.breakdown()
}

// Close tears the tab and browser down. Safe to call multiple times.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// resourceTally accumulates per-type resource counts and transfer sizes
// from network events.
type resourceTally struct {
	mu    sync.Mutex
	types map[string]string // requestID -> resource type
	count map[string]int
	size  int64
	total int
}

func newResourceTally() *resourceTally {
	return &resourceTally{
		types: make(map[string]string),
		count: make(map[string]int),
	}
}

func (t *resourceTally) setType(requestID, resourceType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types[requestID] = resourceType
}

func (t *resourceTally) finish(requestID string, transferred int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	typ, ok := t.types[requestID]
	if !ok {
		typ = "Other"
	}
	delete(t.types, requestID)
	t.count[typ]++
	t.total++
	t.size += transferred
}

func (t *resourceTally) drop(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.types, requestID)
}

func (t *resourceTally) breakdown() model.ResourceBreakdown {
	t.mu.Lock()
	defer t.mu.Unlock()
	byType := make(map[string]int, len(t.count))
	for k, v := range t.count {
		byType[k] = v
	}
	return model.ResourceBreakdown{
		Total:        t.total,
		TransferSize: t.size,
		ByType:       byType,
	}
}
