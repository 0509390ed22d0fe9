// Package reporter sends the hardware report of an installation once per
// report version.
//
// Run checks the persisted version, collects facts, and hands the upload to
// the sender without waiting. The returned Attempt completes when the
// sender's result has been applied: on success the persisted version is
// advanced, on failure it is left alone so the next launch tries again.
package reporter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-tangra/go-tangra-hwreport/internal/collector"
	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
	"github.com/go-tangra/go-tangra-hwreport/internal/sender"
)

const (
	// ReportVersion identifies the set of collected fields. Bump it when
	// fields are added or changed so every installation reports again.
	ReportVersion = 1
	// ReportType tags the upload as a hardware detection report.
	ReportType = "hwdetect"
	// DefaultUserID is the user id every report is filed under.
	DefaultUserID = 3
)

// ErrRejected is the failure recorded when the server answers with its
// error page.
var ErrRejected = errors.New("report rejected by server")

// State is the persisted record of the last successfully uploaded version.
type State interface {
	LastReportedVersion() int
	SetLastReportedVersion(v int)
}

// FactSource builds the facts of a report.
type FactSource interface {
	Collect(ctx context.Context) *collector.Facts
}

// Submitter queues an upload and delivers its result later.
type Submitter interface {
	Submit(req *sender.Request) <-chan sender.Result
}

// Config holds the envelope and destination of reports.
type Config struct {
	Endpoint string
	UserID   int
	Version  int
	Type     string
	// Submit false computes and logs the report without uploading it.
	Submit bool
	// ClientSecret is sent as X-Client-Secret when set.
	ClientSecret string
}

// DefaultConfig returns the production envelope.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint: endpoint,
		UserID:   DefaultUserID,
		Version:  ReportVersion,
		Type:     ReportType,
		Submit:   true,
	}
}

// Reporter runs the report workflow. A Reporter submits at most once.
type Reporter struct {
	cfg     Config
	state   State
	facts   FactSource
	sender  Submitter
	log     *log.Logger
	jsonLog *log.Logger
	now     func() time.Time

	started atomic.Bool
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithClock replaces time.Now for the envelope timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// New returns a Reporter.
func New(cfg Config, state State, facts FactSource, sub Submitter, opts ...Option) *Reporter {
	r := &Reporter{
		cfg:     cfg,
		state:   state,
		facts:   facts,
		sender:  sub,
		log:     logging.Get("HW report"),
		jsonLog: logging.Get("json"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the workflow and returns without waiting for the upload.
func (r *Reporter) Run(ctx context.Context) *Attempt {
	a := newAttempt(r.cfg.Version)
	a.set(StatusChecking)

	if last := r.state.LastReportedVersion(); last >= r.cfg.Version {
		r.log.Debug("hardware report already sent", "version", r.cfg.Version, "last", last)
		a.finish(StatusSkipped, nil)
		return a
	}
	if !r.started.CompareAndSwap(false, true) {
		r.log.Warn("hardware report already submitted in this process", "version", r.cfg.Version)
		a.finish(StatusSkipped, nil)
		return a
	}

	a.set(StatusCollecting)
	facts := r.facts.Collect(ctx)
	a.setFacts(facts)

	a.set(StatusSerializing)
	data := facts.String()
	r.jsonLog.Debugf("'%s'", data)

	if !r.cfg.Submit {
		r.log.Info("Report submission disabled; not uploading.", "version", r.cfg.Version)
		a.finish(StatusLogged, nil)
		return a
	}

	req := &sender.Request{
		URL:    r.cfg.Endpoint,
		Params: r.envelope(data),
	}
	if r.cfg.ClientSecret != "" {
		req.Header = http.Header{"X-Client-Secret": {r.cfg.ClientSecret}}
	}
	a.set(StatusSubmitted)
	results := r.sender.Submit(req)
	go r.complete(a, results)

	return a
}

func (r *Reporter) envelope(data string) url.Values {
	return url.Values{
		"user_id": {strconv.Itoa(r.cfg.UserID)},
		"time":    {strconv.FormatInt(r.now().Unix(), 10)},
		"type":    {r.cfg.Type},
		"version": {strconv.Itoa(r.cfg.Version)},
		"data":    {data},
	}
}

func (r *Reporter) complete(a *Attempt, results <-chan sender.Result) {
	res := <-results

	if res.Failed() {
		r.log.Error("Error uploading the HW report.")
		var err error
		if res.Err != nil {
			r.log.Error(res.Err.Error(), "request_id", res.RequestID)
			err = res.Err
		} else {
			r.log.Error(res.Body, "request_id", res.RequestID)
			err = fmt.Errorf("%w: %s", ErrRejected, res.Body)
		}
		a.finish(StatusFailed, err)
		return
	}

	r.log.Info("Upload successful.", "version", a.Version, "request_id", res.RequestID)
	r.state.SetLastReportedVersion(a.Version)
	a.finish(StatusSucceeded, nil)
}

// Attempt is one run of the workflow.
type Attempt struct {
	Version int

	mu     sync.Mutex
	status Status
	err    error
	facts  *collector.Facts
	done   chan struct{}
}

func newAttempt(version int) *Attempt {
	return &Attempt{Version: version, status: StatusIdle, done: make(chan struct{})}
}

func (a *Attempt) set(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

func (a *Attempt) setFacts(f *collector.Facts) {
	a.mu.Lock()
	a.facts = f
	a.mu.Unlock()
}

func (a *Attempt) finish(s Status, err error) {
	a.mu.Lock()
	a.status = s
	a.err = err
	a.mu.Unlock()
	close(a.done)
}

// Status returns the current state.
func (a *Attempt) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Err returns the failure detail of a Failed attempt.
func (a *Attempt) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Facts returns the collected facts, or nil if collection did not run.
func (a *Attempt) Facts() *collector.Facts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.facts
}

// Done is closed when the attempt reaches a terminal state.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Wait blocks until the attempt finishes or ctx ends. The returned error is
// ctx.Err() in the latter case; upload failures are reported via the status
// and Err, not here.
func (a *Attempt) Wait(ctx context.Context) (Status, error) {
	select {
	case <-a.done:
		return a.Status(), nil
	case <-ctx.Done():
		return a.Status(), ctx.Err()
	}
}
