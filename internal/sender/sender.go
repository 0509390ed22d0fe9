package sender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
)

// BadRequestBody is the page the stats server answers malformed uploads with.
const BadRequestBody = "<h1>Bad Request (400)</h1>"

const (
	defaultTimeout   = 30 * time.Second
	defaultQueueSize = 16
	maxResponseBytes = 64 << 10
)

var (
	// ErrClosed is delivered for requests submitted after Close.
	ErrClosed = errors.New("sender closed")
	// ErrQueueFull is delivered when the request queue has no room.
	ErrQueueFull = errors.New("sender queue full")
	// ErrUnexpectedStatus wraps non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Request is a form POST waiting to be sent.
type Request struct {
	URL    string
	Params url.Values
	// ID is sent as X-Request-Id. A UUID is generated when empty.
	ID string
	// Header holds extra request headers such as X-Client-Secret.
	Header http.Header
}

// Result is the outcome of one Request.
type Result struct {
	RequestID  string
	StatusCode int
	Body       string
	Err        error
}

// Rejected reports whether the server answered with its error page.
func (r Result) Rejected() bool {
	return strings.TrimSpace(r.Body) == BadRequestBody
}

// Failed reports a transport error, a non-2xx status or an error page.
func (r Result) Failed() bool {
	return r.Err != nil || r.Rejected()
}

type job struct {
	req    *Request
	result chan Result
}

// Client sends requests on a single background worker. Submit never blocks.
type Client struct {
	http  *http.Client
	log   *log.Logger
	queue chan *job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request, including reading the response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithQueueSize sets how many requests may wait for the worker.
func WithQueueSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.queue = make(chan *job, n)
		}
	}
}

// New starts a Client and its worker.
func New(opts ...Option) *Client {
	c := &Client{
		http:  &http.Client{Timeout: defaultTimeout},
		log:   logging.Get("sender"),
		queue: make(chan *job, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.run()
	return c
}

// Submit enqueues req and returns a channel that receives exactly one Result.
func (c *Client) Submit(req *Request) <-chan Result {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	j := &job{req: req, result: make(chan Result, 1)}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		j.result <- Result{RequestID: req.ID, Err: ErrClosed}
		return j.result
	}
	select {
	case c.queue <- j:
	default:
		j.result <- Result{RequestID: req.ID, Err: ErrQueueFull}
	}
	return j.result
}

// Close stops accepting requests and waits for queued ones to finish.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Client) run() {
	defer c.wg.Done()
	for j := range c.queue {
		j.result <- c.do(j.req)
	}
}

func (c *Client) do(req *Request) Result {
	res := Result{RequestID: req.ID}

	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, req.URL, strings.NewReader(req.Params.Encode()))
	if err != nil {
		res.Err = fmt.Errorf("build request: %w", err)
		return res
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("X-Request-Id", req.ID)

	c.log.Debug("posting", "url", req.URL, "request_id", req.ID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		res.Err = fmt.Errorf("post %s: %w", req.URL, err)
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		res.Err = fmt.Errorf("read response: %w", err)
		return res
	}
	res.Body = string(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return res
}
