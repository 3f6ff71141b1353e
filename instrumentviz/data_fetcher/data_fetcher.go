/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package datafetcher loads instrument data products: given a descriptor,
// a Loader fetches the data asynchronously, keeps the status surface
// informed, and hands non-empty results to a renderer.
//
// Loads may overlap.  Each Load is numbered, and only the completion of the
// most recently issued Load may change what the user sees; earlier
// completions are discarded on arrival.
package datafetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
	"github.com/ilhamster/instrumentviz/instrumentviz/message"
	"github.com/ilhamster/instrumentviz/instrumentviz/metrics"
	"github.com/ilhamster/instrumentviz/instrumentviz/plot"
	"golang.org/x/sync/errgroup"
)

// Status messages shown while loading.
const (
	LoadingMessage   = "Loading data..."
	NoneFoundMessage = "None found."
	FailedMessage    = "Search failed."
)

// DefaultTimeout is the default limit on a single fetch.
const DefaultTimeout = 30 * time.Second

// ErrInvalidJSON is returned when a fetched response is not valid JSON.
var ErrInvalidJSON = errors.New("response is not valid JSON")

// StatusError is returned when a fetch receives a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (se *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d %s", se.URL, se.StatusCode, http.StatusText(se.StatusCode))
}

// Dispatcher is implemented by types that can render fetched data, such as
// *rendererregistry.Registry.
type Dispatcher interface {
	Dispatch(ctx context.Context, desc instrument.Descriptor, data instrument.Dataset) error
}

type options struct {
	client  *http.Client
	timeout time.Duration
	log     logr.Logger
	metrics *metrics.Fetch
}

// Option specifies a Loader option.
type Option func(opts *options) error

func getOpts(optFns ...Option) (*options, error) {
	ret := &options{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		log:     logr.Discard(),
	}
	for _, optFn := range optFns {
		if err := optFn(ret); err != nil {
			return nil, err
		}
	}
	if ret.metrics == nil {
		ret.metrics = metrics.NewFetch()
	}
	return ret, nil
}

// WithHTTPClient specifies the client fetches are issued through.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) error {
		if client == nil {
			return fmt.Errorf("HTTP client must not be nil")
		}
		opts.client = client
		return nil
	}
}

// WithTimeout limits each fetch to the specified duration.  A zero timeout
// leaves fetches unlimited.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) error {
		if timeout < 0 {
			return fmt.Errorf("fetch timeout must not be negative, got %v", timeout)
		}
		opts.timeout = timeout
		return nil
	}
}

// WithLogger specifies the Loader's logger.
func WithLogger(log logr.Logger) Option {
	return func(opts *options) error {
		opts.log = log
		return nil
	}
}

// WithMetrics specifies the metrics fetch outcomes are recorded into.
func WithMetrics(m *metrics.Fetch) Option {
	return func(opts *options) error {
		opts.metrics = m
		return nil
	}
}

// Loader fetches and renders instrument data products.  It is safe for
// concurrent use.
type Loader struct {
	dispatcher Dispatcher
	session    *plot.Session
	surface    *message.Surface
	opts       *options

	inFlight errgroup.Group

	// mu serializes Load bookkeeping and completions, so that checking a
	// completion's sequence number and updating the UI happen atomically.
	mu     sync.Mutex
	latest uint64
}

// New returns a new Loader, rendering with dispatcher into session and
// reporting status to surface.
func New(dispatcher Dispatcher, session *plot.Session, surface *message.Surface, optFns ...Option) (*Loader, error) {
	opts, err := getOpts(optFns...)
	if err != nil {
		return nil, err
	}
	return &Loader{
		dispatcher: dispatcher,
		session:    session,
		surface:    surface,
		opts:       opts,
	}, nil
}

// Load disposes of the current chart, shows the loading message, and begins
// fetching desc's data in the background, returning the new load's sequence
// number.  When the fetch completes, if no later Load was issued meanwhile,
// its result is shown: 'None found.' for empty data, 'Search failed.' on
// failure, or otherwise a rendering of the data.
//
// The fetch is not canceled when ctx is, but it observes ctx's values.
func (l *Loader) Load(ctx context.Context, desc instrument.Descriptor) uint64 {
	l.mu.Lock()
	l.latest++
	seq := l.latest
	l.session.Dispose()
	l.session.SetState(plot.Loading)
	l.surface.SetText(LoadingMessage)
	l.mu.Unlock()

	l.opts.log.V(1).Info("loading", "seq", seq, "descriptor", desc.String())
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	l.inFlight.Go(func() error {
		data, err := l.fetch(ctx, desc)
		l.complete(ctx, seq, desc, data, err, time.Since(start))
		return nil
	})
	return seq
}

// Latest returns the sequence number of the most recently issued Load.
func (l *Loader) Latest() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// Wait blocks until all in-flight fetches have completed.  Wait must not be
// called concurrently with Load.
func (l *Loader) Wait() {
	l.inFlight.Wait()
}

func (l *Loader) fetch(ctx context.Context, desc instrument.Descriptor) (instrument.Dataset, error) {
	if l.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.DataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for '%s': %w", desc.DataURL, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.opts.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: desc.DataURL, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from '%s': %w", desc.DataURL, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidJSON, desc.DataURL)
	}
	return instrument.Dataset(body), nil
}

func (l *Loader) complete(ctx context.Context, seq uint64, desc instrument.Descriptor, data instrument.Dataset, fetchErr error, latency time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.opts.log.WithValues("seq", seq, "descriptor", desc.String())
	if seq != l.latest {
		log.V(1).Info("discarding stale fetch", "latest", l.latest)
		l.opts.metrics.Observe(metrics.Stale, latency)
		return
	}
	if fetchErr != nil {
		log.Error(fetchErr, "fetch failed")
		l.fail(latency)
		return
	}
	if data.Empty() {
		log.V(1).Info("fetch found no data")
		l.surface.SetText(NoneFoundMessage)
		l.session.SetState(plot.EmptyResult)
		l.opts.metrics.Observe(metrics.Empty, latency)
		return
	}
	l.surface.ClearMessage()
	if err := l.dispatcher.Dispatch(ctx, desc, data); err != nil {
		log.Error(err, "render failed")
		l.fail(latency)
		return
	}
	log.V(1).Info("rendered", "latency", latency)
	l.session.SetState(plot.Rendered)
	l.opts.metrics.Observe(metrics.Loaded, latency)
}

func (l *Loader) fail(latency time.Duration) {
	l.surface.SetText(FailedMessage)
	l.session.SetState(plot.Error)
	l.opts.metrics.Observe(metrics.Failed, latency)
}
