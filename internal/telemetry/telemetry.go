/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry is the opt-in, anonymous sender for gesture summaries
// and crash reports. It never blocks the caller: events go through a bounded
// queue and are dropped when it is full or when sending fails.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"goslides/internal/config"
	applog "goslides/internal/log"
	"goslides/internal/version"
)

// Config holds runtime configuration for telemetry and crash uploads.
//
// Environment variables (read by FromEnv):
//   - GSL_TELEMETRY_OPT_IN: "1", "true", "yes" to enable
//   - GSL_TELEMETRY_URL: URL events are POSTed to as JSON
//   - GSL_CRASH_UPLOAD_URL: URL crash reports are POSTed to
//   - GSL_TELEMETRY_TIMEOUT_MS: request timeout, default 1500ms
//   - GSL_TELEMETRY_DEBUG: log send attempts
//
// Without a URL nothing is sent, even when opted in.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

const defaultTimeout = 1500 * time.Millisecond

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("GSL_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("GSL_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("GSL_CRASH_UPLOAD_URL")),
		Timeout:      defaultTimeout,
		DebugLogging: os.Getenv("GSL_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("GSL_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

// FromApp derives the config from the loaded user settings. The crash URL
// and debug switches stay env-only.
func FromApp(g config.GeneralConfig) Config {
	cfg := FromEnv()
	cfg.OptIn = g.TelemetryOptIn
	if g.TelemetryURL != "" {
		cfg.EventsURL = g.TelemetryURL
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Stats counts what happened to queued events.
type Stats struct {
	Sent    int64
	Dropped int64
	Failed  int64
}

// Client is a minimal async sender.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan map[string]any
	pending atomic.Int64
	once    sync.Once
	closed  chan struct{}

	sent, dropped, failed atomic.Int64
}

var (
	defaultClient *Client
	defaultMu     sync.Mutex
)

// Default returns the package client, created from env on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault installs c as the package client and closes the previous one.
func SetDefault(c *Client) {
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
}

// New constructs a client and starts its sender goroutine.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events are opted in and have somewhere to go.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports the state of the package client.
func Enabled() bool { return Default().Enabled() }

// scalar keeps only numbers, booleans and short strings so payloads carry
// no document content.
func scalar(v any) (any, bool) {
	switch x := v.(type) {
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return x, true
	case string:
		if len(x) <= 64 {
			return x, true
		}
	}
	return nil, false
}

// Event queues a JSON event if enabled. Safe to call from any goroutine.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		if _, reserved := payload[k]; reserved {
			continue
		}
		if s, ok := scalar(v); ok {
			payload[k] = s
		}
	}
	c.pending.Add(1)
	select {
	case <-c.closed:
		c.pending.Add(-1)
		c.dropped.Add(1)
	case c.q <- payload:
	default:
		c.pending.Add(-1)
		c.dropped.Add(1)
	}
}

// Record satisfies the editor's Reporter: gesture summaries become events.
func (c *Client) Record(event string, props map[string]any) { c.Event(event, props) }

// Event using the package client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// Flush waits until queued events were attempted or ctx is done.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for c.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Stats returns the counters so far.
func (c *Client) Stats() Stats {
	return Stats{Sent: c.sent.Load(), Dropped: c.dropped.Load(), Failed: c.failed.Load()}
}

// Close stops the sender; queued events are discarded.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
		for {
			select {
			case <-c.q:
				c.dropped.Add(1)
				c.pending.Add(-1)
			default:
				return
			}
		}
	})
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.send(item)
			c.pending.Add(-1)
		}
	}
}

func (c *Client) post(url, contentType string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "unexpected status " + http.StatusText(e.code) }

func (c *Client) send(item map[string]any) {
	buf, err := json.Marshal(item)
	if err != nil {
		c.failed.Add(1)
		return
	}
	if err := c.post(c.cfg.EventsURL, "application/json", buf); err != nil {
		c.failed.Add(1)
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.Any("err", err))
		}
		return
	}
	c.sent.Add(1)
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry event sent", slog.Any("name", item["name"]))
	}
}

// UploadCrash posts a serialized crash report if opted in and a crash URL is
// set. The returned channel is closed once the attempt finished; it is
// already closed when nothing is sent.
func (c *Client) UploadCrash(report []byte) <-chan struct{} {
	done := make(chan struct{})
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		close(done)
		return done
	}
	go func(b []byte) {
		defer close(done)
		if err := c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b); err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
	return done
}

// UploadCrash using the package client.
func UploadCrash(report []byte) <-chan struct{} { return Default().UploadCrash(report) }
