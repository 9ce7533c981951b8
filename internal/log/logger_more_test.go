/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("GSL_LOG_LEVEL", "warn")
	t.Setenv("GSL_LOG_FORMAT", "json")
	t.Setenv("GSL_LOG_SOURCE", "true")
	// GSL_LOG_FILE intentionally unset

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	// Also verify getenv default fallback when var missing
	if err := os.Unsetenv("SOME_UNSET_VAR"); err != nil {
		t.Fatalf("Unsetenv error: %v", err)
	}
	if v := getenv("SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestPrettyTextHandler_Behavior(t *testing.T) {
	// Capture output into a buffer
	var buf bytes.Buffer
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelWarn, AddSource: true}, w: &buf}

	// Enabled should filter below WARN
	if h.Enabled(nil, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(nil, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	// WithAttrs and WithGroup should accumulate
	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")})
	h2 = h2.WithGroup("grp")

	// Build a record and handle it
	r := slog.Record{Time: time.Now(), Level: slog.LevelError, Message: "boom"}
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.Bool("ok", true))
	if err := h2.Handle(nil, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "k=v") {
		t.Fatalf("output missing expected content: %q", out)
	}
	// Grouped key should appear as prefix
	if !strings.Contains(out, "grp.n=42") {
		t.Fatalf("grouped attr missing or malformed: %q", out)
	}

	// Spot check level and value stringers
	if !strings.Contains(out, "ERR") { // levelString
		t.Fatalf("expected ERR level tag in output: %q", out)
	}
	if !strings.Contains(out, "pi=3.14") {
		t.Fatalf("expected shortest float: %q", out)
	}
}

func TestPrettyTextHandler_Values(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(&prettyTextHandler{opts: prettyOpts{Level: slog.LevelDebug}, w: &buf})
	l.Debug("frame",
		slog.Float64("left", 480),
		slog.Float64("top", 0.5),
		slog.String("content", "Hello world"),
		slog.Duration("took", 250*time.Millisecond),
		slog.Group("snap", slog.String("dir", "left"), slog.Float64("offset", -19)),
	)
	out := buf.String()
	for _, want := range []string{"left=480 ", "top=0.5", `content="Hello world"`, "took=250ms", "snap.dir=left", "snap.offset=-19"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestWithGesture(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(&prettyTextHandler{opts: prettyOpts{Level: slog.LevelDebug}, w: &buf}).With(slog.String("component", "editor"))
	WithGesture(base, "resize", "photo").Debug("resize end", slog.Float64("dw", 40))
	out := buf.String()
	if !strings.Contains(out, "component=editor gesture=resize element=photo dw=40") {
		t.Fatalf("gesture attrs missing: %q", out)
	}
	if WithGesture(nil, "drag", "x") == nil {
		t.Fatalf("nil base must fall back to the global logger")
	}
}

func TestContextWith_EnrichesRecords(t *testing.T) {
	var buf bytes.Buffer
	h := withEnricher(&prettyTextHandler{opts: prettyOpts{Level: slog.LevelDebug}, w: &buf})
	l := slog.New(h)

	ctx := ContextWith(context.Background(), slog.String("gesture", "drag"))
	ctx = ContextWith(ctx, slog.String("element", "e1"))
	l.InfoContext(ctx, "gesture end")

	out := buf.String()
	if !strings.Contains(out, "gesture=drag") || !strings.Contains(out, "element=e1") {
		t.Fatalf("context attrs missing: %q", out)
	}
}

func TestDiscard_DropsEverything(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("discard logger must not be enabled")
	}
}
