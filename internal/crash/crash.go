/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in an entry point into a report file, a
// best-effort rescue of unsaved element geometry and an optional upload.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "goslides/internal/log"
	"goslides/internal/telemetry"
	"goslides/internal/version"
)

// exitFn is swapped in tests so Recover does not end the process.
var exitFn = os.Exit

// Handler describes where reports go and what to rescue. A nil Handler
// writes to the temp dir and rescues nothing.
type Handler struct {
	// Dir receives crash-*.log files; os.TempDir when empty.
	Dir string
	// Rescue persists unsaved state, such as the geometry of the element
	// being dragged, and returns a short description of what was written.
	Rescue func() (string, error)
	// Upload sends the report; telemetry.UploadCrash when nil.
	Upload func([]byte) <-chan struct{}
	// Gesture names the input state when the panic happened, if known.
	Gesture func() string
}

// Recover must be deferred directly:
//
//	defer crash.Recover(h)
func Recover(h *Handler) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(h, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if h != nil && h.Rescue != nil {
		if what, err := rescue(h.Rescue); err != nil {
			l.Error("rescue failed", slog.Any("err", err))
		} else {
			l.Info("unsaved state rescued", slog.String("what", what))
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

// rescue runs fn, turning a second panic into an error.
func rescue(fn func() (string, error)) (what string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rescue panicked: %v", r)
		}
	}()
	return fn()
}

func writeReport(h *Handler, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Dir != "" {
		dir = h.Dir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create crash dir: %w", err)
		}
	}
	stamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "GoSlides Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil && h.Gesture != nil {
		_, _ = fmt.Fprintf(&buf, "Gesture: %s\n", h.Gesture())
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}

	upload := telemetry.UploadCrash
	if h != nil && h.Upload != nil {
		upload = h.Upload
	}
	// Give an upload a moment before the process exits.
	select {
	case <-upload(buf.Bytes()):
	case <-time.After(2 * time.Second):
	}
	return path, nil
}
