//go:build !windows

// Package stderr captures output that C libraries (ALSA, miniaudio) write
// straight to file descriptor 2 and forwards it to the logger, so it cannot
// corrupt the terminal UI.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// Capture redirects fd 2 into a pipe while active.
type Capture struct {
	mu        sync.Mutex
	orig      int
	pipeRead  *os.File
	pipeWrite *os.File
	done      chan struct{}
	started   bool
}

// Start begins capturing stderr. Each non-empty line is logged at warn level
// with component=stderr. It must run before any C library initialization.
// On error the program can continue; output just goes to the real stderr.
func Start(log zerolog.Logger) (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	orig, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{
		orig:      orig,
		pipeRead:  r,
		pipeWrite: w,
		done:      make(chan struct{}),
		started:   true,
	}

	log = log.With().Str("component", "stderr").Logger()
	go func() {
		defer close(c.done)
		forward(r, log)
	}()

	return c, nil
}

func forward(r *os.File, log zerolog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			log.Warn().Msg(line)
		}
	}
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
// Used for fatal errors that must stay visible.
func (c *Capture) WriteOriginal(msg string) {
	if c == nil {
		_, _ = os.Stderr.WriteString(msg)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		_, _ = syscall.Write(c.orig, []byte(msg))
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores the original stderr and waits for the forwarder to drain.
func (c *Capture) Stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false

	_ = syscall.Dup2(c.orig, int(os.Stderr.Fd()))
	_ = syscall.Close(c.orig)
	c.pipeWrite.Close()
	c.mu.Unlock()

	<-c.done
	c.pipeRead.Close()
}
