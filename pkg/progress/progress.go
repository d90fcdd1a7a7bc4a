package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sonemaro/dtaprep/pkg/logger"
	"golang.org/x/term"
)

type progress struct {
	config Config
	log    logger.Logger
	writer io.Writer

	status    Status
	startTime time.Time
	message   string
	rendered  bool

	renderer renderer
	width    int

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a new progress visualization instance writing to stdout
func New(config Config, log logger.Logger) Progress {
	if config.RefreshRate == 0 {
		config.RefreshRate = 100 * time.Millisecond
	}
	if config.Style == "" {
		config.Style = StyleLine
	}

	p := &progress{
		config: config,
		log:    log,
		writer: os.Stdout,
	}

	if p.config.Width == 0 {
		p.width = p.getTerminalWidth()
	} else {
		p.width = p.config.Width
	}
	p.renderer = p.createRenderer()

	p.log.WithFields(logger.Fields{
		"style":     p.config.Style,
		"width":     p.width,
		"showStats": p.config.ShowStats,
		"noColor":   p.config.NoColor,
		"refresh":   p.config.RefreshRate,
	}).Debug("Created new progress instance")

	return p
}

func (p *progress) Start(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Starting progress")

	p.message = message
	p.startTime = time.Now()

	// the line style redraws on every Update, only the bar needs a ticker
	if p.config.Style == StyleBar && !p.running {
		p.running = true
		p.stopChan = make(chan struct{})
		p.doneChan = make(chan struct{})
		go p.renderLoop(p.stopChan, p.doneChan)
	}
}

func (p *progress) Update(status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"current": status.Current,
		"total":   status.Total,
		"item":    status.CurrentItem,
	}).Trace("Updating progress")

	p.status = status
	p.render()
}

func (p *progress) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLine()
}

func (p *progress) Complete(message string) {
	p.stopLoop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Completing progress")

	if p.config.Style == StyleBar {
		p.status.Current = p.status.Total
		p.render()
		if p.config.HideAfterComplete {
			p.clearLine()
		} else {
			fmt.Fprintln(p.writer)
		}
	} else {
		p.clearLine()
	}

	if message != "" {
		fmt.Fprintln(p.writer, message)
	}
}

func (p *progress) Stop() {
	p.log.Debug("Stopping progress")

	p.stopLoop()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLine()
}

func (p *progress) IsSupportedTerminal() bool {
	if f, ok := p.writer.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// stopLoop must be called without p.mu held; the loop takes it on every tick
func (p *progress) stopLoop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stopChan, p.doneChan
	p.mu.Unlock()

	close(stop)
	<-done
}

func (p *progress) renderLoop(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(p.config.RefreshRate)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.render()
			p.mu.Unlock()
		}
	}
}

// render is called with p.mu held
func (p *progress) render() {
	output := p.renderer.render(p.status, p.message, p.calculateStats())
	if output == "" {
		return
	}

	if p.config.Style == StyleLine && !p.IsSupportedTerminal() {
		// no carriage-return tricks in logs and pipes
		fmt.Fprintln(p.writer, output)
		return
	}

	p.clearLine()
	fmt.Fprint(p.writer, output)
	p.rendered = true
}

func (p *progress) clearLine() {
	if !p.rendered {
		return
	}
	if p.IsSupportedTerminal() {
		fmt.Fprint(p.writer, "\r\033[K")
	} else {
		fmt.Fprint(p.writer, "\r")
	}
	p.rendered = false
}

func (p *progress) getTerminalWidth() int {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			return w
		}
	}

	return 80
}

func (p *progress) calculateStats() Statistics {
	now := time.Now()
	elapsed := now.Sub(p.startTime)

	stats := Statistics{
		StartTime:      p.startTime,
		ElapsedTime:    elapsed,
		BytesProcessed: p.status.BytesRead,
		ItemsProcessed: p.status.ItemsProcessed,
	}

	if p.status.Total > 0 {
		stats.ProgressPercentage = float64(p.status.Current) / float64(p.status.Total) * 100
	}

	if p.status.ItemsProcessed > 0 && elapsed > 0 {
		stats.ProcessingSpeed = float64(p.status.ItemsProcessed) / elapsed.Seconds()

		remaining := p.status.Total - p.status.ItemsProcessed
		if remaining > 0 {
			stats.RemainingTime = time.Duration(float64(remaining) / stats.ProcessingSpeed * float64(time.Second))
		}
	}

	return stats
}

func (p *progress) createRenderer() renderer {
	if p.config.Style == StyleBar {
		return newBarRenderer(p.width, p.config.NoColor, p.config.ShowStats)
	}
	return &lineRenderer{}
}

// Disabled returns a Progress that draws nothing (--no-progress)
func Disabled() Progress {
	return nop{}
}

type nop struct{}

func (nop) Start(string)              {}
func (nop) Update(Status)             {}
func (nop) Clear()                    {}
func (nop) Complete(string)           {}
func (nop) Stop()                     {}
func (nop) IsSupportedTerminal() bool { return false }
