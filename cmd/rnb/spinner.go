package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

const fetchSpinnerDelay = 150 * time.Millisecond

// startDelayedSpinner draws a spinner on stderr once delay has elapsed and
// returns a func that erases it. Nothing is drawn when stderr is not a TTY.
func startDelayedSpinner(message string, delay time.Duration) func() {
	if strings.TrimSpace(message) == "" {
		message = "Working..."
	}
	if !isInteractiveTerminal(os.Stderr) {
		return func() {}
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		timer := time.NewTimer(max(delay, 0))
		defer timer.Stop()
		select {
		case <-done:
			return
		case <-timer.C:
		}

		s := spinner.Dot
		style := lipgloss.NewStyle().Foreground(accentColor)
		ticker := time.NewTicker(s.FPS)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(os.Stderr, "\r%s %s", style.Render(s.Frames[i%len(s.Frames)]), message)
			select {
			case <-done:
				fmt.Fprint(os.Stderr, "\r\033[2K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
		})
	}
}
