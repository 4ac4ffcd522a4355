package runner

import (
	"os"
	"sync"

	"github.com/maxvaer/pathfuzz/internal/output"
	"github.com/maxvaer/pathfuzz/internal/scanner"
	"golang.org/x/term"
)

// startStdinToggle reads single keypresses from in and toggles pauser on
// Enter or Space. It returns a function restoring the terminal state, safe
// to call more than once. If in is not a terminal nothing is started.
func startStdinToggle(in *os.File, pauser *scanner.Pauser, console *output.Console) (restore func()) {
	fd := int(in.Fd())

	if !term.IsTerminal(fd) {
		return func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		console.Warnf("[!] Could not enable raw terminal: %v", err)
		return func() {}
	}

	// MakeRaw disables OPOST which stops \n -> \r\n translation and
	// misaligns every line after the progress bar. Only raw input is needed.
	fixOutputProcessing(fd)

	var once sync.Once
	restore = func() {
		once.Do(func() { _ = term.Restore(fd, oldState) })
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := in.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}

			switch key := buf[0]; key {
			case 0x03:
				// Ctrl+C arrives as a byte in raw mode. Hand the terminal
				// back and raise SIGINT so the cancellation handler sees it;
				// a second Ctrl+C then arrives as a normal signal.
				restore()
				sendInterrupt()
				return
			case '\r', '\n', ' ':
				if pauser.Toggle() {
					console.Noticef("[*] Fuzzing PAUSED, press Enter or Space to resume")
				} else {
					console.Noticef("[*] Fuzzing RESUMED")
				}
			}
		}
	}()

	return restore
}
