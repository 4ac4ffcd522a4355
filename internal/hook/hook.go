// Package hook runs a user command for every hit.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/maxvaer/pathfuzz/internal/scanner"
)

// Timeout bounds a single hook invocation.
const Timeout = 30 * time.Second

// payload is the JSON document sent to the command on stdin.
type payload struct {
	Word          string `json:"word"`
	URL           string `json:"url"`
	StatusCode    int    `json:"status"`
	ContentLength int64  `json:"size"`
	Class         string `json:"class"`
	Attempts      int    `json:"attempts"`
}

// Runner executes a shell command for each 200 or 403 result. The
// placeholders {url}, {word}, {status} and {size} in the command are
// replaced before it runs.
type Runner struct {
	cmd string
	log *slog.Logger
}

// NewRunner creates a hook runner for the shell command cmd.
func NewRunner(cmd string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{cmd: cmd, log: logger}
}

// Run executes the command for res if it is a hit. Failures are logged
// and never stop the session.
func (r *Runner) Run(res *scanner.Result) {
	if res.Class != scanner.Found && res.Class != scanner.Forbidden {
		return
	}

	data, err := json.Marshal(payload{
		Word:          res.Word,
		URL:           res.URL,
		StatusCode:    res.StatusCode,
		ContentLength: res.ContentLength,
		Class:         res.Class.String(),
		Attempts:      res.Attempts,
	})
	if err != nil {
		r.log.Error("hook payload", slog.String("url", res.URL), slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.expand(res))...)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		r.log.Warn("hook failed",
			slog.String("url", res.URL),
			slog.Any("error", err),
			slog.String("stderr", strings.TrimSpace(stderr.String())))
		return
	}
	if s := strings.TrimSpace(string(out)); s != "" {
		r.log.Info("hook", slog.String("url", res.URL), slog.String("output", s))
	}
}

func (r *Runner) expand(res *scanner.Result) string {
	return strings.NewReplacer(
		"{url}", res.URL,
		"{word}", res.Word,
		"{status}", strconv.Itoa(res.StatusCode),
		"{size}", strconv.FormatInt(res.ContentLength, 10),
	).Replace(r.cmd)
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
