// Package cmdsource reads raw frames from the standard output of an external
// command, such as ffmpeg writing rawvideo to "-".
package cmdsource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/google/shlex"

	"github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/frame"
	"github.com/pion/framering/pkg/source"
)

var (
	errReadTimeout    = errors.New("cmdsource: read timeout")
	errInvalidCommand = errors.New("cmdsource: invalid command")
	errNotStarted     = errors.New("cmdsource: command not started")
)

var logger = logging.NewLogger("framering/source/cmdsource")

const killTimeout = 3 * time.Second

// Options configures a command source.
type Options struct {
	// ReadTimeout bounds how long a single frame may take to arrive. Zero
	// waits forever.
	ReadTimeout time.Duration
	// Format, Width and Height are exported to the command as
	// FRAMERING_FORMAT, FRAMERING_WIDTH and FRAMERING_HEIGHT when set.
	Format frame.Format
	Width  int
	Height int
}

type pullResult struct {
	chunk []byte
	err   error
}

// Source runs a command and serves its standard output as frames.
type Source struct {
	cmdArgs []string
	opts    Options
	execCmd *exec.Cmd
	reader  source.Source
	results chan pullResult
	broken  error
}

// New parses command with shell quoting rules. The command is not started
// until Start is called.
func New(command string, opts Options) (*Source, error) {
	cmdArgs, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidCommand, err)
	}
	if len(cmdArgs) == 0 || cmdArgs[0] == "" {
		return nil, errInvalidCommand
	}
	return &Source{
		cmdArgs: cmdArgs,
		opts:    opts,
		results: make(chan pullResult, 1),
	}, nil
}

// Start launches the command. Its standard error is forwarded to the debug log.
func (c *Source) Start() error {
	c.execCmd = exec.Command(c.cmdArgs[0], c.cmdArgs[1:]...)
	c.execCmd.Env = append(os.Environ(), c.env()...)

	stdErr, err := c.execCmd.StderrPipe()
	if err != nil {
		return err
	}
	stdOut, err := c.execCmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := c.execCmd.Start(); err != nil {
		c.execCmd = nil
		return err
	}
	logger.Infof("started %q (pid %d)", c.cmdArgs[0], c.execCmd.Process.Pid)

	go c.drainStderr(stdErr)
	c.reader = source.NewReader(stdOut)
	return nil
}

func (c *Source) env() []string {
	var env []string
	if c.opts.Format.Valid() {
		env = append(env, "FRAMERING_FORMAT="+c.opts.Format.String())
	}
	if c.opts.Width > 0 && c.opts.Height > 0 {
		env = append(env,
			"FRAMERING_WIDTH="+strconv.Itoa(c.opts.Width),
			"FRAMERING_HEIGHT="+strconv.Itoa(c.opts.Height),
		)
	}
	return env
}

func (c *Source) drainStderr(r io.Reader) {
	stderrPrefix := fmt.Sprintf("(%s stderr): ", c.cmdArgs[0])
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			logger.Debug(stderrPrefix + string(line))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logger.Error(err.Error())
			}
			return
		}
	}
}

// Pull implements source.Source. When the command exits, its output ends and
// Pull reports the end of stream. After a read timeout the source is unusable.
func (c *Source) Pull(n int) ([]byte, error) {
	if c.broken != nil {
		return nil, c.broken
	}
	if c.reader == nil {
		return nil, errNotStarted
	}
	if c.opts.ReadTimeout <= 0 {
		return c.reader.Pull(n)
	}

	go func() {
		chunk, err := c.reader.Pull(n)
		c.results <- pullResult{chunk, err}
	}()

	timer := time.NewTimer(c.opts.ReadTimeout)
	defer timer.Stop()
	select {
	case r := <-c.results:
		return r.chunk, r.err
	case <-timer.C:
		// The pending read still owns the buffer.
		c.broken = errReadTimeout
		return nil, errReadTimeout
	}
}

// Close interrupts the command and waits for it to exit, killing it if it
// does not exit in time.
func (c *Source) Close() error {
	if c.execCmd == nil || c.execCmd.Process == nil {
		return nil
	}
	cmd := c.execCmd
	c.execCmd = nil

	_ = cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		return exitError(err)
	case <-time.After(killTimeout):
		logger.Warnf("%q did not exit after interrupt, killing it", c.cmdArgs[0])
		return cmd.Process.Kill()
	}
}

// exitError drops the error a command reports for being interrupted by Close.
func exitError(err error) error {
	var exit *exec.ExitError
	if errors.As(err, &exit) && !exit.Exited() {
		return nil
	}
	return err
}
