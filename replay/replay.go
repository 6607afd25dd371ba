package replay

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/tapeout-io/drover/iox"
	"github.com/tapeout-io/drover/log"
	"github.com/tapeout-io/drover/wire"
)

// Mismatch describes the first divergence between the script and the
// live driver.
type Mismatch struct {
	// Seq is the recorded message number that diverged.
	Seq int
	// Line is the script line of the recorded frame.
	Line int
	// Want is the recorded frame; Got is what the driver emitted.
	Want string
	Got  string
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("message %d (script line %d): got %q, want %q", m.Seq, m.Line, m.Got, m.Want)
}

// Result is the outcome of one replay.
type Result struct {
	// Commands and Messages count the script events exercised.
	Commands int
	Messages int
	// Mismatch is nil when every reply matched the recording.
	Mismatch *Mismatch
	// ExitCode and Stderr come from the driver process. After a
	// mismatch the driver is killed and ExitCode is meaningless.
	ExitCode int
	Stderr   []byte
}

// Verified reports whether every reply matched and the driver exited
// cleanly.
func (r *Result) Verified() bool { return r.Mismatch == nil && r.ExitCode == 0 }

// Replayer drives one driver through one script.
type Replayer struct {
	script  *Script
	factory DriverFactory
	logger  *log.Logger
}

// New creates a Replayer. A nil logger disables diagnostics.
func New(s *Script, factory DriverFactory, logger *log.Logger) *Replayer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Replayer{script: s, factory: factory, logger: logger}
}

// Execute starts a driver and walks the script: command events are
// sent to the driver, message events are read back and compared
// byte-for-byte against the recording. The first divergence stops the
// replay and kills the driver. A driver that dies before the script
// ends is a stream failure, returned as an error rather than a
// mismatch.
func (r *Replayer) Execute(ctx context.Context) (*Result, error) {
	driver := r.factory()
	if err := driver.Start(ctx); err != nil {
		return nil, err
	}

	res := &Result{}
	out := bufio.NewReader(driver.Stdout())
	stdin := driver.Stdin()

	for _, ev := range r.script.Events {
		switch ev.Kind {
		case EventCommand:
			r.logger.Debug("send command", map[string]any{"seq": ev.Seq, "line": ev.Text})
			if _, err := io.WriteString(stdin, ev.Text+"\n"); err != nil {
				r.reap(driver)
				return nil, fmt.Errorf("command %d: driver stdin closed early: %w", ev.Seq, err)
			}
			res.Commands++
		case EventMessage:
			frame, err := wire.ReadFrame(out)
			if err != nil {
				r.reap(driver)
				return nil, fmt.Errorf("message %d (script line %d): driver stream ended early: %w",
					ev.Seq, ev.Line, err)
			}
			res.Messages++
			if frame != ev.Text {
				res.Mismatch = &Mismatch{Seq: ev.Seq, Line: ev.Line, Want: ev.Text, Got: frame}
				r.logger.Error("replay mismatch", map[string]any{"mismatch": res.Mismatch.String()})
				r.reap(driver)
				return res, nil
			}
		}
	}

	if err := stdin.Close(); err != nil {
		r.logger.Warn("driver stdin close failed", map[string]any{"error": err.Error()})
	}
	dres, err := driver.Wait()
	if err != nil {
		return nil, err
	}
	res.ExitCode = dres.ExitCode
	res.Stderr = dres.Stderr
	r.logger.Info("replay complete", map[string]any{
		"commands":  res.Commands,
		"messages":  res.Messages,
		"exit_code": res.ExitCode,
	})
	return res, nil
}

// reap kills a diverged driver and collects it. Outcomes are ignored;
// the replay verdict is already decided.
func (r *Replayer) reap(driver Driver) {
	iox.DiscardErr(driver.Kill)
	_, _ = driver.Wait()
}
