package cli

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
	"github.com/vnykmshr/asyncrt/pkg/process"
	"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
)

// ExitError carries a child's non-zero exit status out of the exec command.
type ExitError struct {
	Status process.Status
}

func (e *ExitError) Error() string {
	return e.Status.String()
}

func newExecCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var timeout time.Duration
	ccmd := &cobra.Command{
		Use:   "exec [flags] -- command [args...]",
		Short: "Run a command and wait for it with a timeout",
		Long: `
			Runs the command and waits for it to exit. If --timeout expires
			first the child is killed and the command fails. A zero or
			negative --timeout waits without limit.
`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			logger, err := newLogger(c, stderr)
			if err != nil {
				return err
			}

			s, err := asynctask.NewStarted(asynctask.Config{Name: "exec", Workers: 1, Logger: logger})
			if err != nil {
				return err
			}
			defer s.Terminate()

			wait := timeout
			if wait <= 0 {
				wait = process.NoTimeout
			}

			cmd := exec.Command(args[0], args[1:]...)
			cmd.Stdin = stdin
			cmd.Stdout = stdout
			cmd.Stderr = stderr

			p, st, err := process.Run(c.Context(), cmd, wait, process.Config{Scheduler: s, Logger: logger})
			// The reaper holds Terminate open until the child exits.
			if errors.Is(err, arterrors.ErrTimeout) {
				logger.Warn("killing child after timeout", "pid", p.Pid(), "timeout", timeout)
				if kerr := p.Kill(); kerr != nil {
					return kerr
				}
				<-p.Done()
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(stderr, st)
			if !st.Exited || st.ExitCode != 0 {
				return &ExitError{Status: st}
			}
			return nil
		},
	}

	flags := ccmd.Flags()
	flags.DurationVar(&timeout, "timeout", process.NoTimeout, "Kill the child after this long; 0 or negative waits forever.")
	return ccmd
}
