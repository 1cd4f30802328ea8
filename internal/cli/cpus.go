package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/asyncrt/pkg/sysinfo"
)

func newCPUsCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cpus",
		Short: "Print the CPU counts the scheduler sizes its pool from",
		RunE: func(c *cobra.Command, args []string) error {
			fmt.Fprintf(stdout, "logical=%d physical=%d gomaxprocs=%d\n",
				sysinfo.LogicalCPUs(), sysinfo.PhysicalCPUs(), runtime.GOMAXPROCS(0))
			return nil
		},
	}
}
