package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"fincalc/internal/core"
)

// BuildDate is set at build time with -ldflags.
var BuildDate = "unknown"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the engine version",
		Long:  `Display the engine version, build date, and Go runtime version.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, "fincalc-report")
			fmt.Fprintf(a.out, "Version:    %s\n", core.Version)
			fmt.Fprintf(a.out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(a.out, "Go Version: %s\n", runtime.Version())
		},
	}
}
