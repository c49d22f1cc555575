// Command fincalc-report computes sales and profit summaries from local or
// remote spreadsheets and prints the JSON result.
package main

import (
	"context"
	"fmt"
	"os"

	"fincalc/internal/cli"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
