package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"fincalc/internal/backend"
	"fincalc/internal/cli"
	"fincalc/internal/config"
	"fincalc/internal/core"
	"fincalc/internal/log"
	"fincalc/internal/services"
)

// app holds what every subcommand shares. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
	compact bool

	cfg     *config.Config
	logger  *log.Logger
	calc    *services.Calculator
	factory backend.Factory
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "fincalc-report",
		Short: "Compute sales and profit summaries from spreadsheets",
		Long: `fincalc-report reads transaction records from CSV, XLSX, JSON or YAML files
or from Google Sheets, computes a sales or profit summary and prints it as JSON.

Sources:
  sales.csv                      CSV with a header row
  book.xlsx#Sheet                one sheet of a workbook (first sheet if omitted)
  records.json, records.yaml     a list of records
  sheets:<spreadsheetID>/<range> a Google Sheets range (needs service account)

Example Usage:
  fincalc-report sales --source sales.csv --months Jan,Feb --years 2023
  fincalc-report profit --revenue rev.xlsx --expense sheets:abc/Expenses!A:C
  fincalc-report request --file req.yaml --operation sales`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().BoolVarP(
		&a.verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging on stderr",
	)
	rootCmd.PersistentFlags().BoolVar(
		&a.compact,
		"compact",
		false,
		"Print JSON on a single line",
	)

	rootCmd.AddCommand(
		newSalesCmd(a),
		newProfitCmd(a),
		newRequestCmd(a),
		newRemoteCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

func (a *app) setup() error {
	cli.LoadEnvFile()
	a.cfg = config.Load()

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = log.New(log.Config{
		Level:     level,
		Format:    a.cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    a.errOut,
	})
	a.calc = services.NewCalculator(a.logger)
	a.factory = backend.NewFactory(a.logger)
	return nil
}

// dateContext builds a filter from the --months and --years flags. Without
// either flag nothing is filtered.
func dateContext(months, years []string) *core.DateContext {
	if len(months) == 0 && len(years) == 0 {
		return nil
	}
	dc := &core.DateContext{IsDateSpecific: true}
	for _, m := range months {
		if n, err := strconv.Atoi(m); err == nil {
			dc.Months = append(dc.Months, core.NumberValue(float64(n)))
			continue
		}
		dc.Months = append(dc.Months, core.StringValue(m))
	}
	for _, y := range years {
		dc.Years = append(dc.Years, core.StringValue(y))
	}
	return dc
}

func (a *app) print(v any) error {
	var (
		b   []byte
		err error
	)
	if a.compact {
		b, err = json.Marshal(v)
	} else {
		b, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func addDateFlags(cmd *cobra.Command, months, years *[]string) {
	cmd.Flags().StringSliceVar(
		months,
		"months",
		nil,
		"Keep only these months (names or numbers, comma separated)",
	)
	cmd.Flags().StringSliceVar(
		years,
		"years",
		nil,
		"Keep only these years (comma separated)",
	)
}
