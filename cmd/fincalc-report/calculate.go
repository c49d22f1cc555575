package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fincalc/internal/backend"
	"fincalc/internal/core"
	"fincalc/internal/log"
	"fincalc/internal/services"
)

func newSalesCmd(a *app) *cobra.Command {
	var (
		source        string
		months, years []string
	)

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Compute a sales summary",
		Long: `The sales command reads vouchers from a source and prints total amount,
voucher count, monthly breakdown, top customers and date range.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			records, err := a.load(ctx, source)
			if err != nil {
				return err
			}
			summary, err := a.calc.Sales(ctx, services.SalesRequest{
				SalesData:   records,
				DateContext: dateContext(months, years),
			})
			if err != nil {
				return err
			}
			return a.print(summary)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", sourceUsage("sales vouchers"))
	cmd.MarkFlagRequired("source")
	addDateFlags(cmd, &months, &years)
	return cmd
}

func newProfitCmd(a *app) *cobra.Command {
	var (
		revenue, expense string
		months, years    []string
	)

	cmd := &cobra.Command{
		Use:   "profit",
		Short: "Compute a profit summary",
		Long: `The profit command reads revenue and expense records from two sources,
loaded concurrently, and prints totals, net profit and the monthly breakdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var rev, exp []core.TransactionRecord
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				rev, err = a.load(gctx, revenue)
				return err
			})
			g.Go(func() error {
				var err error
				exp, err = a.load(gctx, expense)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			summary, err := a.calc.Profit(ctx, services.ProfitRequest{
				RevenueData: rev,
				ExpenseData: exp,
				DateContext: dateContext(months, years),
			})
			if err != nil {
				return err
			}
			return a.print(summary)
		},
	}

	cmd.Flags().StringVar(&revenue, "revenue", "", sourceUsage("revenue records"))
	cmd.Flags().StringVar(&expense, "expense", "", sourceUsage("expense records"))
	cmd.MarkFlagRequired("revenue")
	cmd.MarkFlagRequired("expense")
	addDateFlags(cmd, &months, &years)
	return cmd
}

// load reads every record of src.
func (a *app) load(ctx context.Context, src string) ([]core.TransactionRecord, error) {
	res, err := backend.Open(ctx, a.factory, src, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	records, err := res.Reader.ReadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	a.logger.DebugContext(ctx, "Loaded records",
		log.FieldSource, src,
		log.FieldRecords, len(records))
	return records, nil
}

func sourceUsage(what string) string {
	return fmt.Sprintf("Source of %s: a .csv, .xlsx[#Sheet], .json or .yaml file, or sheets:<id>[/range] (backends: %s)",
		what, strings.Join(backend.GetBackendTypeStrings(), ", "))
}
