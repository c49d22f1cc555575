package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fincalc/internal/amqp"
	"fincalc/internal/codec"
	"fincalc/internal/services"
)

func newRequestCmd(a *app) *cobra.Command {
	var file, operation string

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Compute a summary from a request file",
		Long: `The request command reads a JSON or YAML file shaped like the HTTP request
body of the chosen operation and prints the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readRequestFile(file)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			switch amqp.Operation(operation) {
			case amqp.OperationSales:
				req, err := services.DecodeSalesRequest(body)
				if err != nil {
					return err
				}
				summary, err := a.calc.Sales(ctx, req)
				if err != nil {
					return err
				}
				return a.print(summary)
			case amqp.OperationProfit:
				req, err := services.DecodeProfitRequest(body)
				if err != nil {
					return err
				}
				summary, err := a.calc.Profit(ctx, req)
				if err != nil {
					return err
				}
				return a.print(summary)
			default:
				return fmt.Errorf("unknown operation %q: want sales or profit", operation)
			}
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Request file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&operation, "operation", string(amqp.OperationSales), "Operation: sales or profit")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newRemoteCmd(a *app) *cobra.Command {
	var (
		file, operation string
		timeout         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Send a request file to a fincalc-worker over AMQP",
		Long: `The remote command publishes the request file to the configured AMQP queue
and prints the worker's reply. AMQP_URL must be set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.AMQPURL == "" {
				return fmt.Errorf("AMQP_URL is required for remote requests")
			}
			body, err := readRequestFile(file)
			if err != nil {
				return err
			}

			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue,
				amqp.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			replyType, reply, err := client.Call(ctx, amqp.Operation(operation), json.RawMessage(body))
			if err != nil {
				return err
			}
			if replyType == amqp.ReplyError {
				var e amqp.ErrorReply
				if json.Unmarshal(reply, &e) == nil && e.Error != "" {
					return fmt.Errorf("remote: %s", e.Error)
				}
				return fmt.Errorf("remote: %s", reply)
			}
			return a.print(json.RawMessage(reply))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Request file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&operation, "operation", string(amqp.OperationSales), "Operation: sales or profit")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the reply")
	cmd.MarkFlagRequired("file")
	return cmd
}

// readRequestFile returns the request body as JSON.
func readRequestFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	if codec.IsYAML(path) {
		return codec.YAMLToJSON(data)
	}
	return data, nil
}
