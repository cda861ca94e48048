package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"hospital_billing/internal/adapter/http/dto/request"
	"hospital_billing/internal/adapter/http/dto/response"
	"hospital_billing/internal/adapter/http/routes"
	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/infrastructure/config"
	"hospital_billing/internal/infrastructure/database"
	"hospital_billing/internal/infrastructure/logger"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// @title           Hospital Billing Service API
// @version         1.0
// @description     Invoices, payments and totals computation backed by DynamoDB.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /v1

func main() {
	rootCmd := &cobra.Command{
		Use:           "billing-service",
		Short:         "Hospital billing API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tablesCmd())
	rootCmd.AddCommand(quoteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Env)
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the billing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return routes.Run(ctx, cfg)
		},
	}
}

func tablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Manage DynamoDB tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create the invoices and payments tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ddb, err := database.ConnectDynamoDB(ctx, cfg)
			if err != nil {
				return err
			}
			if err := database.CreateTables(ctx, ddb, cfg.InvoicesTable, cfg.PaymentsTable); err != nil {
				return err
			}
			log := logger.Component("tables")
			log.Info().
				Str("invoices_table", cfg.InvoicesTable).
				Str("payments_table", cfg.PaymentsTable).
				Msg("tables ready")
			return nil
		},
	})

	return cmd
}

func quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute invoice totals for a JSON file of line items",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			in := io.Reader(os.Stdin)
			if path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runQuote(cmd.Context(), in, cmd.OutOrStdout(), cfg.Policy())
		},
	}
	cmd.Flags().StringP("file", "f", "-", "quote request JSON (items and discount), - for stdin")
	return cmd
}

// runQuote reads a quote request and writes the computed totals as indented JSON.
func runQuote(_ context.Context, in io.Reader, out io.Writer, policy billing.Policy) error {
	var req request.QuoteRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode quote request: %w", err)
	}
	items, err := request.ToLineItems(req.Items)
	if err != nil {
		return err
	}
	totals, err := billing.ComputeTotals(items, req.Discount, policy)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(response.FromTotals(totals))
}
