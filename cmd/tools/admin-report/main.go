// cmd/tools/admin-report/main.go
//
// Back-office CLI over the payment ledgers. Prints the same report the
// admin endpoint serves, as tables on stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"apcc-pipeline/internal/admin"
	"apcc-pipeline/internal/common/config"
	"apcc-pipeline/internal/common/database"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/ledger"
	"apcc-pipeline/internal/models"
)

var rootCmd = &cobra.Command{
	Use:   "admin-report",
	Short: "Admiration Placement Career Consultancy back-office reports",
}

func main() {
	rootCmd.AddCommand(summaryCmd(), candidatesCmd(), agentsCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func withReport(fn func(ctx context.Context, report *admin.Report) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logger.NewNoOpLogger()
	svc := admin.NewService(ledger.New(pg, log), log)

	report, err := svc.Report(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, report)
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Registration counts and revenue totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReport(func(ctx context.Context, report *admin.Report) error {
				s := report.Summary

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Metric", "Value"})
				tw.AppendRow(table.Row{"Candidates", s.CandidateCount})
				tw.AppendRow(table.Row{"Agents", s.AgentCount})
				tw.AppendRow(table.Row{"Candidate Revenue", rupees(s.CandidateRevenue)})
				tw.AppendRow(table.Row{"Agent Revenue", rupees(s.AgentRevenue)})
				tw.AppendRow(table.Row{"Total Revenue", rupees(s.TotalRevenue)})
				tw.AppendRow(table.Row{"CGST Collected", rupees(s.CGST)})
				tw.AppendRow(table.Row{"SGST Collected", rupees(s.SGST)})
				tw.Render()
				return nil
			})
		},
	}
}

func candidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List candidate registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReport(func(ctx context.Context, report *admin.Report) error {
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Name", "Mobile", "Agent Code", "Invoice", "Txn", "Paid"})
				for _, c := range report.Candidates {
					tw.AppendRow(table.Row{
						c.Application.FullName(),
						c.Application.Mobile,
						c.Application.AgentCode,
						c.InvoiceNo,
						c.TxnID,
						rupees(c.Payment.Total),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReport(func(ctx context.Context, report *admin.Report) error {
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Name", "Agent Code", "Mobile", "Invoice", "Txn", "Paid"})
				for _, a := range report.Agents {
					tw.AppendRow(table.Row{
						a.Registration.FullName,
						a.Registration.AgentCode,
						a.Registration.Mobile,
						a.InvoiceNo,
						a.TxnID,
						rupees(a.Payment.Total),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func rupees(amount int64) string {
	return "Rs " + models.Display(amount)
}
