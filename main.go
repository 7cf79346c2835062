package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fkrepair/internal/config"
	"fkrepair/internal/output"
	"fkrepair/internal/repair"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fkrepair",
		Short: "Repair missing uniqueness guarantees on foreign key target columns",
	}

	var repairDSN string
	var repairConfigFile string
	var repairDryRun bool
	var repairFormat string
	var repairTimeout int

	repairCmd := &cobra.Command{
		Use:   "repair",
		Short: "Scan foreign keys and add missing unique indexes on their target columns",
		Long: `Connects to your database, enumerates every foreign key reference, and
for each distinct referenced column that looks like a UUID column ensures a
uniqueness guarantee exists: stale non-unique indexes are dropped and a
unique index named {table}_{column}_unique is created.

The scan is derived from live metadata on every run, so rerunning against an
already repaired schema executes no mutating statements.

Examples:
  fkrepair repair --dsn "user:pass@tcp(localhost:3306)/mydb"
  fkrepair repair --dsn "user:pass@tcp(localhost:3306)/mydb" --dry-run
  fkrepair repair --config fkrepair.toml --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := repairDSN
			format := repairFormat
			timeout := repairTimeout

			if repairConfigFile != "" {
				cfg, err := config.Load(repairConfigFile)
				if err != nil {
					return err
				}
				if dsn == "" {
					dsn = cfg.DSN
				}
				if format == "" {
					format = cfg.Format
				}
				if !cmd.Flags().Changed("timeout") && cfg.TimeoutSeconds > 0 {
					timeout = cfg.TimeoutSeconds
				}
			}
			if dsn == "" {
				return fmt.Errorf("--dsn is required (flag or config file)")
			}

			formatter, err := output.NewFormatter(format)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
			defer cancel()

			repairer := repair.NewRepairer(repair.Options{
				DSN:    dsn,
				DryRun: repairDryRun,
				Out:    os.Stdout,
			})

			fmt.Printf("Connecting to database...\n")
			if err := repairer.Connect(ctx); err != nil {
				return err
			}
			defer func(repairer *repair.Repairer) {
				err := repairer.Close()
				if err != nil {
					fmt.Printf("Failed to close database connection: %v\n", err)
				}
			}(repairer)

			summary, err := repairer.EnsureTargetUniqueness(ctx)
			if err != nil {
				return err
			}

			formatted, err := formatter.FormatSummary(summary)
			if err != nil {
				return fmt.Errorf("failed to format summary: %w", err)
			}
			fmt.Print(formatted)
			return nil
		},
	}

	repairCmd.Flags().StringVar(&repairDSN, "dsn", "", "Database connection string")
	repairCmd.Flags().StringVarP(&repairConfigFile, "config", "c", "", "Path to TOML config file")
	repairCmd.Flags().BoolVarP(&repairDryRun, "dry-run", "d", false, "Print the plan without executing any statement")
	repairCmd.Flags().StringVarP(&repairFormat, "format", "f", "", "Summary format: human or json")
	repairCmd.Flags().IntVar(&repairTimeout, "timeout", 300, "Run timeout in seconds")

	revertCmd := &cobra.Command{
		Use:   "revert",
		Short: "Explain why the repair cannot be reversed",
		RunE: func(cmd *cobra.Command, args []string) error {
			repairer := repair.NewRepairer(repair.Options{Out: os.Stdout})
			return repairer.Revert(context.Background())
		},
	}

	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(revertCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
