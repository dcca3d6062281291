package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vitos/crypto_take_profit/internal/infrastructure/storage"
)

var (
	dbPath string
	limit  int
)

var rootCmd = &cobra.Command{
	Use:          "debug_db",
	Short:        "Dump the latest tickets of the journal",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "planner.db", "ticket journal path")
	rootCmd.Flags().IntVar(&limit, "limit", 20, "number of tickets to show")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to init sqlite: %w", err)
	}
	defer store.Close()

	tickets, err := store.ListTickets(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}

	fmt.Printf("Found %d tickets:\n", len(tickets))
	for _, t := range tickets {
		fmt.Printf("- Ticket ID: %s, %s %s, Price: %f, Amount: %f, Total: %s, Projected: %s (%s)\n",
			t.ID, t.Side, t.Pair, t.Price, t.Amount, t.Total, t.ProjectedProfit, t.CreatedAt.Format("2006-01-02 15:04:05"))

		if len(t.Targets) == 0 {
			fmt.Printf("  ⚠️ No take-profit targets\n")
			continue
		}
		for i, target := range t.Targets {
			fmt.Printf("  ✅ T%d: profit %.2f%%, price %f, amount %.2f%%\n",
				i+1, target.ProfitPercent, target.TradePrice, target.AmountPercent)
		}
	}
	return nil
}
