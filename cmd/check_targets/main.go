package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/vitos/crypto_take_profit/internal/domain"
	"github.com/vitos/crypto_take_profit/internal/infrastructure/logger"
	"github.com/vitos/crypto_take_profit/internal/infrastructure/storage"
	"github.com/vitos/crypto_take_profit/internal/usecase"
)

var (
	jsonOutput bool
	rebalance  bool
	savePath   string
	verbose    bool
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var rootCmd = &cobra.Command{
	Use:   "check_targets <ladder.yaml>",
	Short: "Validate a take-profit ladder",
	Long: `Replays an order and its take-profit targets through the order form and
reports every validation error together with the projected profit.

Exits with status 1 when the ticket could not be submitted.

Examples:
  check_targets ladder.yaml
  check_targets ladder.yaml --rebalance --json
  check_targets ladder.yaml --save planner.db`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the form snapshot as JSON")
	rootCmd.Flags().BoolVar(&rebalance, "rebalance", false, "trim amounts back into the 100% budget before checking")
	rootCmd.Flags().StringVar(&savePath, "save", "", "submit the ticket into this SQLite journal when it passes")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every form change")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(level, "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	ladder, err := loadLadder(args[0])
	if err != nil {
		return err
	}

	var journal domain.TicketJournal
	if savePath != "" {
		store, err := storage.NewSQLiteStore(savePath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		journal = store
	}

	form, err := replay(ladder, rebalance, journal, log)
	if err != nil {
		return err
	}

	snap := form.Snapshot()
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, renderReport(snap))
	}

	if !snap.CanSubmit {
		return usecase.ErrTicketNotReady
	}
	if journal != nil {
		ticket, err := form.Submit(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved ticket %s\n", ticket.ID)
	}
	return nil
}

func renderReport(snap usecase.FormSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  price %s  amount %s  total %s\n",
		strings.ToUpper(string(snap.Side)), snap.Pair,
		domain.FormatNumber(snap.Price), domain.FormatNumber(snap.Amount), domain.FormatNumber(snap.Total))

	if len(snap.Targets) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "Profit %", "Target price", snap.AmountLabel+" %", "Errors")
		for i, tv := range snap.Targets {
			t.Row(
				strconv.Itoa(i+1),
				domain.FormatNumber(tv.ProfitPercent),
				domain.FormatNumber(tv.TradePrice),
				domain.FormatNumber(tv.AmountPercent),
				targetErrors(tv),
			)
		}
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Projected profit: %s %s\n", snap.ProjectedProfit, snap.Pair.Quote)
	if snap.CanSubmit {
		b.WriteString(okStyle.Render("Ready to submit"))
	} else {
		b.WriteString(errorStyle.Render("Blocked"))
	}
	b.WriteString("\n")
	return b.String()
}

func targetErrors(tv usecase.TargetView) string {
	var parts []string
	for _, msg := range []string{tv.ProfitError, tv.TargetPriceError, tv.AmountError} {
		if msg != "" {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, domain.ErrorSeparator)
}
