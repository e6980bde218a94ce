package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"MotoTrader/internal/api"
	"MotoTrader/internal/metrics"
	"MotoTrader/internal/model"
	"MotoTrader/internal/notifier"
	"MotoTrader/internal/scheduler"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "MotoTrader multi-factor paper trading engine",
	Long: `MotoTrader scores a watchlist on technical, macro and fundamental factors,
fuses them into a target exposure per symbol and keeps a simulated portfolio
aligned with those targets.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler, HTTP API and Telegram bot until interrupted",
	RunE:  runServe,
}

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one decision cycle and print the summary",
	RunE:  runCycle,
}

var buyCmd = &cobra.Command{
	Use:   "buy SYMBOL QTY",
	Short: "Buy QTY shares of SYMBOL at the last close",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrder(cmd, model.SideBuy, args)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell SYMBOL QTY",
	Short: "Sell QTY shares of SYMBOL at the last close",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrder(cmd, model.SideSell, args)
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show cash and positions",
	RunE:  runPortfolio,
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent trades, newest first",
	RunE:  runHistory,
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Path to the YAML config file")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")

	rootCmd.AddCommand(runCmd, cycleCmd, buyCmd, sellCmd, portfolioCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	sched := scheduler.NewScheduler(ctx, a.engine, a.notifier, log)
	if err := sched.Register(a.cfg.Schedule.CycleCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	var srv *http.Server
	switch {
	case a.cfg.API.Enabled:
		srv = api.NewServer(a.cfg.API.Addr, a.engine, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("api server stopped")
			}
		}()
		log.Info().Str("addr", a.cfg.API.Addr).Msg("api listening")
	case a.cfg.Metrics.Enabled:
		srv = metrics.Serve(a.cfg.API.Addr)
		log.Info().Str("addr", a.cfg.API.Addr).Msg("metrics listening")
	}

	if a.notifier.Enabled() {
		go a.notifier.StartPolling(ctx, sched.HandleCommand, a.cfg.Telegram.PollTimeout)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running a cycle now")
		go sched.RunCycleNow()
	}

	log.Info().Str("cron", a.cfg.Schedule.CycleCron).Msg("MotoTrader is running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}
	return nil
}

func runCycle(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.engine.RunCycle(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), plain(notifier.FormatCycleSummary(summary)))
	return nil
}

func runOrder(cmd *cobra.Command, side model.Side, args []string) error {
	qty, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("quantity %q is not an integer", args[1])
	}
	a, err := newApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.PlaceOrder(cmd.Context(), side, strings.ToUpper(args[0]), qty)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s @ $%.2f, cash $%.2f\n",
		res.Side, res.Quantity, res.Symbol, res.Price, res.Portfolio.CashFloat())
	return nil
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.engine.Status(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), plain(notifier.FormatPortfolio(st.Portfolio, st.Prices, st.Equity)))
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.engine.Status(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), plain(notifier.FormatHistory(st.Portfolio.History, historyLimit)))
	return nil
}

var htmlTags = strings.NewReplacer("<b>", "", "</b>", "", "&lt;", "<", "&gt;", ">", "&amp;", "&", "&#39;", "'", "&#34;", `"`)

// plain strips the Telegram HTML markup for terminal output.
func plain(s string) string { return htmlTags.Replace(s) }
