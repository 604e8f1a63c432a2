// Package main provides the CLI entrypoint for bpsim.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/bpsim/internal/config"
	"github.com/verte-zerg/bpsim/internal/controller"
	"github.com/verte-zerg/bpsim/internal/dataset"
	"github.com/verte-zerg/bpsim/internal/kv"
	"github.com/verte-zerg/bpsim/internal/report"
	"github.com/verte-zerg/bpsim/internal/session"
	"github.com/verte-zerg/bpsim/internal/tui"
)

const (
	defaultHistorySize = 8
	defaultShowTime    = true
)

var (
	sessionDB        string
	sessionEphemeral bool

	displayHistorySize int
	displayShowTime    bool

	resetYes bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bpsim",
		Short:         "Terminal blood-pressure reading simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSessionCmd,
	}

	rootCmd.PersistentFlags().StringVar(&sessionDB, "db", "", "session database path (default: XDG data home)")
	rootCmd.Flags().BoolVar(&sessionEphemeral, "ephemeral", false, "keep session in memory only")
	rootCmd.Flags().IntVar(&displayHistorySize, "history-size", defaultHistorySize, "readings kept in the history panel")
	rootCmd.Flags().BoolVar(&displayShowTime, "show-time", defaultShowTime, "show reading time on the card")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runSessionCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &sessionDB, fileCfg.Session.DB)
	applyBoolConfig(cmd, "ephemeral", &sessionEphemeral, fileCfg.Session.Ephemeral)
	applyIntConfig(cmd, "history-size", &displayHistorySize, fileCfg.Display.HistorySize)
	applyBoolConfig(cmd, "show-time", &displayShowTime, fileCfg.Display.ShowTime)

	if displayHistorySize <= 0 {
		return fmt.Errorf("--history-size must be > 0")
	}

	store, closeStore := openCollaborator()
	defer closeStore()

	ctrl := controller.New(session.NewStore(store), dataset.New())
	if err := ctrl.Start(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	model := tui.NewModel(ctrl, tui.Options{
		HistorySize: displayHistorySize,
		ShowTime:    displayShowTime,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openCollaborator opens the configured persistence collaborator. A nil
// store is a valid session-store input meaning "unavailable", so open
// failures degrade rather than abort.
func openCollaborator() (kv.Store, func()) {
	if sessionEphemeral {
		return kv.NewMemory(), func() {}
	}
	path := sessionDB
	if path == "" {
		path = config.DefaultDBPath()
	}
	sqlite, err := kv.Open(path)
	if err != nil {
		logErrf("failed to open session db, continuing without persistence: %v\n", err)
		return nil, func() {}
	}
	return sqlite, func() {
		if cerr := sqlite.Close(); cerr != nil {
			logErrf("failed to close session db: %v\n", cerr)
		}
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored session status",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &sessionDB, fileCfg.Session.DB)

	store, closeStore := openCollaborator()
	defer closeStore()
	sess := session.NewStore(store)

	status := report.Status{Initialized: sess.Initialized()}
	if status.Initialized {
		readings, err := sess.Dataset()
		if err != nil {
			return fmt.Errorf("failed to read dataset: %w", err)
		}
		index, err := sess.Index()
		if err != nil {
			return fmt.Errorf("failed to read index: %w", err)
		}
		ts, err := sess.Timestamp()
		if err != nil {
			return fmt.Errorf("failed to read timestamp: %w", err)
		}
		status.Readings = readings
		status.Size = len(readings)
		status.Index = index
		status.GeneratedAt = time.UnixMilli(ts)
	}
	return report.Write(cmd.OutOrStdout(), status, report.TerminalWidth())
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "skip confirmation")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &sessionDB, fileCfg.Session.DB)

	if !resetYes {
		return fmt.Errorf("reset deletes the stored session; re-run with --yes")
	}

	store, closeStore := openCollaborator()
	defer closeStore()
	sess := session.NewStore(store)

	if err := sess.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "Session cleared."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# bpsim configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# db = ""                # Session database path (default: XDG data home)
# ephemeral = false      # Keep session in memory only

[display]
# history-size = %d       # Readings kept in the history panel
# show-time = %t        # Show reading time on the card
`,
		defaultHistorySize,
		defaultShowTime,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
