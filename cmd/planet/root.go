package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/planet/internal/app"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// cli carries what every command needs. The application is opened before a
// command runs and closed once execute returns.
type cli struct {
	loadConfig func() app.Config
	appOpts    []app.Option
	now        func() time.Time

	output string
	app    *app.Application
}

// execute runs args against a fresh command tree.
func (c *cli) execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer c.close()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planet",
		Short: "Planet - one small quest a day",
		Long: `Planet is the command line client for the Planet habit tracker.

Sign in, approve one suggested quest a day, complete it with a photo as
evidence, and watch your monthly tier grow.

Configuration is read from the environment (and a .env file):
  PLANET_API_BASE_URL     API base URL
  PLANET_STORAGE_MODE     persistent or ephemeral
  PLANET_STATE_FILE       SQLite file holding the session
  PLANET_REQUEST_TIMEOUT  per-request timeout`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.open,
	}

	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputText, "output format (text, json)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &inputError{err: err}
	})

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.questCmd(),
		c.tierCmd(),
		c.reportCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, _ []string) error {
	if c.output != outputText && c.output != outputJSON {
		return invalidInput("unknown output format %q (want %s or %s)", c.output, outputText, outputJSON)
	}
	if c.app != nil {
		return nil
	}

	application, err := app.New(cmd.Context(), c.loadConfig(), c.appOpts...)
	if err != nil {
		return err
	}
	c.app = application
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.app.Logger.Warn("failed to close application", "err", err)
	}
	c.app = nil
}

// render writes v as indented JSON or hands the writer to text.
func (c *cli) render(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if c.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}

// inputError is a problem with what the user typed. It is reported as is
// rather than as a server failure.
type inputError struct {
	err error
}

func (e *inputError) Error() string { return e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

func invalidInput(format string, args ...any) error {
	return &inputError{err: fmt.Errorf(format, args...)}
}

// errorMessage is the line printed to stderr when a command fails.
func errorMessage(err error) string {
	var in *inputError
	if errors.As(err, &in) {
		return "Invalid input: " + in.Error()
	}
	return planetsdk.UserMessage(err)
}

// exactArgs is cobra.ExactArgs reported as an input error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &inputError{err: err}
		}
		return nil
	}
}

func maximumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &inputError{err: err}
		}
		return nil
	}
}

// readPassword returns the flag value, or the first line of stdin.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return strings.TrimRight(line, "\r\n"), nil
}

// parseMonth reads YYYY-MM.
func parseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, invalidInput("month %q must look like 2026-10", s)
	}
	return t.Year(), t.Month(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
