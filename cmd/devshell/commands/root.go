// Package commands implements the CLI commands for devshell.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/app"
	"go.trai.ch/devshell/internal/build"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
)

// CLI represents the command line interface for devshell.
type CLI struct {
	app      Application
	settings ports.SettingsLoader
	log      ports.Logger
	current  *domain.Settings
	rootCmd  *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Configure(s *domain.Settings)
	Shell(ctx context.Context, opts app.Options) error
	Hook(ctx context.Context, opts app.Options) error
	PrintEnv(ctx context.Context, opts app.Options, w io.Writer, asJSON bool) error
	Lock(ctx context.Context, opts app.LockOptions) error
	Check(ctx context.Context, opts app.CheckOptions, w io.Writer) error
	RunScript(ctx context.Context, name string, args []string, opts app.Options) error
	Info(ctx context.Context, opts app.Options, w io.Writer) error
}

// jsonLogger is implemented by loggers that can switch to JSON lines.
type jsonLogger interface {
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app.
func New(a Application, settings ports.SettingsLoader, log ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "devshell",
		Short:         "Reproducible development shells from a declarative descriptor",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	pf := rootCmd.PersistentFlags()
	pf.StringP("file", "f", domain.DescriptorFileName, "Descriptor file or the directory holding it")
	pf.StringP("system", "s", "", "Platform to evaluate instead of the current one")
	pf.StringP("log-level", "l", "info",
		fmt.Sprintf("Log level: %v", domain.LogLevelChoices()))
	pf.String("log-format", domain.LogFormatPretty, "Log format: pretty or json")
	pf.Bool("frozen", false, "Fail instead of changing the lock file")

	c := &CLI{
		app:      a,
		settings: settings,
		log:      log,
		rootCmd:  rootCmd,
	}
	rootCmd.PersistentPreRunE = c.configure

	rootCmd.AddCommand(c.newShellCmd())
	rootCmd.AddCommand(c.newHookCmd())
	rootCmd.AddCommand(c.newPrintEnvCmd())
	rootCmd.AddCommand(c.newLockCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newInfoCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// configure reloads the settings with the parsed flags and applies them.
func (c *CLI) configure(cmd *cobra.Command, _ []string) error {
	s, err := c.settings.Load(cmd.Flags())
	if err != nil {
		return err
	}

	level, err := s.Level()
	if err != nil {
		return err
	}
	c.log.SetLevel(level)
	if j, ok := c.log.(jsonLogger); ok {
		j.SetJSON(s.LogFormat == domain.LogFormatJSON)
	}

	c.app.Configure(s)
	c.current = s
	return nil
}

func (c *CLI) options() app.Options {
	return app.OptionsFrom(c.current)
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
