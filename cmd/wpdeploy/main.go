package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	simple "github.com/wpselfhosted/wpdeploy/internal/configurations"
	"github.com/wpselfhosted/wpdeploy/internal/logging"
	"github.com/wpselfhosted/wpdeploy/internal/setup"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps its outcome onto a process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	cli := &cli{
		stderr:   stderr,
		levelVar: &levelVar,
		logger:   logging.NewCLI(stderr, &levelVar),
	}
	root := cli.newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		cli.logger.Warn("deployment interrupted", "error", err)
		return exitInterrupted
	}
	cli.logger.Error("deployment failed", "error", err)
	return exitFailure
}

type cli struct {
	stderr   io.Writer
	levelVar *slog.LevelVar
	logger   *slog.Logger

	configPath string
	flags      setup.Options
	dryRun     bool
}

func (c *cli) newRootCommand() *cobra.Command {
	setup.SetLogger(c.logger.With("component", "setup"))

	root := &cobra.Command{
		Use:   "wpdeploy <target_url> <username> <password>",
		Short: "Publish a plugin or theme release to a self-hosted WordPress repository",
		Long: "Uploads readme.txt and the release zip found in --path to the target WordPress site,\n" +
			"creating a page for the slug when none exists and attaching both files to it.",
		Args:          cobra.ExactArgs(3),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.deploy(cmd, setup.Account{URL: args[0], Username: args[1], Password: args[2]})
		},
	}

	defaults := setup.Defaults()
	flags := root.Flags()
	flags.StringVarP(&c.flags.Type, "type", "t", "", `Type of project: "plugin" or "theme" (required)`)
	flags.StringVarP(&c.flags.Slug, "slug", "s", "", "Page slug on the target site, defaults to the zip file name without extension")
	flags.StringVar(&c.flags.Path, "path", defaults.Path, "Directory containing readme.txt and the zip file")
	flags.BoolVar(&c.flags.InsecureSkipVerify, "insecure-skip-verify", false, "Skip TLS certificate verification of the target site")
	flags.DurationVar(&c.flags.Timeout, "timeout", defaults.Timeout, "Timeout of each HTTP request")
	flags.StringVar(&c.configPath, "config", "", "YAML file with default options (default "+setup.DefaultConfigFile+" if present)")
	flags.BoolVar(&c.dryRun, "dry-run", false, "Resolve and print the artifact without contacting the target site")

	root.PersistentFlags().StringVar(&c.flags.LogLevel, "log-level", defaults.LogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().StringVar(&c.flags.LogFormat, "log-format", defaults.LogFormat, "Set log format (text, json)")

	root.AddCommand(newVersionCommand())
	return root
}

func (c *cli) deploy(cmd *cobra.Command, account setup.Account) error {
	opts, err := c.options(cmd)
	if err != nil {
		return err
	}
	if err := c.configureLogger(opts, account.Password); err != nil {
		return err
	}

	req := simple.Request{
		Account:   account,
		Options:   opts,
		UserAgent: "wpdeploy/" + version,
	}
	logger := c.logger.With("command", "deploy")

	plan, err := simple.Prepare(req, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.dryRun {
		fmt.Fprintf(out, "readme:\t%s\n", plan.Artifact.ReadmePath)
		fmt.Fprintf(out, "archive:\t%s\n", plan.Artifact.ArchivePath)
		fmt.Fprintf(out, "version:\t%s\n", valueOr(plan.Artifact.Version, "unknown"))
		fmt.Fprintf(out, "type:\t%s\n", plan.Target.Kind)
		fmt.Fprintf(out, "slug:\t%s\n", plan.Target.Slug)
		fmt.Fprintf(out, "target:\t%s\n", plan.Target.BaseURL)
		return nil
	}

	report, err := simple.Publish(cmd.Context(), plan, req.UserAgent, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "published %s %s to page %d (readme media %d, archive media %d)\n",
		plan.Target.Kind, report.Slug, report.Page.ID, report.Readme.ID, report.Archive.ID)
	return nil
}

// options merges defaults, config file, environment and explicitly set flags.
func (c *cli) options(cmd *cobra.Command) (setup.Options, error) {
	opts := setup.Defaults()

	path, optional := c.configPath, false
	if path == "" {
		path, optional = setup.DefaultConfigFile, true
	}
	file, err := setup.LoadFile(path, optional)
	if err != nil {
		return opts, err
	}
	if err := opts.ApplyFile(file); err != nil {
		return opts, err
	}
	if err := opts.ApplyEnv(os.LookupEnv); err != nil {
		return opts, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("type") {
		opts.Type = c.flags.Type
	}
	if changed("slug") {
		opts.Slug = c.flags.Slug
	}
	if changed("path") {
		opts.Path = c.flags.Path
	}
	if changed("insecure-skip-verify") {
		opts.InsecureSkipVerify = c.flags.InsecureSkipVerify
	}
	if changed("timeout") {
		if c.flags.Timeout <= 0 {
			return opts, fmt.Errorf("--timeout must be positive, got %s", c.flags.Timeout)
		}
		opts.Timeout = c.flags.Timeout
	}
	if changed("log-level") {
		opts.LogLevel = c.flags.LogLevel
	}
	if changed("log-format") {
		opts.LogFormat = c.flags.LogFormat
	}
	return opts, nil
}

// configureLogger rebuilds the logger with the final level and format and
// masks the credential everywhere it could be printed.
func (c *cli) configureLogger(opts setup.Options, credential string) error {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(opts.LogFormat)
	if err != nil {
		return err
	}
	c.levelVar.Set(level)
	c.logger = logging.New(c.stderr, logging.Options{
		Format:   format,
		Level:    c.levelVar,
		Redactor: logging.NewRedactor(credential),
	})
	setup.SetLogger(c.logger.With("component", "setup"))
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wpdeploy version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
