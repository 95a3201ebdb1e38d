// Package cli is the command-line surface of gqlxplorer.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/0xDTC/gqlxplorer/internal/app"
	"github.com/0xDTC/gqlxplorer/internal/client"
	"github.com/0xDTC/gqlxplorer/internal/config"
	"github.com/0xDTC/gqlxplorer/internal/console"
	"github.com/0xDTC/gqlxplorer/internal/logging"
)

// queryFromTarget is the value of a bare -q.
const queryFromTarget = "true"

// Streams are the process I/O handles.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type rootOptions struct {
	url        string
	proxy      string
	schemaOut  string
	query      string
	output     string
	delay      float64
	pause      bool
	headers    []string
	timeout    int
	maxBodyMB  int
	userAgent  string
	configPath string
	db         string
	verbose    bool
	noColor    bool
}

// state is built once per invocation before any command runs.
type state struct {
	cfg     *config.Config
	printer console.Printer
	logger  *logrus.Logger
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	cmd := NewRootCmd(streams)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !reported(err) {
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
	}
	return app.ExitCode(err)
}

// reported tells whether the error was already shown to the operator.
func reported(err error) bool {
	var cfgErr *app.ConfigurationError
	var unavailable *app.SchemaUnavailableError
	return errors.As(err, &cfgErr) || errors.As(err, &unavailable)
}

// NewRootCmd returns the root command.
func NewRootCmd(streams Streams) *cobra.Command {
	opts := &rootOptions{}
	st := &state{}

	rootCmd := &cobra.Command{
		Use:   "gqlxplorer",
		Short: "GraphQL Introspection & Auto-Query Tool",
		Long: `Check whether a GraphQL endpoint allows introspection, retrieve its schema,
and execute every query and mutation it declares with placeholder arguments.`,
		Example: `  gqlxplorer -u https://example.com/graphql -s schema.json
  gqlxplorer -u https://example.com/graphql -p -q
  gqlxplorer -u https://example.com/graphql -p=http://127.0.0.1:9090 -q
  gqlxplorer -u https://example.com/graphql -q schema.json -o results.json
  gqlxplorer -u https://example.com/graphql -q --pause`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.init(cmd, opts, streams)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st.printer.Banner()
			if opts.url == "" {
				return cmd.Help()
			}
			if err := opts.bindPositional(cmd, args); err != nil {
				st.printer.Fail("[!] %v", err)
				return err
			}
			appOpts, err := opts.resolve(cmd, st.cfg)
			if err != nil {
				st.printer.Fail("[!] %v", err)
				return err
			}
			deps := app.Deps{Printer: st.printer, Logger: st.logger}
			if appOpts.Pause {
				deps.Confirm = console.NewStdinConfirmer(streams.In, st.printer).Confirm
			}
			return app.Run(cmd.Context(), appOpts, deps)
		},
	}
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.Err)
	rootCmd.Args = cobra.MaximumNArgs(2)

	f := rootCmd.Flags()
	f.StringVarP(&opts.url, "url", "u", "", "target GraphQL endpoint URL")
	f.StringVarP(&opts.proxy, "proxy", "p", "", "use proxy (default "+client.DefaultProxy+" when given without a value)")
	f.Lookup("proxy").NoOptDefVal = client.DefaultProxy
	f.StringVarP(&opts.schemaOut, "schema", "s", "", "save retrieved schema to JSON file")
	f.StringVarP(&opts.query, "query", "q", "", "execute all queries and mutations; optionally load the schema from SCHEMA_FILE")
	f.Lookup("query").NoOptDefVal = queryFromTarget
	f.StringVarP(&opts.output, "output", "o", "", "save query/mutation results to JSON file")
	f.Float64VarP(&opts.delay, "delay", "d", config.DefaultDelay, "delay before each request in seconds")
	f.BoolVar(&opts.pause, "pause", false, "wait for Enter before each request")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, `extra request header "Name: value" (repeatable)`)
	f.IntVar(&opts.timeout, "timeout", config.DefaultTimeout, "request timeout in seconds")
	f.IntVar(&opts.maxBodyMB, "max-body-mb", config.DefaultMaxBodyMB, "largest response body accepted, in MiB")
	f.StringVar(&opts.userAgent, "user-agent", config.DefaultUserAgent, "User-Agent header")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.db, "db", "", "SQLite database recording schemas and runs")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newHistoryCmd(st, opts))

	return rootCmd
}

func (st *state) init(cmd *cobra.Command, opts *rootOptions, streams Streams) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	noColor := opts.noColor
	if !cmd.Flags().Changed("no-color") {
		noColor = cfg.NoColor
	}
	if !cmd.Flags().Changed("db") {
		opts.db = cfg.DB
	}
	st.cfg = cfg
	st.printer = console.NewColorPrinter(streams.Out, noColor)
	st.logger = logging.New(opts.verbose)
	st.logger.SetOutput(streams.Err)
	return nil
}

// bindPositional assigns a value written after a bare -p or -q with a space,
// as in "-q schema.json". A URL goes to the proxy, anything else to -q.
func (o *rootOptions) bindPositional(cmd *cobra.Command, args []string) error {
	bareProxy := cmd.Flags().Changed("proxy") && o.proxy == client.DefaultProxy
	bareQuery := cmd.Flags().Changed("query") && o.query == queryFromTarget

	for _, arg := range args {
		switch {
		case bareProxy && (strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "socks5://")):
			o.proxy = arg
			bareProxy = false
		case bareQuery:
			o.query = arg
			bareQuery = false
		default:
			return &app.ConfigurationError{Msg: fmt.Sprintf("unexpected argument %q", arg)}
		}
	}
	return nil
}

// resolve merges flags with the config file. Flags given explicitly win.
func (o *rootOptions) resolve(cmd *cobra.Command, cfg *config.Config) (app.Options, error) {
	flags := cmd.Flags()

	merged := *cfg
	if flags.Changed("proxy") {
		merged.Proxy = o.proxy
	}
	if flags.Changed("delay") {
		merged.Delay = o.delay
	}
	if flags.Changed("timeout") {
		merged.Timeout = o.timeout
	}
	if flags.Changed("max-body-mb") {
		merged.MaxBodyMB = o.maxBodyMB
	}
	if flags.Changed("user-agent") {
		merged.UserAgent = o.userAgent
	}
	if flags.Changed("pause") {
		merged.Pause = o.pause
	}
	if err := merged.Validate(); err != nil {
		return app.Options{}, &app.ConfigurationError{Msg: "invalid options", Err: err}
	}

	names := make([]string, 0, len(cfg.Headers))
	for name := range cfg.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	headers := make([]string, 0, len(names)+len(o.headers))
	for _, name := range names {
		headers = append(headers, name+": "+cfg.Headers[name])
	}
	headers = append(headers, o.headers...)

	execute := flags.Changed("query")
	var schemaFile string
	if execute && o.query != queryFromTarget && o.query != "" {
		schemaFile = o.query
	}

	return app.Options{
		URL:         o.url,
		Proxy:       merged.Proxy,
		SchemaOut:   o.schemaOut,
		Execute:     execute,
		SchemaFile:  schemaFile,
		Output:      o.output,
		Delay:       merged.DelayDuration(),
		Pause:       merged.Pause,
		Headers:     headers,
		Timeout:     merged.TimeoutDuration(),
		MaxBodySize: merged.MaxBodySize(),
		UserAgent:   merged.UserAgent,
		DB:          o.db,
	}, nil
}
