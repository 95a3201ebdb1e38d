// Package app wires one run together: obtain a schema, derive operations,
// replay them and persist what came back.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/0xDTC/gqlxplorer/internal/analysis"
	"github.com/0xDTC/gqlxplorer/internal/client"
	"github.com/0xDTC/gqlxplorer/internal/console"
	"github.com/0xDTC/gqlxplorer/internal/introspection"
	"github.com/0xDTC/gqlxplorer/internal/parser"
	"github.com/0xDTC/gqlxplorer/internal/report"
	"github.com/0xDTC/gqlxplorer/internal/runner"
	"github.com/0xDTC/gqlxplorer/internal/schema"
	"github.com/0xDTC/gqlxplorer/internal/storage"
)

// Options are the resolved settings of one invocation.
type Options struct {
	URL         string
	Proxy       string
	SchemaOut   string // save the retrieved schema here
	Execute     bool   // replay the derived operations
	SchemaFile  string // load the schema from here instead of introspecting
	Output      string // write the results JSON here
	Delay       time.Duration
	Pause       bool
	Headers     []string // "Name: value"
	Timeout     time.Duration
	UserAgent   string
	DB          string
	MaxBodySize int64 // bytes; the client default applies when zero
}

// Deps are the collaborators of Run. Transport is built from Options when nil.
type Deps struct {
	Printer   console.Printer
	Logger    logrus.FieldLogger
	Transport runner.Transport
	Confirm   runner.Confirmer
}

// Run performs one invocation. It returns a *ConfigurationError or a
// *SchemaUnavailableError for fatal conditions; per-request failures are
// recorded in the results and never returned.
func Run(ctx context.Context, opts Options, deps Deps) error {
	p := deps.Printer
	log := deps.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	if !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
		p.Fail("[!] Invalid URL. Must start with http:// or https://")
		return &ConfigurationError{Msg: fmt.Sprintf("invalid url %q", opts.URL)}
	}

	headers := make(map[string]string, len(opts.Headers))
	for _, h := range opts.Headers {
		name, value, err := client.ParseHeader(h)
		if err != nil {
			p.Fail("[!] %v", err)
			return &ConfigurationError{Msg: "invalid header", Err: err}
		}
		headers[name] = value
	}

	transport := deps.Transport
	if transport == nil {
		c, err := client.New(opts.URL, client.Options{
			Timeout:     opts.Timeout,
			Proxy:       opts.Proxy,
			UserAgent:   opts.UserAgent,
			Headers:     headers,
			MaxBodySize: opts.MaxBodySize,
			Logger:      log,
		})
		if err != nil {
			p.Fail("[!] %v", err)
			return &ConfigurationError{Msg: "invalid proxy", Err: err}
		}
		transport = c
	}

	p.Info("[*] Target: %s", opts.URL)
	if opts.Proxy != "" {
		p.Info("[*] Proxy: %s", opts.Proxy)
	}
	p.Info("[*] Delay: %gs between requests", opts.Delay.Seconds())
	p.Plain("")

	var hist *history
	if opts.DB != "" {
		h, err := openHistory(opts.DB)
		if err != nil {
			p.Fail("[!] Failed to open run history: %v", err)
			return &ConfigurationError{Msg: "open history", Err: err}
		}
		defer h.close()
		hist = h
	}

	s, raw, err := obtainSchema(ctx, opts, transport, p)
	if err != nil {
		return err
	}

	var schemaID string
	if hist != nil {
		reportSchemaChanges(p, log, hist, opts.URL, s)
		if schemaID, err = hist.schemas.Save(opts.URL, s, raw); err != nil {
			log.WithError(err).Warn("failed to record schema")
		}
	}

	if !opts.Execute {
		if opts.SchemaOut == "" {
			p.Plain("")
			p.Warn("[!] Use -s to save schema and/or -q [schema_file] to execute queries/mutations")
		}
		return nil
	}

	p.Plain("")
	p.Info("[*] Extracting queries and mutations...")
	queries, mutations := schema.ExtractOperations(s)
	p.Success("[+] Found %d queries and %d mutations", len(queries), len(mutations))
	if len(queries) == 0 && len(mutations) == 0 {
		p.Warn("[!] No queries or mutations found in schema")
		return nil
	}

	r := &runner.Runner{
		Target:    opts.URL,
		Transport: transport,
		Printer:   p,
		Delay:     opts.Delay,
		Logger:    log,
	}
	if opts.Pause {
		r.Confirm = deps.Confirm
	}
	rep := r.Run(ctx, queries, mutations)

	if ctx.Err() != nil {
		p.Plain("")
		p.Warn("[!] Interrupted, keeping partial results")
	}
	printSummary(p, rep)

	if opts.Output != "" {
		if err := report.WriteJSON(rep, opts.Output); err != nil {
			p.Fail("[!] Failed to save results: %v", err)
		} else {
			p.Success("[+] Results saved to %s", opts.Output)
		}
	}

	if hist != nil {
		runID, err := hist.runs.Save(rep, schemaID)
		if err != nil {
			p.Fail("[!] Failed to record run: %v", err)
		} else {
			p.Success("[+] Run recorded as %s", runID)
		}
	}
	return nil
}

// obtainSchema loads the schema from a file when one is given, otherwise
// checks introspection and retrieves it from the target.
func obtainSchema(ctx context.Context, opts Options, t runner.Transport, p console.Printer) (*schema.Schema, json.RawMessage, error) {
	if opts.SchemaFile != "" {
		p.Info("[*] Loading schema from file: %s", opts.SchemaFile)
		s, raw, err := storage.LoadSchemaFile(opts.SchemaFile)
		if err != nil {
			p.Fail("[!] %v", err)
			p.Fail("[!] Failed to load schema from file. Cannot proceed.")
			return nil, nil, &SchemaUnavailableError{Reason: "load schema file", Err: err}
		}
		p.Success("[+] Schema loaded from %s", opts.SchemaFile)
		if opts.SchemaOut != "" {
			p.Warn("[!] Schema loaded from file, ignoring -s %s", opts.SchemaOut)
		}
		return s, raw, nil
	}

	p.Info("[*] Checking if introspection is enabled...")
	check, err := introspection.Check(ctx, t)
	if err != nil {
		p.Fail("[!] Error: %v", err)
		p.Plain("")
		p.Fail("[!] Introspection is disabled. Cannot proceed.")
		return nil, nil, &SchemaUnavailableError{Reason: "introspection check", Err: err}
	}
	switch check.Status {
	case introspection.Enabled:
		p.Success("[+] Introspection is ENABLED!")
	case introspection.Disabled:
		p.Fail("[!] Introspection is DISABLED")
		p.Warn("[!] Error: %s", check.Message)
	case introspection.LikelyDisabled:
		p.Fail("[!] Introspection is likely DISABLED")
	case introspection.Unparseable:
		p.Fail("[!] Failed to parse response as JSON")
		p.Warn("[!] Response: %s", check.Message)
	}
	if !check.Enabled() {
		p.Plain("")
		p.Fail("[!] Introspection is disabled. Cannot proceed.")
		return nil, nil, &SchemaUnavailableError{Reason: check.Status.String(), Err: ErrIntrospectionDisabled}
	}

	p.Info("[*] Retrieving full schema...")
	s, raw, err := introspection.Fetch(ctx, t)
	if err != nil {
		p.Fail("[!] Failed to retrieve schema: %v", err)
		p.Fail("[!] Failed to retrieve schema. Cannot proceed.")
		return nil, nil, &SchemaUnavailableError{Reason: "retrieve schema", Err: err}
	}
	p.Success("[+] Successfully retrieved schema!")

	if opts.SchemaOut != "" {
		p.Plain("")
		p.Info("[*] Saving schema to file...")
		if err := storage.SaveSchemaFile(opts.SchemaOut, raw); err != nil {
			p.Fail("[!] Failed to save schema: %v", err)
		} else {
			p.Success("[+] Schema saved to %s", opts.SchemaOut)
		}
	}
	return s, raw, nil
}

func printSummary(p console.Printer, rep *report.Report) {
	q, m := rep.Summary.Queries, rep.Summary.Mutations
	p.Header("Summary")
	p.Success("Queries executed: %d/%d (%d responded)", q.Attempted, q.Total, q.Responded)
	p.Success("Mutations executed: %d/%d (%d responded)", m.Attempted, m.Total, m.Responded)
}

// reportSchemaChanges compares s with the schema last recorded for target.
func reportSchemaChanges(p console.Printer, log logrus.FieldLogger, hist *history, target string, s *schema.Schema) {
	rec, raw, err := hist.schemas.Latest(target)
	if err != nil {
		log.WithError(err).Warn("failed to load previous schema")
		return
	}
	if rec == nil {
		return
	}
	prev, _, err := parser.ParseIntrospection(raw, rec.Source)
	if err != nil {
		log.WithError(err).WithField("schema", rec.ID).Warn("previous schema does not parse")
		return
	}

	diff := analysis.DiffSchemas(prev, s)
	if diff.Empty() {
		p.Info("[*] Schema unchanged since %s", rec.CreatedAt.Local().Format(time.DateTime))
		return
	}
	p.Warn("[!] Schema changed since %s", rec.CreatedAt.Local().Format(time.DateTime))
	added, removed := diff.Operations(s)
	for _, op := range added {
		p.Success("    + %s", op)
	}
	for _, op := range removed {
		p.Fail("    - %s", op)
	}
	for _, c := range diff.Changed {
		if c.Breaking {
			p.Warn("    ~ %s: %s -> %s", c.Path, c.OldType, c.NewType)
		}
	}
	p.Plain("    %d types added, %d removed, %d fields added, %d removed, %d changed",
		len(diff.AddedTypes), len(diff.RemovedTypes), len(diff.AddedFields), len(diff.RemovedFields), len(diff.Changed))
}

type history struct {
	db      *storage.DB
	schemas *storage.SchemaRepo
	runs    *storage.RunRepo
}

func openHistory(path string) (*history, error) {
	db, err := storage.New(path)
	if err != nil {
		return nil, err
	}
	return &history{
		db:      db,
		schemas: storage.NewSchemaRepo(db),
		runs:    storage.NewRunRepo(db),
	}, nil
}

func (h *history) close() {
	h.db.Close()
}
