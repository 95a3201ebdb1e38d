// Package runner replays synthetic operations against the target one at a
// time and records what came back.
package runner

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/0xDTC/gqlxplorer/internal/analysis"
	"github.com/0xDTC/gqlxplorer/internal/client"
	"github.com/0xDTC/gqlxplorer/internal/console"
	"github.com/0xDTC/gqlxplorer/internal/generator"
	"github.com/0xDTC/gqlxplorer/internal/report"
	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// DefaultDelay is the wait before every request.
const DefaultDelay = 500 * time.Millisecond

// Transport sends a GraphQL payload to the target.
type Transport interface {
	Do(ctx context.Context, p client.Payload) (*client.Response, error)
}

// Confirmer blocks until the operator allows the next request. A non-nil
// error stops the batch.
type Confirmer func(ctx context.Context) error

// Runner executes operations sequentially with a fixed delay before each
// request. Only one request is in flight at a time.
type Runner struct {
	Target    string
	Transport Transport
	Printer   console.Printer
	// Confirm is called before each request when set.
	Confirm Confirmer
	Delay   time.Duration
	Logger  logrus.FieldLogger
}

// Run sends every query, then every mutation, in the order given. A failed
// request is recorded and does not stop the batch. Cancelling ctx stops the
// batch between operations and returns what has been recorded so far.
func (r *Runner) Run(ctx context.Context, queries, mutations []schema.Field) *report.Report {
	log := r.logger()
	rep := report.New(r.Target, len(queries), len(mutations))
	defer rep.Finish()

	groups := []struct {
		kind   generator.OperationKind
		title  string
		fields []schema.Field
		add    func(report.Result)
	}{
		{generator.Query, "queries", queries, rep.AddQuery},
		{generator.Mutation, "mutations", mutations, rep.AddMutation},
	}

	for _, g := range groups {
		r.Printer.Header("Sending " + g.title)
		r.Printer.Info("Sending %d %s...", len(g.fields), g.title)
		r.Printer.Plain("")

		for i, f := range g.fields {
			if ctx.Err() != nil {
				log.WithField("kind", g.kind).Debug("batch cancelled")
				return rep
			}
			res, err := r.runOne(ctx, g.kind, f, i+1, len(g.fields))
			if err != nil {
				log.WithError(err).WithField("operation", f.Name).Debug("batch stopped")
				return rep
			}
			g.add(res)
			r.Printer.Plain("")
		}
	}
	return rep
}

// runOne executes a single field. The returned error is non-nil only when
// the batch must stop before the request was sent.
func (r *Runner) runOne(ctx context.Context, kind generator.OperationKind, f schema.Field, idx, total int) (report.Result, error) {
	log := r.logger().WithFields(logrus.Fields{"operation": f.Name, "kind": kind})

	r.Printer.Info("[%d/%d] Executing %s: %s", idx, total, kind, f.Name)

	res := report.Result{Name: f.Name, Kind: string(kind)}
	if kind == generator.Mutation {
		if risk, ok := analysis.ClassifyMutation(f); ok {
			res.Risk = risk.String()
			r.Printer.Warn("    ⚠ Risky mutation: %s", res.Risk)
		}
	}

	if r.Confirm != nil {
		if err := r.Confirm(ctx); err != nil {
			return res, err
		}
	}

	op := generator.BuildForField(f, kind)
	if err := generator.Validate(op.Document); err != nil {
		log.WithError(err).Debug("generated document does not parse")
	}

	if err := wait(ctx, r.delay()); err != nil {
		return res, err
	}

	resp, err := r.Transport.Do(ctx, client.Payload{Query: op.Document, Variables: op.Variables})
	var tooLarge *client.ResponseTooLargeError
	if errors.As(err, &tooLarge) {
		status := tooLarge.StatusCode
		res.StatusCode = &status
		res.Error = err.Error()
		r.Printer.Warn("    Status: ⚠ Status %d", status)
		r.Printer.Fail("    Response discarded: %v", err)
		return res, nil
	}
	if err != nil {
		log.WithError(err).Debug("request failed")
		r.Printer.Fail("    ✗ Failed: %v", err)
		res.Error = err.Error()
		return res, nil
	}

	status := resp.StatusCode
	res.StatusCode = &status
	log.WithFields(logrus.Fields{"status": status, "elapsed": resp.Elapsed}).Debug("operation sent")

	if status == 200 {
		r.Printer.Success("    Status: ✓ Success")
	} else {
		r.Printer.Warn("    Status: ⚠ Status %d", status)
	}

	raw, ok := resp.JSON()
	if !ok {
		r.Printer.Fail("    Failed to parse response")
		res.Response = resp.RawText()
		return res, nil
	}
	res.Response = raw

	if body, err := resp.GraphQL(); err == nil {
		if msg := body.FirstError(); msg != "" {
			r.Printer.Warn("    Errors: %s", msg)
		} else if len(body.Data) > 0 {
			r.Printer.Success("    Data received")
		}
	}
	return res, nil
}

func (r *Runner) delay() time.Duration {
	if r.Delay < 0 {
		return 0
	}
	return r.Delay
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
