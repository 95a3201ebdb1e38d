package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xDTC/gqlxplorer/internal/app"
	"github.com/0xDTC/gqlxplorer/internal/client"
	"github.com/0xDTC/gqlxplorer/internal/storage"
)

func newHistoryCmd(st *state, opts *rootOptions) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, or the results of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st.printer.Banner()
			if opts.db == "" {
				st.printer.Fail("[!] No database given, use --db FILE")
				return &app.ConfigurationError{Msg: "history requires --db"}
			}

			db, err := storage.New(opts.db)
			if err != nil {
				return err
			}
			defer db.Close()
			runs := storage.NewRunRepo(db)

			if runID != "" {
				return printResults(st, runs, runID)
			}
			return printRuns(st, runs, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 = all)")
	cmd.Flags().StringVar(&runID, "run", "", "show the results of this run")

	return cmd
}

func printRuns(st *state, runs *storage.RunRepo, limit int) error {
	list, err := runs.List(limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		st.printer.Warn("[!] No runs recorded")
		return nil
	}

	st.printer.Header("Runs")
	for _, r := range list {
		q, m := r.Summary.Queries, r.Summary.Mutations
		st.printer.Info("%s  %s  %s", r.ID, r.StartedAt.Local().Format(time.DateTime), r.Target)
		st.printer.Plain("    queries %d/%d (%d responded), mutations %d/%d (%d responded), took %s",
			q.Attempted, q.Total, q.Responded,
			m.Attempted, m.Total, m.Responded,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	return nil
}

func printResults(st *state, runs *storage.RunRepo, runID string) error {
	results, err := runs.Results(runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		st.printer.Warn("[!] No results for run %s", runID)
		return nil
	}

	st.printer.Header("Results " + runID)
	for i, res := range results {
		st.printer.Info("[%d] %s %s", i+1, res.Kind, res.Name)
		switch {
		case res.StatusCode == nil:
			st.printer.Fail("    ✗ Failed: %s", res.Error)
		case *res.StatusCode == 200:
			st.printer.Success("    Status: ✓ Success")
		default:
			st.printer.Warn("    Status: ⚠ Status %d", *res.StatusCode)
		}
		if res.Risk != "" {
			st.printer.Warn("    Risk: %s", res.Risk)
		}
		if raw, ok := res.Response.(json.RawMessage); ok {
			st.printer.Plain("    %s", client.Truncate(string(raw), client.RawTextLimit))
		}
	}
	return nil
}
