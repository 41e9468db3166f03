package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"releasesync/internal/ingest"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync over the configured providers and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()

			sum, err := a.service.Run(ctx)
			printSummary(cmd.OutOrStdout(), sum)
			if a.memory != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: %d distinct items held in memory\n", a.memory.Len())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "write to an in-memory store instead of the database")
	return cmd
}

func printSummary(w io.Writer, sum ingest.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tFETCHED\tDROPPED\tSAVED\tWRITE ERRORS\tFAILURES")
	for _, p := range sum.Providers {
		status := failureList(p)
		if p.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", p.Name, p.Fetched, p.Dropped, p.Saved, p.WriteErrors, status)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "total saved: %d\n", sum.Saved)
}

func failureList(p ingest.ProviderSummary) string {
	if len(p.Failures) == 0 {
		return "-"
	}
	counts := make(map[string]int)
	for _, f := range p.Failures {
		counts[string(f.Kind)]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	var out string
	for i, k := range kinds {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}
