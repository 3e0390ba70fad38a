package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rangeFlags struct {
	docType string
	from    string
	to      string
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.docType, "doc-type", "", "Document type")
	cmd.Flags().StringVar(&r.from, "from", "", "Start date (YYYY-MM-DD), inclusive")
	cmd.Flags().StringVar(&r.to, "to", "", "End date (YYYY-MM-DD), inclusive")
	_ = cmd.MarkFlagRequired("doc-type")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func (r *rangeFlags) bounds() (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", r.from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", r.to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Review statistics",
	}
	cmd.AddCommand(newStatsSummaryCmd(), newStatsTopAuthorsCmd())
	return cmd
}

func newStatsSummaryCmd() *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count submitted, approved and rejected documents",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			from, to, err := rf.bounds()
			if err != nil {
				return err
			}
			counts, err := a.query.Statistics(cmd.Context(), rf.docType, from, to)
			if err != nil {
				return err
			}
			fmt.Printf("Submitted: %d\n", counts.Submitted)
			fmt.Printf("Approved:  %s\n", color.GreenString("%d", counts.Approved))
			fmt.Printf("Rejected:  %s\n", color.RedString("%d", counts.Rejected))
			return nil
		}),
	}
	rf.register(cmd)
	return cmd
}

func newStatsTopAuthorsCmd() *cobra.Command {
	var (
		rf rangeFlags
		n  int
	)
	cmd := &cobra.Command{
		Use:   "top-authors",
		Short: "Rank authors by submitted documents",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			from, to, err := rf.bounds()
			if err != nil {
				return err
			}
			top, err := a.query.TopAuthors(cmd.Context(), rf.docType, from, to, n)
			if err != nil {
				return err
			}
			if len(top) == 0 {
				fmt.Println("No submissions in range.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tAUTHOR\tSUBMITTED")
			for i, row := range top {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, row.Author, row.Submitted)
			}
			return tw.Flush()
		}),
	}
	rf.register(cmd)
	cmd.Flags().IntVarP(&n, "n", "n", 10, "Number of authors to show")
	return cmd
}
