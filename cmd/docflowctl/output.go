package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

func success(format string, args ...interface{}) {
	color.Green("✓ "+format, args...)
}

func colorStatus(st model.Status) string {
	switch st {
	case model.StatusApproved:
		return color.GreenString(string(st))
	case model.StatusRejected:
		return color.RedString(string(st))
	case model.StatusSubmitted:
		return color.YellowString(string(st))
	default:
		return color.New(color.Faint).Sprint(string(st))
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func printDocuments(docs []model.DocumentView) {
	writeDocuments(os.Stdout, docs)
}

// writeDocuments aligns every column but the last. The status goes last
// because tabwriter counts color escape bytes as cell width.
func writeDocuments(out io.Writer, docs []model.DocumentView) {
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tAUTHOR\tTITLE\tSUBMITTED\tREVIEWER\tFILES\tSTATUS")
	for _, d := range docs {
		reviewer := d.DocumentReceiver
		if reviewer == "" {
			reviewer = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.DocType, d.Author, d.Title,
			formatTime(d.SubmissionDate), reviewer, strconv.Itoa(len(d.FileIDs)), colorStatus(d.Status))
	}
	tw.Flush()
}
