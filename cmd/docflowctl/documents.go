package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/DocFlow/internal/config"
	"github.com/dharsanguruparan/DocFlow/internal/model"
	"github.com/dharsanguruparan/DocFlow/internal/query"
)

func newDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List and review documents",
	}
	cmd.AddCommand(
		newDocumentsListCmd(),
		newDocumentsApproveCmd(),
		newDocumentsRejectCmd(),
		newDocumentsDeleteCmd(),
	)
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", raw)
	}
	return id, nil
}

func newDocumentsListCmd() *cobra.Command {
	var (
		author string
		groups string
		status string
		title  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents of an author, routed to approval groups, or all of them",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if author != "" && groups != "" {
				return errors.New("--author and --groups are mutually exclusive")
			}
			c := query.Criteria{Title: title}
			if status != "" {
				st, ok := model.ParseStatus(strings.ToUpper(status))
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				c.Status = st
			}
			var (
				docs []model.DocumentView
				err  error
			)
			switch {
			case author != "":
				docs, err = a.query.ListByAuthor(cmd.Context(), author, c)
			case groups != "":
				docs, err = a.query.ListForApproval(cmd.Context(), config.ParseList(groups), c)
			default:
				docs, err = a.query.ListAll(cmd.Context(), c)
			}
			if err != nil {
				return err
			}
			printDocuments(docs)
			return nil
		}),
	}
	cmd.Flags().StringVar(&author, "author", "", "List documents by this author")
	cmd.Flags().StringVar(&groups, "groups", "", "Comma-separated approval groups")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&title, "title", "", "Case-insensitive title substring")
	return cmd
}

func newDocumentsApproveCmd() *cobra.Command {
	var reviewer string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a submitted document",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Approve(cmd.Context(), id, reviewer); err != nil {
				return err
			}
			success("document %d approved by %s", id, reviewer)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&reviewer, "reviewer", "r", "", "Reviewer identity")
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}

func newDocumentsRejectCmd() *cobra.Command {
	var reviewer, reason string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a submitted document",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Reject(cmd.Context(), id, reviewer, reason); err != nil {
				return err
			}
			success("document %d rejected by %s", id, reviewer)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&reviewer, "reviewer", "r", "", "Reviewer identity")
	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason")
	_ = cmd.MarkFlagRequired("reviewer")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newDocumentsDeleteCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a document, or every document with --description",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if (len(args) == 1) == (description != "") {
				return errors.New("pass either an id or --description")
			}
			if description != "" {
				n, err := a.engine.DeleteByDescription(cmd.Context(), description)
				if err != nil {
					return err
				}
				success("%d document(s) deleted", n)
				return nil
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Delete(cmd.Context(), id); err != nil {
				return err
			}
			success("document %d deleted", id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&description, "description", "", "Delete every document with exactly this description")
	return cmd
}
