package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage the role catalog",
	}
	cmd.AddCommand(
		newRolesListCmd(),
		newRolesCreateCmd(),
		newRolesGrantCmd(),
		newRolesDeleteCmd(),
		newOperationsCmd(),
	)
	return cmd
}

func newRolesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles and their operations",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			list, err := a.roles.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No roles defined.")
				return nil
			}
			for _, r := range list {
				ops := color.New(color.Faint).Sprint("(none)")
				if len(r.Operations) > 0 {
					ops = strings.Join(r.Operations, ", ")
				}
				fmt.Printf("%s  %s\n", color.CyanString(r.Name), ops)
			}
			return nil
		}),
	}
}

func newRolesCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty role",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.roles.Create(cmd.Context(), args[0]); err != nil {
				return err
			}
			success("role %s created", args[0])
			return nil
		}),
	}
}

func newRolesGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <role> [operation...]",
		Short: "Replace the operations granted to a role",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.roles.UpdateOperations(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			success("role %s now grants %d operation(s)", args[0], len(args)-1)
			return nil
		}),
	}
}

func newRolesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a role",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.roles.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			success("role %s deleted", args[0])
			return nil
		}),
	}
}

func newOperationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List operations, or add one with 'operations add <name>'",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ops, err := a.roles.ListOperations(cmd.Context())
			if err != nil {
				return err
			}
			for _, op := range ops {
				fmt.Println(op)
			}
			return nil
		}),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register an operation",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.roles.CreateOperation(cmd.Context(), args[0]); err != nil {
				return err
			}
			success("operation %s created", args[0])
			return nil
		}),
	})
	return cmd
}
