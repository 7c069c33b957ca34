package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func categoriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long:  `List, add, rename and delete your categories. Default categories are shared and read-only.`,
	}

	cmd.AddCommand(listCategoriesCmd(opts))
	cmd.AddCommand(addCategoryCmd(opts))
	cmd.AddCommand(renameCategoryCmd(opts))
	cmd.AddCommand(deleteCategoryCmd(opts))

	return cmd
}

func listCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your categories and the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			cats, err := opts.app.categories.List(cmd.Context(), userID)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tDEFAULT")
			for _, c := range cats {
				def := ""
				if c.IsDefault {
					def = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, def)
			}
			return tw.Flush()
		},
	}
}

func addCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			c, err := opts.app.categories.Create(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %d: %s\n", c.ID, c.Name)
			return nil
		},
	}
}

func renameCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename one of your categories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.app.categories.Rename(cmd.Context(), userID, id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed category %d\n", id)
			return nil
		},
	}
}

func deleteCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your categories",
		Long:  `Delete a category. Its transactions become uncategorized and its budgets are removed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.app.categories.Delete(cmd.Context(), userID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %d\n", id)
			return nil
		},
	}
}
