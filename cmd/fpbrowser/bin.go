package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	binCmd := &cobra.Command{
		Use:     "bin",
		Aliases: []string{"recycle-bin"},
		Short:   "Inspect and manage the recycle bin",
	}

	var listPage int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List deleted profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := connect(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer o.Close()
			if _, err := o.Bin.Load(cmd.Context()); err != nil {
				return err
			}
			o.Bin.SetPage(listPage)
			page, _, items := o.Bin.Page()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tGROUP\tDELETED")
			for _, p := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Group, p.DeletedAt.Local().Format(time.DateTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d total\n", page, o.Bin.Pages(), len(o.Bin.List()))
			return nil
		},
	}
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")

	restoreCmd := &cobra.Command{
		Use:   "restore <id>...",
		Short: "Restore deleted profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := connect(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer o.Close()
			if _, err := o.Bin.Load(cmd.Context()); err != nil {
				return err
			}
			res, err := o.Bin.BatchRestore(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), "restored", res)
		},
	}

	var yes bool
	purgeCmd := &cobra.Command{
		Use:   "purge <id>...",
		Short: "Permanently delete profiles from the recycle bin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := connect(cmd.Context(), cmd, yes)
			if err != nil {
				return err
			}
			defer o.Close()
			if _, err := o.Bin.Load(cmd.Context()); err != nil {
				return err
			}
			res, err := o.Bin.BatchPermanentlyDelete(cmd.Context(), args)
			if err != nil {
				return err
			}
			if res.Total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			return printBatch(cmd.OutOrStdout(), "permanently deleted", res)
		},
	}
	purgeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	emptyCmd := &cobra.Command{
		Use:   "empty",
		Short: "Permanently delete everything in the recycle bin",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := connect(cmd.Context(), cmd, yes)
			if err != nil {
				return err
			}
			defer o.Close()
			items, err := o.Bin.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Recycle bin is already empty.")
				return nil
			}
			n, err := o.Bin.Empty(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Permanently deleted %d profile(s)\n", n)
			return nil
		},
	}
	emptyCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	binCmd.AddCommand(listCmd, restoreCmd, purgeCmd, emptyCmd)
	rootCmd.AddCommand(binCmd)
}
