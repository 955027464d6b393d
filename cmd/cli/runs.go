package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gojsm/adapters/excel"
	"gojsm/domain/core"
	"gojsm/ports"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs stored in the database",
	}
	cmd.AddCommand(newRunsListCmd(root), newRunsShowCmd(root))
	return cmd
}

func newRunsListCmd(root *rootOptions) *cobra.Command {
	var (
		limit       int
		offset      int
		fingerprint string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()
			if err := env.connect(cmd.Context()); err != nil {
				return err
			}

			runs, err := env.service(excel.DefaultExcelConfig()).ListRuns(cmd.Context(), ports.RunFilters{
				Fingerprint: core.Hash(fingerprint),
				Limit:       limit,
				Offset:      offset,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATASET\tMETHOD\tSTEP\tCAUSES\tCOMPLETE\tFINGERPRINT\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%v\t%s\t%s\n",
					r.ID, r.DatasetName, r.Method, r.FinalStep, r.Causes, r.Complete,
					r.Fingerprint.Short(), r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of runs")
	cmd.Flags().IntVar(&offset, "offset", 0, "Runs to skip")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Only runs with this fingerprint")
	return cmd
}

func newRunsShowCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			env, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()
			if err := env.connect(cmd.Context()); err != nil {
				return err
			}

			rn, err := env.service(excel.DefaultExcelConfig()).GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeRun(cmd.OutOrStdout(), rn, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: text, json or markdown")
	return cmd
}
