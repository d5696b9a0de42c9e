package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"f4tick/clockplan"
)

func newCheckCmd() *cobra.Command {
	opts := struct {
		goConst bool
		pkg     string
	}{}

	cmd := &cobra.Command{
		Use:   "check <clock.yaml>",
		Short: "Validate a YAML clock file against its chip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := clockplan.LoadClockFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := file.Config()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if !opts.goConst {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			}
			return emit(cmd, cfg, opts.goConst, opts.pkg)
		},
	}

	cmd.Flags().BoolVar(&opts.goConst, "go", false, "Print the clock setup as a Go source file")
	cmd.Flags().StringVar(&opts.pkg, "package", "main", "Package name for --go output")
	return cmd
}
