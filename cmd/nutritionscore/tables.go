package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franckalain/nutritionscore/internal/nutriscore"
)

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the embedded threshold table versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := nutriscore.Versions()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range versions {
				if _, err := nutriscore.LoadTables(v); err != nil {
					fmt.Fprintf(out, "%s\tinvalid: %v\n", v, err)
					continue
				}
				marker := ""
				if v == nutriscore.DefaultVersion {
					marker = "\t(default)"
				}
				fmt.Fprintf(out, "%s%s\n", v, marker)
			}
			return nil
		},
	}
}
