package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphwire/boltcore/internal/config"
)

// initCmd writes a starter profile document via config.WriteTemplate
// rather than hand-rolled file IO here.
func initCmd() *cobra.Command {
	var path string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter boltctl profile document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(path, overwrite); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "out", "boltctl.toml", "path to write")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	return cmd
}
