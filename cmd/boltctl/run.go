package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphwire/boltcore/internal/protocol/value"
)

// runCmd submits one statement, streams its records, and prints the
// terminal summary, the way a one-shot query tool would.
func runCmd() *cobra.Command {
	flags := &profileFlags{}
	var params []string

	cmd := &cobra.Command{
		Use:   "run <statement>",
		Short: "Run one statement and print its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			conn, err := flags.dial(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			paramMap, err := parseParams(params)
			if err != nil {
				return err
			}

			fields, err := conn.Run(ctx, args[0], paramMap)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			result, err := conn.Pull(ctx)
			if err != nil {
				return fmt.Errorf("pull: %w", err)
			}

			printResult(cmd.OutOrStdout(), fields, result.Records)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&params, "param", nil, "statement parameter as key=value (repeatable)")
	return cmd
}

func parseParams(raw []string) (*value.Map, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	m := value.NewMap()
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, want key=value", kv)
		}
		m.Set(k, value.String(v))
	}
	return m, nil
}
