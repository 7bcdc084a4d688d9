package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// benchCmd repeats one statement n times, timing each RUN+PULL round
// trip and recording it in the connection's metrics collector
// (internal/metrics) under the "bench" request kind, then prints a
// min/max/mean summary. Conn.Run and Conn.Pull record no request
// latency of their own.
func benchCmd() *cobra.Command {
	flags := &profileFlags{}
	var n int

	cmd := &cobra.Command{
		Use:   "bench <statement>",
		Short: "Repeat a statement n times and report latency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if n <= 0 {
				return fmt.Errorf("n must be positive, got %d", n)
			}
			conn, err := flags.dial(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			stmt := args[0]
			durations := make([]time.Duration, 0, n)
			for i := 0; i < n; i++ {
				start := time.Now()
				if _, err := conn.Run(ctx, stmt, nil); err != nil {
					return fmt.Errorf("run iteration %d: %w", i, err)
				}
				if _, err := conn.Pull(ctx); err != nil {
					return fmt.Errorf("pull iteration %d: %w", i, err)
				}
				elapsed := time.Since(start)
				conn.Metrics().ObserveRequestSeconds("bench", elapsed.Seconds())
				durations = append(durations, elapsed)
			}

			min, max, sum := durations[0], durations[0], time.Duration(0)
			for _, d := range durations {
				if d < min {
					min = d
				}
				if d > max {
					max = d
				}
				sum += d
			}
			mean := sum / time.Duration(len(durations))
			fmt.Fprintf(cmd.OutOrStdout(), "n=%d min=%s mean=%s max=%s\n", n, min, mean, max)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&n, "n", 100, "number of iterations")
	return cmd
}
