package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphwire/boltcore/bolt"
)

// shellCmd reads statements from stdin one line at a time, running
// each against the same Conn until EOF or "exit"/"quit". The read loop
// is a plain bufio.Scanner; everything it calls into (dial, Run, Pull,
// record formatting) is the same path runCmd uses.
func shellCmd() *cobra.Command {
	flags := &profileFlags{}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Open an interactive statement shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := flags.dial(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "connected, version", conn.Version())
			for {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					break
				}
				line := strings.TrimSpace(in.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}
				if err := runOneStatement(ctx, conn, out, line); err != nil {
					fmt.Fprintln(out, "error:", err)
				}
			}
			if err := in.Err(); err != nil && err != io.EOF {
				return err
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func runOneStatement(ctx context.Context, conn *bolt.Conn, out io.Writer, stmt string) error {
	fields, err := conn.Run(ctx, stmt, nil)
	if err != nil {
		return err
	}
	result, err := conn.Pull(ctx)
	if err != nil {
		return err
	}
	printResult(out, fields, result.Records)
	return nil
}
