package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/appshell/pkg/bridge"
	"github.com/marmos91/appshell/pkg/status"
)

// codeError reports a failed bridge operation. The process exits with code.
type codeError struct {
	op   string
	path string
	code status.Code
}

func (e *codeError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.op, e.path, e.code)
}

func check(op, path string, code status.Code) error {
	if code == status.OK {
		return nil
	}
	return &codeError{op: op, path: path, code: code}
}

// await starts an asynchronous bridge call and blocks for its callback.
func await[T any](start func(cb func(status.Code, T))) (T, status.Code) {
	type result struct {
		code  status.Code
		value T
	}
	done := make(chan result, 1)
	start(func(code status.Code, value T) {
		done <- result{code: code, value: value}
	})
	r := <-done
	return r.value, r.code
}

func awaitCode(start func(cb func(status.Code))) status.Code {
	done := make(chan status.Code, 1)
	start(func(code status.Code) { done <- code })
	return <-done
}

// withBridge opens the configured sandbox for the duration of fn.
func withBridge(opts *rootOptions, cmd *cobra.Command, fn func(b *bridge.Bridge) error) (err error) {
	b, err := opts.openBridge(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close sandbox: %w", cerr)
		}
	}()
	return fn(b)
}

func lsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls PATH",
		Short: "List the entries of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				names, code := await(func(cb func(status.Code, []string)) { b.ReadDir(args[0], cb) })
				if err := check("ls", args[0], code); err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func catCmd(opts *rootOptions) *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "cat PATH",
		Short: "Print the content of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				data, code := await(func(cb func(status.Code, string)) { b.ReadFile(args[0], encoding, cb) })
				if err := check("cat", args[0], code); err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), data)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&encoding, "encoding", "utf8", "text encoding")
	return cmd
}

func writeCmd(opts *rootOptions) *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "write PATH CONTENT",
		Short: "Create or replace a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				code := awaitCode(func(cb func(status.Code)) { b.WriteFile(args[0], args[1], encoding, cb) })
				return check("write", args[0], code)
			})
		},
	}

	cmd.Flags().StringVar(&encoding, "encoding", "utf8", "text encoding")
	return cmd
}

func mkdirCmd(opts *rootOptions) *cobra.Command {
	var mode uint32

	cmd := &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				code := awaitCode(func(cb func(status.Code)) { b.MakeDir(args[0], mode, cb) })
				return check("mkdir", args[0], code)
			})
		},
	}

	// The sandbox has no permission model; the mode is accepted and ignored.
	cmd.Flags().Uint32Var(&mode, "mode", 0o755, "directory mode")
	return cmd
}

func statCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stat PATH",
		Short: "Show the kind, size and modification time of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				st, code := await(func(cb func(status.Code, bridge.Stat)) { b.Stat(args[0], cb) })
				if err := check("stat", args[0], code); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "kind:     %s\n", st.Kind)
				fmt.Fprintf(out, "size:     %d\n", st.Size)
				fmt.Fprintf(out, "modified: %s\n", st.ModTime.UTC().Format(time.RFC3339Nano))
				return nil
			})
		},
	}
}

func trashCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trash PATH",
		Short: "Delete a file or a directory with its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				code := awaitCode(func(cb func(status.Code)) { b.MoveToTrash(args[0], cb) })
				return check("trash", args[0], code)
			})
		},
	}
}

func mvCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mv OLD NEW",
		Short: "Rename an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				code := awaitCode(func(cb func(status.Code)) { b.Rename(args[0], args[1], cb) })
				return check("mv", args[0], code)
			})
		},
	}
}

func rmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm PATH",
		Short: "Remove a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				code := awaitCode(func(cb func(status.Code)) { b.Unlink(args[0], cb) })
				return check("rm", args[0], code)
			})
		},
	}
}

func seedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Open the sandbox, seed it and report what was created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBridge(opts, cmd, func(b *bridge.Bridge) error {
				if _, err := b.Roots().EnsureRoot(cmd.Context()); err != nil {
					return fmt.Errorf("failed to open sandbox: %w", err)
				}

				out := cmd.OutOrStdout()
				if report := b.Roots().SeedReport(); report != nil {
					fmt.Fprintf(out, "directories: %d created, %d existing\n", report.DirectoriesCreated, report.DirectoriesExisting)
					fmt.Fprintf(out, "files:       %d written, %d existing\n", report.FilesWritten, report.FilesExisting)
					for _, p := range report.Collisions {
						fmt.Fprintf(out, "collision:   %s\n", p)
					}
					for _, p := range report.Skipped {
						fmt.Fprintf(out, "skipped:     %s\n", p)
					}
				}

				usage, code := b.FS().Usage(cmd.Context())
				if err := check("usage", "/", code); err != nil {
					return err
				}
				if usage.QuotaBytes == 0 {
					fmt.Fprintf(out, "usage:       %d bytes (unlimited)\n", usage.UsedBytes)
				} else {
					fmt.Fprintf(out, "usage:       %d / %d bytes\n", usage.UsedBytes, usage.QuotaBytes)
				}
				return nil
			})
		},
	}
}
