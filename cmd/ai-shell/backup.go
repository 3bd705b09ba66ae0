package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/internal/runtime"
)

// stateFiles are the persisted files backup operates on (spec.md §6
// "persisted state layout"). Cloud transport is an external collaborator;
// these commands only copy the local state directory.
var stateFiles = []string{"vault.db", "connections.gob", "vectorstore.gob", "history.gob"}

func newBackupCmd(sys *runtime.System) *cobra.Command {
	root := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore the local persisted-state directory",
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "create <dest-dir>",
			Short: "Copy the current state directory to dest-dir",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dest := args[0]
				if flags.dryRun {
					fmt.Printf("would back up %q to %q\n", sys.StateDir(), dest)
					return nil
				}
				if err := os.MkdirAll(dest, 0o700); err != nil {
					return apperr.Wrap(apperr.KindUnavailable, "cli.backup.create", "creating destination directory", err)
				}
				copied := make([]map[string]string, 0, len(stateFiles))
				for _, name := range stateFiles {
					src := filepath.Join(sys.StateDir(), name)
					if _, err := os.Stat(src); os.IsNotExist(err) {
						continue
					}
					sum, err := copyFile(src, filepath.Join(dest, name))
					if err != nil {
						return apperr.Wrap(apperr.KindUnavailable, "cli.backup.create", fmt.Sprintf("copying %s", name), err)
					}
					copied = append(copied, map[string]string{"file": name, "sha256": sum})
				}
				return writeOutput([]string{"file", "sha256"}, copied)
			},
		},
		&cobra.Command{
			Use:   "list <dir>",
			Short: "List the files present in a backup directory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				entries, err := os.ReadDir(args[0])
				if err != nil {
					return apperr.Wrap(apperr.KindNotFound, "cli.backup.list", "reading backup directory", err)
				}
				sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
				rows := make([]map[string]string, 0, len(entries))
				for _, e := range entries {
					info, err := e.Info()
					size := "0"
					if err == nil {
						size = fmt.Sprintf("%d", info.Size())
					}
					rows = append(rows, map[string]string{"file": e.Name(), "bytes": size})
				}
				return writeOutput([]string{"file", "bytes"}, rows)
			},
		},
		&cobra.Command{
			Use:   "restore <src-dir>",
			Short: "Restore the state directory from a backup (CRITICAL — requires --force)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				src := args[0]
				if !flags.confirm {
					return apperr.New(apperr.KindRiskRejected, "cli.backup.restore",
						"restoring overwrites live state; re-run with --confirm to acknowledge")
				}
				if flags.dryRun {
					fmt.Printf("would restore %q into %q\n", src, sys.StateDir())
					return nil
				}
				restored := make([]map[string]string, 0, len(stateFiles))
				for _, name := range stateFiles {
					from := filepath.Join(src, name)
					if _, err := os.Stat(from); os.IsNotExist(err) {
						continue
					}
					sum, err := copyFile(from, filepath.Join(sys.StateDir(), name))
					if err != nil {
						return apperr.Wrap(apperr.KindUnavailable, "cli.backup.restore", fmt.Sprintf("restoring %s", name), err)
					}
					restored = append(restored, map[string]string{"file": name, "sha256": sum})
				}
				return writeOutput([]string{"file", "sha256"}, restored)
			},
		},
		&cobra.Command{
			Use:   "verify <dir>",
			Short: "Check that a backup directory contains every expected state file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rows := make([]map[string]string, 0, len(stateFiles))
				allOK := true
				for _, name := range stateFiles {
					_, err := os.Stat(filepath.Join(args[0], name))
					present := err == nil
					allOK = allOK && present
					rows = append(rows, map[string]string{"file": name, "present": fmt.Sprintf("%v", present)})
				}
				if err := writeOutput([]string{"file", "present"}, rows); err != nil {
					return err
				}
				if !allOK {
					return apperr.New(apperr.KindNotFound, "cli.backup.verify", "backup directory is missing one or more expected files")
				}
				return nil
			},
		},
	)
	return root
}

func copyFile(src, dst string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	defer out.Close()

	h := sha256.New()
	if _, err := io.Copy(out, io.TeeReader(in, h)); err != nil {
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	now := time.Now()
	_ = os.Chtimes(dst, now, now)
	return hex.EncodeToString(h.Sum(nil)), nil
}
