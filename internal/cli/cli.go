// Package cli wires the dumpling command-line tool: a thin cobra front end
// over pkg/store for walking and mutating an on-disk object store without
// writing Go. Kept separate from cmd/dumpling so it can be exercised
// directly by tests instead of only through a built binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chrisrossi/dumpling/pkg/atomicfs"
	"github.com/chrisrossi/dumpling/pkg/blob"
	"github.com/chrisrossi/dumpling/pkg/log"
	"github.com/chrisrossi/dumpling/pkg/metrics"
	"github.com/chrisrossi/dumpling/pkg/model"
	"github.com/chrisrossi/dumpling/pkg/store"
	"github.com/chrisrossi/dumpling/pkg/txn"
)

// NewRootCommand builds the dumpling root command. version/commit are
// reported by `dumpling --version`.
func NewRootCommand(version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:     "dumpling",
		Short:   "Walk and mutate a dumpling object store from the command line",
		Version: version,
	}
	root.SetVersionTemplate(fmt.Sprintf("dumpling version %s\nCommit: %s\n", version, commit))
	metrics.SetVersion(version)

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	root.PersistentFlags().String("blobs", "", "Blob store directory (enables put/get of file content)")
	root.PersistentFlags().String("metrics-addr", "", "If set, serve Prometheus metrics at this address for the duration of the command (e.g. 127.0.0.1:9090)")

	cobra.OnInitialize(func() { initLogging(root) })

	root.AddCommand(
		newLsCmd(),
		newMkdirCmd(),
		newPutCmd(),
		newGetCmd(),
		newRmCmd(),
		newMvCmd(),
	)
	return root
}

func initLogging(root *cobra.Command) {
	level, _ := root.PersistentFlags().GetString("log-level")
	jsonOut, _ := root.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})

	if addr, _ := root.PersistentFlags().GetString("metrics-addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Errorf("metrics server error", err)
			}
		}()
	}
}

// openStore builds a Store rooted at dir, wiring a blob store alongside it
// when --blobs was given. Both are registered with the health checker so a
// long-running process exposing --metrics-addr reports accurate /health and
// /ready status rather than an always-healthy default.
func openStore(cmd *cobra.Command, dir string) *store.Store {
	s := store.New(atomicfs.New(dir), func() model.Folder { return &model.GenericFolder{} })
	metrics.RegisterComponent("store", true, dir)

	if blobsDir, _ := cmd.Flags().GetString("blobs"); blobsDir != "" {
		s.Blobs = blob.New(blobsDir)
		metrics.RegisterComponent("blob", true, blobsDir)
	}
	return s
}

// resolvePath walks slash-separated segments from root, returning the
// folder or leaf object found at the end.
func resolvePath(root model.Object, segments []string) (model.Object, error) {
	cur := root
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		next, err := store.Get(cur, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

// commitStore runs the store's session, plus its underlying filesystem,
// through a two-phase commit.
func commitStore(ctx context.Context, s *store.Store) error {
	sess, err := s.Session(ctx)
	if err != nil {
		return err
	}
	coord := txn.NewCoordinator()
	coord.Join(sess)
	coord.Join(s.FS)

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)
	return coord.Commit(ctx)
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls STORE-DIR [PATH]",
		Short: "List the entries of a folder",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := openStore(cmd, args[0])
			root, err := s.Root(ctx)
			if err != nil {
				return err
			}

			path := ""
			if len(args) > 1 {
				path = args[1]
			}
			folder, err := resolvePath(root, splitPath(path))
			if err != nil {
				return err
			}

			items, err := store.Items(folder)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, item := range items {
				kind := "doc"
				if model.IsFolder(item.Object) {
					kind = "folder"
				}
				fmt.Fprintf(out, "%-6s %s\n", kind, item.Name)
			}
			return nil
		},
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir STORE-DIR PATH",
		Short: "Create a folder, creating any missing parent folders",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := openStore(cmd, args[0])
			root, err := s.Root(ctx)
			if err != nil {
				return err
			}

			cur := root
			for _, seg := range splitPath(args[1]) {
				if seg == "" {
					continue
				}
				if store.Contains(cur, seg) {
					next, err := store.Get(cur, seg)
					if err != nil {
						return err
					}
					cur = next
					continue
				}
				child := &model.GenericFolder{}
				if err := store.Set(cur, seg, child); err != nil {
					return err
				}
				cur = child
			}

			if err := commitStore(ctx, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[1])
			return nil
		},
	}
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put STORE-DIR FOLDER-PATH NAME FILE",
		Short: "Store a file's content as a blob named NAME under FOLDER-PATH",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := openStore(cmd, args[0])
			if s.Blobs == nil {
				return &store.Configuration{Reason: "put requires --blobs DIR"}
			}

			root, err := s.Root(ctx)
			if err != nil {
				return err
			}
			folder, err := resolvePath(root, splitPath(args[1]))
			if err != nil {
				return err
			}

			f, err := os.Open(args[3])
			if err != nil {
				return err
			}
			defer f.Close()

			b := &blob.Blob{}
			if err := store.Set(folder, args[2], b); err != nil {
				return err
			}
			if err := b.Store(s.Blobs, f); err != nil {
				return err
			}

			if err := commitStore(ctx, s); err != nil {
				return err
			}
			digest, _ := b.Digest()
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s/%s (%s)\n", args[1], args[2], digest)
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get STORE-DIR FOLDER-PATH NAME",
		Short: "Write a blob's content to stdout",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := openStore(cmd, args[0])
			if s.Blobs == nil {
				return &store.Configuration{Reason: "get requires --blobs DIR"}
			}

			root, err := s.Root(ctx)
			if err != nil {
				return err
			}
			folder, err := resolvePath(root, splitPath(args[1]))
			if err != nil {
				return err
			}
			obj, err := store.Get(folder, args[2])
			if err != nil {
				return err
			}
			b, ok := obj.(*blob.Blob)
			if !ok {
				return fmt.Errorf("%s/%s is not a blob", args[1], args[2])
			}

			r, err := b.Open(s.Blobs)
			if err != nil {
				return err
			}
			defer r.Close()
			_, err = io.Copy(cmd.OutOrStdout(), r)
			return err
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm STORE-DIR FOLDER-PATH NAME",
		Short: "Delete a named entry from a folder",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := openStore(cmd, args[0])
			root, err := s.Root(ctx)
			if err != nil {
				return err
			}
			folder, err := resolvePath(root, splitPath(args[1]))
			if err != nil {
				return err
			}
			if err := store.Delete(folder, args[2]); err != nil {
				return err
			}
			if err := commitStore(ctx, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s/%s\n", args[1], args[2])
			return nil
		},
	}
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv STORE-DIR SRC-FOLDER-PATH SRC-NAME DST-FOLDER-PATH DST-NAME",
		Short: "Move an entry from one folder to another, renaming it in the process",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := openStore(cmd, args[0])
			root, err := s.Root(ctx)
			if err != nil {
				return err
			}

			srcFolder, err := resolvePath(root, splitPath(args[1]))
			if err != nil {
				return err
			}
			dstFolder, err := resolvePath(root, splitPath(args[3]))
			if err != nil {
				return err
			}

			obj, err := store.Pop(srcFolder, args[2])
			if err != nil {
				return err
			}
			if err := store.Set(dstFolder, args[4], obj); err != nil {
				return err
			}

			if err := commitStore(ctx, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s/%s -> %s/%s\n", args[1], args[2], args[3], args[4])
			return nil
		},
	}
}
