package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"privacyviz/redactor/pkg/cli"
	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/storage"
)

const importBatchSize = 500

var importFlags struct {
	users     string
	locations string
	events    string
	quiet     bool
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load users, location samples and events into the store",
	Long: `Load membership documents, location samples and event records into the
configured store. Mainly useful with the sqlite and memory backends for
fixtures and local testing.

Users are read from a policy file (YAML). Locations and events are read as
JSON lines, one document per line.

Examples:
  redactor import --users users.yaml
  redactor import --locations locations.jsonl --events events.jsonl`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFlags.users, "users", "", "policy YAML file with users to store")
	importCmd.Flags().StringVar(&importFlags.locations, "locations", "", "JSON lines file of location samples")
	importCmd.Flags().StringVar(&importFlags.events, "events", "", "JSON lines file of event records")
	importCmd.Flags().BoolVarP(&importFlags.quiet, "quiet", "q", false, "disable progress output")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importFlags.users == "" && importFlags.locations == "" && importFlags.events == "" {
		return cli.NewConfigError("import", "at least one of --users, --locations or --events is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	resolver, err := newSecretResolver(cfg.Secrets)
	if err != nil {
		return cli.NewCommandError("import", err)
	}
	store, err := openStorage(ctx, cfg.Storage, resolver)
	if err != nil {
		return cli.NewCommandError("import", err)
	}
	defer store.Close()

	var progress io.Writer = os.Stderr
	if importFlags.quiet {
		progress = io.Discard
	}

	if importFlags.users != "" {
		n, err := importUsers(ctx, store, importFlags.users)
		if err != nil {
			return cli.NewCommandError("import", err)
		}
		fmt.Printf("✓ %d users imported\n", n)
	}

	if importFlags.locations != "" {
		n, err := importJSONLines(ctx, importFlags.locations, cli.NewProgressReporter(progress, "locations"),
			func(ctx context.Context, batch []redaction.LocationSample) error {
				return store.AppendSamples(ctx, batch)
			})
		if err != nil {
			return cli.NewCommandError("import", err)
		}
		fmt.Printf("✓ %d location samples imported\n", n)
	}

	if importFlags.events != "" {
		n, err := importJSONLines(ctx, importFlags.events, cli.NewProgressReporter(progress, "events"),
			func(ctx context.Context, batch []*redaction.EventRecord) error {
				return store.AppendEvents(ctx, batch)
			})
		if err != nil {
			return cli.NewCommandError("import", err)
		}
		fmt.Printf("✓ %d events imported\n", n)
	}

	return nil
}

func importUsers(ctx context.Context, store storage.Storage, path string) (int, error) {
	pf, err := storage.NewPolicyFile(path)
	if err != nil {
		return 0, err
	}
	users, err := pf.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	for _, u := range users {
		if err := store.PutUser(ctx, u); err != nil {
			return 0, fmt.Errorf("failed to store user %s: %w", u.Email, err)
		}
	}
	return len(users), nil
}

// importJSONLines decodes a stream of JSON documents from path and hands
// them to store in batches. Progress is reported in bytes read.
func importJSONLines[T any](ctx context.Context, path string, progress cli.ProgressReporter, store func(context.Context, []T) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	progress.Start(info.Size())
	defer progress.Finish()

	dec := json.NewDecoder(f)
	batch := make([]T, 0, importBatchSize)
	total := 0
	var reported int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = make([]T, 0, importBatchSize)

		offset := dec.InputOffset()
		progress.Add(offset - reported)
		reported = offset
		return nil
	}

	for {
		var doc T
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return total, fmt.Errorf("%s: document %d: %w", path, total+len(batch)+1, err)
		}
		batch = append(batch, doc)
		if len(batch) == importBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
