package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/and161185/diary-sync/internal/ident"
	"github.com/and161185/diary-sync/internal/local"
	"github.com/and161185/diary-sync/internal/normalize"
)

// entryInput is what "entries add" collects from flags.
type entryInput struct {
	Date          string
	Emotion       string
	Event         string
	Realization   string
	SelfEsteem    int
	Worthlessness int
}

const noScore = -1

// newEntry builds a local record the way the device stores it: camelCase
// score keys, a random id and a creation timestamp.
func newEntry(in entryInput) (map[string]any, error) {
	if strings.TrimSpace(in.Emotion) == "" {
		return nil, errors.New("emotion is required")
	}
	id, err := ident.New()
	if err != nil {
		return nil, err
	}
	now := nowFunc()
	date := in.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	e := map[string]any{
		"id":          id,
		"date":        date,
		"emotion":     in.Emotion,
		"event":       in.Event,
		"realization": in.Realization,
		"created_at":  normalize.Timestamp(now),
	}
	if in.SelfEsteem != noScore {
		e["selfEsteemScore"] = in.SelfEsteem
	}
	if in.Worthlessness != noScore {
		e["worthlessnessScore"] = in.Worthlessness
	}
	return e, nil
}

// decodeImport accepts one JSON object or a list of them. Objects without
// an id get a fresh one.
func decodeImport(b []byte) ([]map[string]any, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, errors.New("empty input")
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out []map[string]any
	if b[0] == '{' {
		var one map[string]any
		if err := dec.Decode(&one); err != nil {
			return nil, err
		}
		out = []map[string]any{one}
	} else if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	for i, e := range out {
		if e == nil {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
		if normalize.ID(e) == "" {
			id, err := ident.New()
			if err != nil {
				return nil, err
			}
			e["id"] = id
		}
	}
	return out, nil
}

func appendEntries(ctx context.Context, s local.Store, add []map[string]any) (int, error) {
	entries, err := local.ReadEntries(ctx, s)
	if err != nil {
		return 0, err
	}
	entries = append(entries, add...)
	if err := local.WriteEntries(ctx, s, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func newEntriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "entries", Short: "Author and inspect local entries"}

	var (
		in   entryInput
		file string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Append an entry to local storage",
		Long: `Append an entry to local storage.

With --file, entries are imported from a JSON object or list ("-" reads
stdin) and the other flags are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var add []map[string]any
			if file != "" {
				b, err := readAll(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				if add, err = decodeImport(b); err != nil {
					return fmt.Errorf("import %s: %w", file, err)
				}
			} else {
				e, err := newEntry(in)
				if err != nil {
					return err
				}
				add = []map[string]any{e}
			}
			total, err := appendEntries(cmd.Context(), a.store, add)
			if err != nil {
				return err
			}
			for _, e := range add {
				fmt.Fprintln(cmd.OutOrStdout(), normalize.ID(e))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d entries stored locally\n", total)
			return nil
		},
	}
	f := add.Flags()
	f.StringVar(&in.Date, "date", "", "entry date, YYYY-MM-DD (default today)")
	f.StringVar(&in.Emotion, "emotion", "", "emotion (required)")
	f.StringVar(&in.Event, "event", "", "what happened")
	f.StringVar(&in.Realization, "realization", "", "what you realized")
	f.IntVar(&in.SelfEsteem, "self-esteem", noScore, "self-esteem score 0-100")
	f.IntVar(&in.Worthlessness, "worthlessness", noScore, "worthlessness score 0-100")
	f.StringVar(&file, "file", "", "import entries from a JSON file, - for stdin")

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List local entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := local.ReadEntries(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []map[string]any{}
			}
			w := cmd.OutOrStdout()
			return render(w, output, entries, func() error { return printEntries(w, entries) })
		},
	}
	list.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")

	cmd.AddCommand(add, list)
	return cmd
}

const eventPreview = 40

func printEntries(w io.Writer, entries []map[string]any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tEMOTION\tEVENT")
	for _, e := range entries {
		if e == nil {
			continue
		}
		date, emotion, event := normalize.Fields(e)
		if r := []rune(event); len(r) > eventPreview {
			event = string(r[:eventPreview]) + "…"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", normalize.ID(e), date, emotion, event)
	}
	return tw.Flush()
}
