package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/japaniel/oewn/pkg/cache"
	"github.com/japaniel/oewn/pkg/db"
	"github.com/japaniel/oewn/pkg/lmf"
)

func newDefineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "define <word> [pos]",
		Short: "Show every sense of a word",
		Long: `Show definitions, examples, synonyms and related words for a word.

The optional part of speech accepts a code or a name:
  n noun, v verb, a adj, s adj_sat, r adverb

Examples:
  oewn define run
  oewn define run verb
  oewn define Hot adj`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pos lmf.PartOfSpeech
			if len(args) == 2 {
				p, err := lmf.ParsePartOfSpeech(args[1])
				if err != nil {
					return err
				}
				pos = p
			}

			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			results, err := s.Lookup(cmd.Context(), args[0], pos)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(a.stdout, "No entries found for %q.\n", args[0])
				return nil
			}
			for i, r := range results {
				if i > 0 {
					fmt.Fprintln(a.stdout)
				}
				fmt.Fprint(a.stdout, renderEntry(r))
			}
			return nil
		},
	}
}

func newRandomCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Show a random entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := s.Random(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, renderEntry(r))
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-db",
		Short: "Delete the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Removed %s\n", a.manager.Path())
			return nil
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show where the store lives and what it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.manager.State(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s %s\n", labelStyle.Render("path:"), a.manager.Path())
			fmt.Fprintf(a.stdout, "%s %s\n", labelStyle.Render("state:"), st)
			if st != cache.Valid {
				return nil
			}

			s, err := a.manager.Open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			meta, err := s.Metadata(ctx)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(meta))
			for k := range meta {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := meta[k]
				if k == db.MetaEntryCount || k == db.MetaDroppedRelations {
					v = formatCount(v)
				}
				fmt.Fprintf(a.stdout, "%s %s\n", labelStyle.Render(k+":"), v)
			}
			return nil
		},
	}
}
