package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"icandy/internal/associations"
	"icandy/internal/keysource"
	"icandy/internal/logging"
)

func newKeysCommand(ctx *commandContext) *cobra.Command {
	var showPhrases bool

	cmd := &cobra.Command{
		Use:   "keys <text-file>",
		Short: "Preview the keys a script yields and how many images each already has",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := keysource.TextFile{
				Path:          args[0],
				StopWordsPath: cfg.Paths.StopWordsFile,
				MinLength:     cfg.Build.MinKeyLength,
				Logger:        logging.NewNop(),
			}
			out := cmd.OutOrStdout()

			if showPhrases {
				phrases, err := source.Phrases()
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(phrases))
				for _, p := range phrases {
					rows = append(rows, []string{strconv.Itoa(p.Index + 1), p.Text, strings.Join(p.Words, ", ")})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Phrase", "Keys"}, rows, []columnAlignment{alignRight}))
				return nil
			}

			keys, err := source.Keys(cmd.Context())
			if err != nil {
				return err
			}
			store, _, err := associations.Open(cfg.Paths.AssociationsFile)
			if err != nil {
				return fmt.Errorf("open association store: %w", err)
			}
			pending := 0
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				have := len(store.Get(key))
				fetch := have < cfg.Build.AssetsPerKey
				if fetch {
					pending++
				}
				rows = append(rows, []string{key, strconv.Itoa(have), yesNo(fetch)})
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Images", "Fetch"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
			fmt.Fprintf(out, "%d keys, %d need images\n", len(keys), pending)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPhrases, "phrases", false, "Show keys grouped by script line")
	return cmd
}
