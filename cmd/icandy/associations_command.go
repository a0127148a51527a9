package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"icandy/internal/associations"
)

func newAssociationsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "associations",
		Aliases: []string{"assoc"},
		Short:   "Inspect or reset the association store",
	}
	cmd.AddCommand(newAssociationsShowCommand(ctx))
	cmd.AddCommand(newAssociationsVerifyCommand(ctx))
	cmd.AddCommand(newAssociationsClearCommand(ctx))
	return cmd
}

func openStore(ctx *commandContext) (*associations.Store, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	path := cfg.Paths.AssociationsFile
	store, _, err := associations.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open association store: %w", err)
	}
	return store, path, nil
}

func newAssociationsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key...]",
		Short: "List stored keys and their images",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, path, err := openStore(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			keys := store.Keys()
			if len(args) > 0 {
				keys = keys[:0]
				for _, arg := range args {
					if store.Has(arg) {
						keys = append(keys, associations.NormalizeKey(arg))
					} else {
						fmt.Fprintf(out, "No images stored for %q\n", arg)
					}
				}
			}

			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				assets := store.Get(key)
				rows = append(rows, []string{key, strconv.Itoa(len(assets)), strings.Join(assets, "\n")})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Key", "Images", "Paths"}, rows, []columnAlignment{alignLeft, alignRight}))
			}

			meta := store.Metadata()
			saved := "never"
			if !meta.Created.IsZero() {
				saved = humanize.Time(meta.Created)
			}
			fmt.Fprintf(out, "%s: %d keys, %d images, saved %s\n", path, store.KeyCount(), store.AssetCount(), saved)
			return nil
		},
	}
}

func newAssociationsVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every stored image exists on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			missing := store.MissingAssets()
			if len(missing) == 0 {
				fmt.Fprintln(out, renderStatusLine("Images", statusOK, fmt.Sprintf("all %d present", store.AssetCount()), colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Images", statusError, fmt.Sprintf("%d of %d missing", len(missing), store.AssetCount()), colorize))
			for _, path := range missing {
				fmt.Fprintf(out, "%s- %s\n", statusIndent, path)
			}
			return errors.New("association store references missing images; rerun build to refetch")
		},
	}
}

func newAssociationsClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every association (image files are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to clear the association store without --yes")
			}
			store, path, err := openStore(ctx)
			if err != nil {
				return err
			}
			removed := store.KeyCount()
			store.Clear()
			if err := store.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d keys from %s\n", removed, path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm clearing the store")
	return cmd
}
