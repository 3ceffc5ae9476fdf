package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
	"github.com/omfgitsmark/mtgsqlive/internal/loader"
	"github.com/omfgitsmark/mtgsqlive/internal/schema"
)

func (a *app) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the table definitions as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := schema.Define(data.Models()...)
			if err != nil {
				return err
			}
			return s.WriteYAML(a.stdout)
		},
	}
}

func (a *app) cardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "card <uuid>",
		Short: "Print a stored card as MTGJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLoader(cmd.Context(), func(ctx context.Context, l *loader.Loader) (any, error) {
				return l.Card(ctx, args[0])
			})
		},
	}
}

func (a *app) tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <uuid>",
		Short: "Print a stored token as MTGJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLoader(cmd.Context(), func(ctx context.Context, l *loader.Loader) (any, error) {
				return l.Token(ctx, args[0])
			})
		},
	}
}

func (a *app) setCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <code>",
		Short: "Print a stored set header as MTGJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLoader(cmd.Context(), func(ctx context.Context, l *loader.Loader) (any, error) {
				return l.Set(ctx, args[0])
			})
		},
	}
}

// withLoader connects, runs read and prints its result as indented JSON.
func (a *app) withLoader(ctx context.Context, read func(context.Context, *loader.Loader) (any, error)) error {
	s, err := schema.Define(data.Models()...)
	if err != nil {
		return err
	}
	db, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer loader.Close(db)

	v, err := read(ctx, loader.New(db, s))
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(a.stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
