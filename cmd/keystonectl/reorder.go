package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"keystone/database"
	"keystone/models"
	"keystone/reorder"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder COLLECTION FROM TO",
	Short: "Move one record of an ordered collection and save the order",
	Long: `Move the record at position FROM to position TO (0-based, in the
current display order) and save order values for the whole collection.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection := args[0]
		from, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid FROM: %w", err)
		}
		to, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid TO: %w", err)
		}

		ctx, cancel := commandContext()
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		recs, err := listAll(ctx, e.service, collection)
		if err != nil {
			return err
		}

		editor := reorder.NewEditor(
			func(r models.Record) string { return r.ID },
			func(r models.Record, q string) bool { return strings.Contains(label(r), q) },
			nil,
		)
		editor.Load(recs)
		if err := editor.Drag(from, to); err != nil {
			return err
		}
		if err := editor.Save(ctx, e.service, collection); err != nil {
			return err
		}

		for i, r := range editor.Items() {
			fmt.Printf("   %3d  %s\n", i, label(r))
		}
		return nil
	},
}

func label(r models.Record) string {
	for _, key := range []string{"title", "name"} {
		if s, ok := r.Fields[key].(string); ok && s != "" {
			return s
		}
	}
	return r.ID
}

const listPageSize = 500

type lister interface {
	List(ctx context.Context, collection string, opts database.ListOptions) ([]models.Record, error)
}

// listAll pages through the whole collection in display order.
func listAll(ctx context.Context, l lister, collection string) ([]models.Record, error) {
	var all []models.Record
	for {
		page, err := l.List(ctx, collection, database.ListOptions{
			Sort:   models.FieldOrder,
			Limit:  listPageSize,
			Offset: len(all),
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < listPageSize {
			return all, nil
		}
	}
}
