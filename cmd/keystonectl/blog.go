package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keystone/content"
	"keystone/database"
	"keystone/models"
)

var importBlogCmd = &cobra.Command{
	Use:   "import-blog FILE.md...",
	Short: "Import markdown posts with YAML front matter",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		for _, path := range args {
			source, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			post, err := content.ParseBlogPost(source)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			existing, err := e.service.Filter(ctx, models.CollectionBlogs, map[string]any{"slug": post.Slug}, database.ListOptions{Limit: 1})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				fmt.Printf("   skip %s: slug %q exists\n", path, post.Slug)
				continue
			}

			fields, err := models.ToFields(post)
			if err != nil {
				return err
			}
			rec, err := e.service.Create(ctx, models.CollectionBlogs, fields)
			if err != nil {
				return err
			}
			fmt.Printf("   imported %s as %s (%s)\n", path, post.Slug, rec.ID)
		}
		return nil
	},
}
