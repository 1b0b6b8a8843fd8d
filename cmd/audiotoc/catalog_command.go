package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"audiotoc/config"
	"audiotoc/internal/manifest"
	"audiotoc/internal/opds"
	"audiotoc/internal/registry"
	"audiotoc/internal/report"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse library registries and OPDS catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCatalogLibrariesCommand(ctx))
	cmd.AddCommand(newCatalogHarvestCommand(ctx))

	return cmd
}

func newCatalogLibrariesCommand(ctx *commandContext) *cobra.Command {
	var (
		registryURL   string
		includeHidden bool
	)

	cmd := &cobra.Command{
		Use:   "libraries",
		Short: "List the libraries a registry knows about",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if registryURL != "" {
				cfg.Registry.URL = registryURL
			}

			client := registry.NewClient(cfg)
			client.IncludeHidden = includeHidden

			libraries, err := client.Libraries(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(libraries))
			for i, library := range libraries {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					library.Metadata.Title,
					library.CatalogURL(),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.RenderTable(
				[]string{"#", "Library", "Catalog"},
				rows,
				[]report.Alignment{report.AlignRight, report.AlignLeft, report.AlignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&registryURL, "registry", "", "Registry base URL (default from config)")
	cmd.Flags().BoolVar(&includeHidden, "hidden", false, "Include libraries the registry does not list publicly")

	return cmd
}

func newCatalogHarvestCommand(ctx *commandContext) *cobra.Command {
	var (
		library        string
		limit          int
		audiobooksOnly bool
		saveDir        string
	)

	cmd := &cobra.Command{
		Use:   "harvest [feed-url]",
		Short: "Walk an OPDS catalog and list its publications",
		Long: `Harvest pages through an OPDS 2.0 catalog feed and lists every publication
it finds. The feed comes either from a URL or, with --library, from a
registry lookup. With --save-dir the audiobook manifests are downloaded
alongside the listing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			feedURL := ""
			if len(args) > 0 {
				feedURL = args[0]
			}
			if feedURL == "" {
				if library == "" {
					return errors.New("a feed URL or --library is required")
				}
				entry, err := registry.NewClient(cfg).FindLibrary(cmd.Context(), library)
				if err != nil {
					return err
				}
				feedURL = entry.CatalogURL()
				if feedURL == "" {
					return fmt.Errorf("library %q has no catalog link", library)
				}
			}

			harvester := opds.NewHarvester(cfg)
			harvester.Limit = limit
			harvester.AudiobooksOnly = audiobooksOnly

			publications, err := harvester.Harvest(cmd.Context(), feedURL)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(publications))
			for i, pub := range publications {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					pub.Metadata.Title,
					pub.Metadata.Author.String(),
					pub.ManifestLink(),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.RenderTable(
				[]string{"#", "Title", "Author", "Manifest"},
				rows,
				[]report.Alignment{report.AlignRight, report.AlignLeft, report.AlignLeft, report.AlignLeft},
			))

			if saveDir != "" {
				return saveManifests(cmd, cfg, publications, saveDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&library, "library", "", "Registry library whose catalog to harvest")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many publications (0 means no limit)")
	cmd.Flags().BoolVar(&audiobooksOnly, "audiobooks-only", true, "Keep only audiobook publications")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "Directory to save harvested manifests into")

	return cmd
}

// saveManifests downloads each publication's manifest into dir, keeping the
// raw document so nothing the manifest carries is lost.
func saveManifests(cmd *cobra.Command, cfg *config.Config, publications []opds.Publication, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	saved := 0
	for _, pub := range publications {
		href := pub.ManifestLink()
		if href == "" {
			continue
		}

		name := sanitizeFilename(pub.Metadata.Title)
		path := filepath.Join(dir, name+".json")
		if err := saveManifest(cmd.Context(), cfg, href, path); err != nil {
			fmt.Fprintf(out, "skipping %q: %v\n", pub.Metadata.Title, err)
			continue
		}
		saved++
	}

	fmt.Fprintf(out, "\nSaved %d manifests into %s\n", saved, dir)
	return nil
}

func saveManifest(ctx context.Context, cfg *config.Config, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/audiobook+json, application/json;q=0.9")
	req.Header.Set("User-Agent", cfg.Fetch.UserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Only keep documents that actually parse as audiobook manifests.
	if _, err := manifest.Decode(bytes.NewReader(data)); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
