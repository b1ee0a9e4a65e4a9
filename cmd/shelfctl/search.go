package main

import (
	"encoding/json"
	"strings"

	"moneyshelf/internal/catalog"
	"moneyshelf/internal/models"

	"github.com/spf13/cobra"
)

var (
	searchProvider string
	searchLat      float64
	searchLon      float64
)

// searchCmd talks to one provider directly so failures surface instead of degrading to an empty list.
var searchCmd = &cobra.Command{
	Use:   "search <title>",
	Short: "Query a book catalogue or the library locator",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := catalog.New(catalog.Config{
			RakutenAppID: cfg.RakutenAppID,
			CalilAppKey:  cfg.CalilAppKey,
			RPS:          cfg.CatalogRPS,
		})
		ctx := cmd.Context()
		title := strings.Join(args, " ")

		var out any
		switch searchProvider {
		case "rakuten":
			out, err = client.SearchRakuten(ctx, title)
		case "openlibrary":
			out, err = client.SearchOpenLibrary(ctx, title)
		case "calil":
			var libs []models.Library
			libs, err = client.NearbyLibraries(ctx, searchLat, searchLon)
			out = libs
		default:
			return models.NewValidationError("provider must be rakuten, openlibrary or calil")
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchProvider, "provider", "rakuten", "rakuten, openlibrary or calil")
	searchCmd.Flags().Float64Var(&searchLat, "lat", 35.681236, "Latitude for calil")
	searchCmd.Flags().Float64Var(&searchLon, "lon", 139.767125, "Longitude for calil")
}
