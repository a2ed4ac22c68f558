package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/safepath-labs/safepath/internal/model"
	"github.com/safepath-labs/safepath/internal/opendata"
)

var (
	fetchLat    float64
	fetchLng    float64
	fetchRadius int
	fetchDays   int
)

// fetchCmd dumps raw records for one dataset. Useful for checking what a
// provider actually returns before blaming the analyzers.
var fetchCmd = &cobra.Command{
	Use:       "fetch [dataset]",
	Short:     "Fetch raw records from one civic dataset",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{opendata.DatasetIncidents, opendata.DatasetLights, opendata.DatasetCases},
	RunE: func(cmd *cobra.Command, args []string) error {
		client := opendata.NewClient(opendata.Options{
			BaseURL:    cfg.OpenData.BaseURL,
			AppToken:   cfg.OpenData.AppToken,
			Resources:  cfg.OpenData.Resources,
			Timeout:    time.Duration(cfg.OpenData.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenData.MaxRetries,
			UserAgent:  cfg.OpenData.UserAgent,
		})

		q := model.GeoQuery{
			Lat:            fetchLat,
			Lng:            fetchLng,
			RadiusMeters:   fetchRadius,
			TimeWindowDays: fetchDays,
		}
		if err := q.Validate(); err != nil {
			return err
		}

		records, err := client.FetchRaw(cmd.Context(), args[0], q, time.Now().UTC())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	fetchCmd.Flags().Float64Var(&fetchLat, "lat", 0, "latitude (required)")
	fetchCmd.Flags().Float64Var(&fetchLng, "lng", 0, "longitude (required)")
	fetchCmd.Flags().IntVar(&fetchRadius, "radius", 500, "radius in meters")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 30, "time window in days")
	_ = fetchCmd.MarkFlagRequired("lat")
	_ = fetchCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(fetchCmd)
}
