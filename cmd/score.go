package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safepath-labs/safepath/internal/model"
)

var (
	scoreLat    float64
	scoreLng    float64
	scoreRadius int
	scoreDays   int
	scoreJSON   bool
	scoreSave   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the safety of an area once and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		q := model.GeoQuery{
			Lat:            scoreLat,
			Lng:            scoreLng,
			RadiusMeters:   scoreRadius,
			TimeWindowDays: scoreDays,
		}
		if q.RadiusMeters == 0 {
			q.RadiusMeters = cfg.Safety.DefaultRadiusMeters
		}
		if q.TimeWindowDays == 0 {
			q.TimeWindowDays = cfg.Safety.DefaultTimeWindowDays
		}

		result, err := e.Safety.AreaSafety(ctx, q)
		if err != nil {
			return err
		}

		if scoreSave {
			if err := e.Store.Migrate(ctx); err != nil {
				return err
			}
			if _, err := e.Store.CreateAssessment(ctx, q, *result); err != nil {
				return err
			}
		}

		if scoreJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(result)
		return nil
	},
}

func printResult(result *model.SafetyResult) {
	fmt.Printf("Safety score: %.1f/100\n", result.SafetyScore)
	if inc := result.IncidentAnalysis; inc != nil {
		fmt.Printf("  Incidents: %d total, trend %+.1f%%\n", inc.TotalIncidents, inc.TrendChangePercentage)
		if len(inc.MostCommonCategories) > 0 {
			fmt.Printf("  Top categories: %v\n", inc.MostCommonCategories)
		}
		if len(inc.HighRiskHours) > 0 {
			fmt.Printf("  High risk hours: %v\n", inc.HighRiskHours)
		}
	}
	if infra := result.Infrastructure; infra != nil {
		fmt.Printf("  Street lights: %d/%d working (%.1f%% coverage)\n",
			infra.WorkingLights, infra.TotalLights, infra.CoverageScore)
	}
	if resp := result.ResponseMetrics; resp != nil {
		fmt.Printf("  311 cases: %d total, %.1f%% resolved, median response %.1fh\n",
			resp.TotalCases, resp.ResolutionRate, resp.MedianResponseHours)
	}
}

func init() {
	scoreCmd.Flags().Float64Var(&scoreLat, "lat", 0, "latitude (required)")
	scoreCmd.Flags().Float64Var(&scoreLng, "lng", 0, "longitude (required)")
	scoreCmd.Flags().IntVar(&scoreRadius, "radius", 0, "radius in meters (default from config)")
	scoreCmd.Flags().IntVar(&scoreDays, "days", 0, "time window in days (default from config)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the full result as JSON")
	scoreCmd.Flags().BoolVar(&scoreSave, "save", false, "record the assessment in the store")
	_ = scoreCmd.MarkFlagRequired("lat")
	_ = scoreCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(scoreCmd)
}
