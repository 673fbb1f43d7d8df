package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matriforce/dispatch/core/fallback"
	"github.com/matriforce/dispatch/core/model"
)

var (
	encodeCaseID   string
	encodeReporter string
	encodeLat      float64
	encodeLon      float64
)

var fallbackCmd = &cobra.Command{
	Use:   "fallback",
	Short: "Encode and decode offline fallback payloads",
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a distress signal as a compact text payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		caseID := encodeCaseID
		if caseID == "" {
			caseID = fallback.PlaceholderID(encodeReporter)
		}
		loc := model.Location{Latitude: encodeLat, Longitude: encodeLon, CapturedAt: time.Now()}
		payload, err := fallback.Encode(caseID, encodeReporter, loc)
		if err != nil {
			return err
		}
		cmd.Println(payload)
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <payload>",
	Short: "Decode a compact text payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := fallback.Decode(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("case:     %s\n", p.CaseID)
		cmd.Printf("reporter: %s\n", p.ReporterID)
		cmd.Printf("location: %.5f, %.5f\n", p.Location.Latitude, p.Location.Longitude)
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodeCaseID, "case", "", "case identifier (defaults to an offline placeholder)")
	encodeCmd.Flags().StringVar(&encodeReporter, "reporter", "test-reporter", "reporter identifier")
	encodeCmd.Flags().Float64Var(&encodeLat, "lat", 23.8103, "latitude")
	encodeCmd.Flags().Float64Var(&encodeLon, "lon", 90.4125, "longitude")
	fallbackCmd.AddCommand(encodeCmd, decodeCmd)
	rootCmd.AddCommand(fallbackCmd)
}
