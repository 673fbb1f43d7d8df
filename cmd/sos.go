package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matriforce/dispatch/config"
	"github.com/matriforce/dispatch/core/fallback"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/infra/logger"
	"github.com/matriforce/dispatch/infra/mqtt"
)

var (
	sosReporter string
	sosLat      float64
	sosLon      float64
)

var sosCmd = &cobra.Command{
	Use:   "sos",
	Short: "Inject a test distress signal through the gateway",
	RunE:  injectSOS,
}

func init() {
	sosCmd.Flags().StringVar(&sosReporter, "reporter", "test-reporter", "reporter identifier")
	sosCmd.Flags().Float64Var(&sosLat, "lat", 23.8103, "latitude")
	sosCmd.Flags().Float64Var(&sosLon, "lon", 90.4125, "longitude")
	rootCmd.AddCommand(sosCmd)
}

func injectSOS(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("sos-command")
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	loc := model.Location{Latitude: sosLat, Longitude: sosLon, CapturedAt: time.Now()}
	payload, err := fallback.Encode(fallback.PlaceholderID(sosReporter), sosReporter, loc)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := client.PublishGateway(payload); err != nil {
		return fmt.Errorf("publish payload: %w", err)
	}
	logg.Infof("injected distress signal for %s at (%.5f, %.5f)", sosReporter, sosLat, sosLon)
	return nil
}
