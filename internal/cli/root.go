// Package cli implements the landsatctl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/landsat-dashboard/internal/app"
	"github.com/i474232898/landsat-dashboard/internal/config"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Persistent flags may also be set with
// LANDSATCTL_* environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LANDSATCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "landsatctl",
		Short:         "landsatctl: look up Landsat imagery and build time-lapse animations",
		Long:          "landsatctl resolves locations, fetches imagery metadata from the NASA Earth API and renders time-lapse animations from the command line.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.Int("workers", 0, "concurrent frame downloads (0 keeps ACQUIRE_WORKERS)")
	flags.String("format", "", "animation format: gif or avi (empty keeps ANIMATION_FORMAT)")
	flags.String("artifact-dir", "", "directory for rendered animations (empty keeps ARTIFACT_DIR)")
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(
		newGeocodeCmd(v),
		newLocateCmd(v),
		newFetchCmd(v),
		newAnimateCmd(v),
	)
	return rootCmd
}

// wireApp loads the environment configuration and applies flag overrides.
func wireApp(v *viper.Viper) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// Commands run in one-off sessions with no history to show.
	cfg.ArchiveEnabled = false

	if n := v.GetInt("workers"); n > 0 {
		cfg.AcquireWorkers = n
	}
	if f := v.GetString("format"); f != "" {
		cfg.AnimationFormat = f
	}
	if dir := v.GetString("artifact-dir"); dir != "" {
		cfg.ArtifactDir = dir
	}

	a, err := app.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire application: %w", err)
	}
	return a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func coordinateFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "latitude in degrees")
	cmd.Flags().Float64("lon", 0, "longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
}

func readCoordinate(cmd *cobra.Command) (imagery.Coordinate, error) {
	lat, err := cmd.Flags().GetFloat64("lat")
	if err != nil {
		return imagery.Coordinate{}, err
	}
	lon, err := cmd.Flags().GetFloat64("lon")
	if err != nil {
		return imagery.Coordinate{}, err
	}
	coord := imagery.Coordinate{Lat: lat, Lon: lon}
	return coord, coord.Validate()
}
