package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

func newGeocodeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <place name>",
		Short: "Resolve a place name to coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			coord, err := a.Service.ResolveLocation(cmd.Context(), a.Sessions.Create(), query)
			if errors.Is(err, imagery.ErrNotFound) {
				return fmt.Errorf("location %q not found", query)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", coord)
			return err
		},
	}
}

func newLocateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "locate [ip]",
		Short: "Resolve an IP address (or this machine's network origin) to coordinates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			var ip string
			if len(args) == 1 {
				ip = args[0]
			}
			coord, err := a.Service.ResolveFromNetworkOrigin(cmd.Context(), a.Sessions.Create(), ip)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", coord)
			return err
		},
	}
}
