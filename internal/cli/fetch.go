package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/landsat-dashboard/internal/common"
	"github.com/i474232898/landsat-dashboard/internal/export"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

func newFetchCmd(v *viper.Viper) *cobra.Command {
	var (
		date   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch imagery metadata for a point and date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, err := readCoordinate(cmd)
			if err != nil {
				return err
			}
			day, err := common.ParseDateOr(date, common.Today())
			if err != nil {
				return err
			}

			a, err := wireApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.Sessions.Create()
			if err := a.Service.SetLocation(sess, coord); err != nil {
				return err
			}
			rec, err := a.Service.FetchImagery(cmd.Context(), sess, day)
			if errors.Is(err, imagery.ErrNoCoverage) {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No data available for the given location.")
				return err
			}
			if err != nil {
				return err
			}

			body, _, err := export.Export(rec, export.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}

	coordinateFlags(cmd)
	cmd.Flags().StringVar(&date, "date", "", "capture date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&format, "output", "json", "output format: json or csv")
	return cmd
}
