package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/landsat-dashboard/internal/common"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

func newAnimateCmd(v *viper.Viper) *cobra.Command {
	var (
		start string
		end   string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "animate",
		Short: "Render a time-lapse animation for a point and date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, err := readCoordinate(cmd)
			if err != nil {
				return err
			}
			from, err := common.ParseDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			to, err := common.ParseDate(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
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

			art, report, err := a.Service.Animate(cmd.Context(), sess, from, to, "")
			if errors.Is(err, imagery.ErrEmptyInput) {
				_ = writeJSON(cmd.ErrOrStderr(), report)
				return fmt.Errorf("no images available for the specified date range")
			}
			if err != nil {
				return err
			}

			// The session owns its artifact; move it out before the session ends.
			if out == "" {
				out = "timelapse." + string(art.Format)
			}
			if err := moveFile(art.Path, out); err != nil {
				return fmt.Errorf("save animation: %w", err)
			}
			art.Path = out

			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"artifact": art,
				"report":   report,
			})
		},
	}

	coordinateFlags(cmd)
	cmd.Flags().StringVar(&start, "start", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last date YYYY-MM-DD")
	cmd.Flags().StringVar(&out, "out", "", "output file (default timelapse.<format>)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// moveFile renames src to dst, copying when they live on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	outFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(outFile, in); err != nil {
		outFile.Close()
		return err
	}
	if err := outFile.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
