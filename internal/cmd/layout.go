package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/types"
	"github.com/poorfish/maptoposter/internal/typography"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the label layout for a city as JSON",
	RunE:  runLayout,
}

func init() {
	rootCmd.AddCommand(layoutCmd)

	layoutCmd.Flags().String("city", "", "City name (required)")
	layoutCmd.Flags().String("country", "", "Country name")
	layoutCmd.Flags().Float64("lat", 0, "Latitude shown in the coordinates line")
	layoutCmd.Flags().Float64("lon", 0, "Longitude shown in the coordinates line")
	layoutCmd.Flags().String("aspect", "3:4", "Aspect ratio preset")
	layoutCmd.Flags().String("orientation", string(types.Portrait), "portrait or landscape")
	layoutCmd.Flags().Float64("short-side", poster.DefaultShortSide, "Canvas short side in poster units")
	layoutCmd.Flags().String("font", "Roboto", "Font family")

	for key, flag := range map[string]string{
		"layout.city":        "city",
		"layout.country":     "country",
		"layout.lat":         "lat",
		"layout.lon":         "lon",
		"layout.aspect":      "aspect",
		"layout.orientation": "orientation",
		"layout.short_side":  "short-side",
		"layout.font":        "font",
	} {
		if err := viper.BindPFlag(key, layoutCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}
}

func runLayout(cmd *cobra.Command, args []string) error {
	city := viper.GetString("layout.city")
	if city == "" {
		return fmt.Errorf("--city is required")
	}
	orientation, err := types.ParseOrientation(viper.GetString("layout.orientation"))
	if err != nil {
		return err
	}
	aspect, err := poster.ParseAspect(viper.GetString("layout.aspect"))
	if err != nil {
		return err
	}
	width, height := aspect.Dimensions(viper.GetFloat64("layout.short_side"), orientation)

	layout := typography.ComputeLabelLayout(
		city,
		viper.GetString("layout.country"),
		types.NewGeoPoint(viper.GetFloat64("layout.lat"), viper.GetFloat64("layout.lon")),
		width, height,
		orientation,
		viper.GetString("layout.font"),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Width  float64           `json:"width"`
		Height float64           `json:"height"`
		Layout typography.Layout `json:"layout"`
	}{width, height, layout})
}
