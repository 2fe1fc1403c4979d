package export

import (
	"io"

	"github.com/poorfish/maptoposter/internal/geojson"
	"github.com/poorfish/maptoposter/internal/poster"
)

func writeGeoJSON(w io.Writer, p *poster.Poster) error {
	data, err := geojson.ToGeoJSONBytes(p.Features)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
