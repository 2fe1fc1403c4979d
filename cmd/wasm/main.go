//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/poorfish/maptoposter/internal/bridge"
	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/types"
	"github.com/poorfish/maptoposter/internal/typography"
)

// LayoutRequest asks for the label layout of a canvas.
type LayoutRequest struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Aspect      string  `json:"aspect"`
	Orientation string  `json:"orientation"`
	Font        string  `json:"font"`
}

func errorResult(format string, args ...any) any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

// toJS round-trips v through JSON so JS receives plain objects.
func toJS(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to encode response: %v", err)
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

func decodeArg(args []js.Value, v any) error {
	if len(args) < 1 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal([]byte(args[0].String()), v); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}
	return nil
}

// queries returns the Overpass QL the page should run for both stages.
func queries(this js.Value, args []js.Value) any {
	var req bridge.QueryRequest
	if err := decodeArg(args, &req); err != nil {
		return errorResult("%v", err)
	}
	res, err := bridge.Queries(req)
	if err != nil {
		return errorResult("%v", err)
	}
	return toJS(res)
}

// render turns the page's Overpass responses into an SVG poster.
func render(this js.Value, args []js.Value) any {
	var req bridge.RenderRequest
	if err := decodeArg(args, &req); err != nil {
		return errorResult("%v", err)
	}
	res, err := bridge.Render(context.Background(), req, nil)
	if err != nil {
		return errorResult("%v", err)
	}
	return toJS(res)
}

func layout(this js.Value, args []js.Value) any {
	var req LayoutRequest
	if err := decodeArg(args, &req); err != nil {
		return errorResult("%v", err)
	}
	if req.Aspect == "" {
		req.Aspect = "3:4"
	}
	if req.Orientation == "" {
		req.Orientation = string(types.Portrait)
	}
	if req.Font == "" {
		req.Font = "Roboto"
	}

	orientation, err := types.ParseOrientation(req.Orientation)
	if err != nil {
		return errorResult("%v", err)
	}
	aspect, err := poster.ParseAspect(req.Aspect)
	if err != nil {
		return errorResult("%v", err)
	}
	w, h := aspect.Dimensions(poster.DefaultShortSide, orientation)
	return toJS(typography.ComputeLabelLayout(req.City, req.Country, types.NewGeoPoint(req.Lat, req.Lon), w, h, orientation, req.Font))
}

func themes(this js.Value, args []js.Value) any {
	list, err := bridge.Themes()
	if err != nil {
		return errorResult("%v", err)
	}
	return toJS(list)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("maptoposterQueries", js.FuncOf(queries))
	js.Global().Set("maptoposterRender", js.FuncOf(render))
	js.Global().Set("maptoposterLayout", js.FuncOf(layout))
	js.Global().Set("maptoposterThemes", js.FuncOf(themes))

	fmt.Println("MapToPoster WASM module loaded")
	<-c
}
