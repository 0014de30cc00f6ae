// Package navapi provides structures and utilities for the map editing and
// navigation endpoints.
package navapi

import (
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/service/i"
)

// MapResponse is the stored occupancy map in its 0/1 matrix form.
type MapResponse struct {
	Size  int     `json:"size"`
	Cells [][]int `json:"cells"`
}

// MapRequest replaces the whole occupancy map.
type MapRequest struct {
	Cells [][]int `json:"cells" binding:"required"`
}

// CellRequest marks one cell free or blocked. Coordinates bind through
// pointers so the zero coordinate still validates.
type CellRequest struct {
	X    *int `json:"x" binding:"required"`
	Y    *int `json:"y" binding:"required"`
	Wall bool `json:"wall"`
}

// PointRequest is a pixel-space tap on the map view.
type PointRequest struct {
	Dx *float64 `json:"dx" binding:"required"`
	Dy *float64 `json:"dy" binding:"required"`
}

// RouteResponse is the persisted planning record.
type RouteResponse struct {
	Start     *dmn.PixelPoint  `json:"start"`
	End       *dmn.PixelPoint  `json:"end"`
	Current   *dmn.PixelPoint  `json:"current"`
	Path      []dmn.PixelPoint `json:"path"`
	Algorithm string           `json:"algorithm"`
}

// TrailResponse lists recent breadcrumbs, newest first.
type TrailResponse struct {
	Points []i.TrailPoint `json:"points"`
}

func routeResponse(r *dmn.Route) *RouteResponse {
	return &RouteResponse{
		Start:     r.Start,
		End:       r.End,
		Current:   r.Current,
		Path:      r.Path,
		Algorithm: r.Algorithm.String(),
	}
}
