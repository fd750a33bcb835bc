// Package model defines the vehicle-position records moving through the
// ingestion pipeline.
package model

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID is the spatial reference of every stored point (WGS84).
const SRID = 4326

// Source document field names.
const (
	FieldOrdem            = "ordem"
	FieldLinha            = "linha"
	FieldDataHora         = "datahora"
	FieldDataHoraEnvio    = "datahoraenvio"
	FieldDataHoraServidor = "datahoraservidor"
	FieldVelocidade       = "velocidade"
	FieldLatitude         = "latitude"
	FieldLongitude        = "longitude"
)

// RawRecord is one untyped item decoded from a source entry. Numbers are
// decoded as json.Number.
type RawRecord map[string]any

// Position is a validated, normalized vehicle-position record.
type Position struct {
	Ordem            string
	Linha            string
	DataHora         int64
	DataHoraEnvio    int64
	DataHoraServidor int64
	Velocidade       int32
	Longitude        float64
	Latitude         float64
	Geom             *geom.Point
}

// NewPoint builds the (longitude, latitude) point tagged with SRID.
func NewPoint(lon, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRID)
}

// EncodeEWKB renders p as little-endian EWKB carrying its SRID.
func EncodeEWKB(p *geom.Point) ([]byte, error) {
	if p == nil {
		return nil, eris.New("model: nil point")
	}
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "model: encode EWKB")
	}
	return data, nil
}
