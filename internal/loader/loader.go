// Package loader persists batches of normalized positions into PostGIS.
package loader

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gps-ingest/internal/db"
	"github.com/sells-group/gps-ingest/internal/model"
)

// Columns lists the persisted columns in insert order.
var Columns = []string{
	"ordem", "linha", "datahora", "datahoraenvio", "datahoraservidor",
	"velocidade", "longitude", "latitude", "geom",
}

// insertSQL unnests one array per column so the statement keeps nine bind
// parameters whatever the batch size. Points travel as EWKB built from the
// same longitude/latitude values stored in the scalar columns.
const insertSQL = `INSERT INTO %s (%s)
SELECT t.ordem, t.linha, t.datahora, t.datahoraenvio, t.datahoraservidor,
       t.velocidade, t.longitude, t.latitude, ST_GeomFromEWKB(t.geom)
FROM unnest($1::text[], $2::text[], $3::bigint[], $4::bigint[], $5::bigint[],
            $6::integer[], $7::double precision[], $8::double precision[], $9::bytea[])
     AS t(ordem, linha, datahora, datahoraenvio, datahoraservidor, velocidade, longitude, latitude, geom)
ON CONFLICT DO NOTHING`

// Loader writes batches with a single multi-row statement.
type Loader struct{}

// New returns a Loader.
func New() *Loader {
	return &Loader{}
}

// Load inserts records into table using q, skipping rows that already exist.
// It returns the number of rows actually inserted. Errors are returned to the
// caller for transaction handling; Load never retries.
func (l *Loader) Load(ctx context.Context, q db.Querier, table string, records []model.Position) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if table == "" {
		return 0, eris.New("loader: no target table")
	}

	var (
		ordem   = make([]string, len(records))
		linha   = make([]string, len(records))
		dh      = make([]int64, len(records))
		dhEnvio = make([]int64, len(records))
		dhServ  = make([]int64, len(records))
		speed   = make([]int32, len(records))
		lon     = make([]float64, len(records))
		lat     = make([]float64, len(records))
		geoms   = make([][]byte, len(records))
	)
	for i, r := range records {
		ordem[i] = r.Ordem
		linha[i] = r.Linha
		dh[i] = r.DataHora
		dhEnvio[i] = r.DataHoraEnvio
		dhServ[i] = r.DataHoraServidor
		speed[i] = r.Velocidade
		lon[i] = r.Longitude
		lat[i] = r.Latitude

		pt := r.Geom
		if pt == nil {
			pt = model.NewPoint(r.Longitude, r.Latitude)
		}
		b, err := model.EncodeEWKB(pt)
		if err != nil {
			return 0, eris.Wrapf(err, "loader: record %d", i)
		}
		geoms[i] = b
	}

	tag, err := q.Exec(ctx, InsertSQL(table), ordem, linha, dh, dhEnvio, dhServ, speed, lon, lat, geoms)
	if err != nil {
		return 0, eris.Wrapf(err, "loader: insert %d rows into %s", len(records), table)
	}
	return tag.RowsAffected(), nil
}

// InsertSQL renders the bulk insert statement for table.
func InsertSQL(table string) string {
	return fmt.Sprintf(insertSQL, db.QuoteTable(table), db.QuoteColumns(Columns))
}
