package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/kosarica/sourcing-service/internal/costmodel"
)

// Schema is the DDL LoadPostgres reads from. Seed applies it; the service
// itself only ever reads these tables.
const Schema = `
CREATE TABLE IF NOT EXISTS %[1]s.nodes (
	id      TEXT PRIMARY KEY,
	is_hub  BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS %[1]s.products (
	code        TEXT PRIMARY KEY,
	unit_weight DOUBLE PRECISION NOT NULL CHECK (unit_weight > 0)
);

CREATE TABLE IF NOT EXISTS %[1]s.center_products (
	center_id    TEXT NOT NULL REFERENCES %[1]s.nodes(id) ON DELETE CASCADE,
	product_code TEXT NOT NULL,
	PRIMARY KEY (center_id, product_code)
);

CREATE TABLE IF NOT EXISTS %[1]s.legs (
	node_a      TEXT NOT NULL REFERENCES %[1]s.nodes(id) ON DELETE CASCADE,
	node_b      TEXT NOT NULL REFERENCES %[1]s.nodes(id) ON DELETE CASCADE,
	distance_km DOUBLE PRECISION,
	flat_cost   DOUBLE PRECISION,
	PRIMARY KEY (node_a, node_b)
);
`

// SchemaDDL returns Schema bound to the given schema name.
func SchemaDDL(schema string) string {
	return fmt.Sprintf(Schema, pq.QuoteIdentifier(schema))
}

// LoadPostgres reads a catalog from the given schema inside one read-only
// transaction, so the snapshot is consistent across tables.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool, schema string) (*Definition, error) {
	if pool == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if schema == "" {
		schema = "public"
	}
	qs := pq.QuoteIdentifier(schema)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	doc := &document{
		Centers: make(map[string][]string),
		Weights: make(map[string]float64),
	}

	rows, err := tx.Query(ctx, `SELECT id FROM `+qs+`.nodes WHERE is_hub`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hub: %w", err)
	}
	hubs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan hub: %w", err)
	}
	if len(hubs) != 1 {
		return nil, ErrInvalidCatalog{Field: "hub", Reason: fmt.Sprintf("expected exactly one hub node, found %d", len(hubs))}
	}
	doc.Hub = hubs[0]

	rows, err = tx.Query(ctx, `
		SELECT n.id, cp.product_code
		FROM `+qs+`.nodes n
		LEFT JOIN `+qs+`.center_products cp ON cp.center_id = n.id
		WHERE NOT n.is_hub
		ORDER BY n.id, cp.product_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	var (
		center  string
		product *string
	)
	_, err = pgx.ForEachRow(rows, []any{&center, &product}, func() error {
		if product == nil {
			// center with no stock yet; keep it visible
			if _, ok := doc.Centers[center]; !ok {
				doc.Centers[center] = nil
			}
			return nil
		}
		doc.Centers[center] = append(doc.Centers[center], *product)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT code, unit_weight FROM `+qs+`.products`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var (
		code   string
		weight float64
	)
	_, err = pgx.ForEachRow(rows, []any{&code, &weight}, func() error {
		doc.Weights[code] = weight
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT node_a, node_b, distance_km, flat_cost FROM `+qs+`.legs ORDER BY node_a, node_b`)
	if err != nil {
		return nil, fmt.Errorf("failed to query legs: %w", err)
	}
	var (
		a, b           string
		distance, cost *float64
	)
	_, err = pgx.ForEachRow(rows, []any{&a, &b, &distance, &cost}, func() error {
		if distance != nil {
			doc.Distances = append(doc.Distances, costmodel.Leg{From: a, To: b, Value: *distance})
		}
		if cost != nil {
			doc.Costs = append(doc.Costs, costmodel.Leg{From: a, To: b, Value: *cost})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan legs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit catalog transaction: %w", err)
	}

	def, err := doc.build("postgres:" + schema)
	if err != nil {
		return nil, fmt.Errorf("error building catalog from postgres: %w", err)
	}
	return def, nil
}

// Seed writes def into the given schema, replacing existing rows. Used to
// bootstrap a database from a file catalog.
func Seed(ctx context.Context, pool *pgxpool.Pool, schema string, def *Definition) error {
	qs := pq.QuoteIdentifier(schema)

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+qs); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if _, err := tx.Exec(ctx, SchemaDDL(schema)); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
		for _, table := range []string{"legs", "center_products", "products", "nodes"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+qs+`.`+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		cat := def.Catalog
		batch := &pgx.Batch{}
		batch.Queue(`INSERT INTO `+qs+`.nodes (id, is_hub) VALUES ($1, true)`, cat.Hub())
		for _, c := range cat.Centers() {
			batch.Queue(`INSERT INTO `+qs+`.nodes (id, is_hub) VALUES ($1, false)`, c)
		}
		for p, w := range cat.Weights() {
			batch.Queue(`INSERT INTO `+qs+`.products (code, unit_weight) VALUES ($1, $2)`, p, w)
		}
		for c, products := range cat.Inventory() {
			for _, p := range products {
				batch.Queue(`INSERT INTO `+qs+`.center_products (center_id, product_code) VALUES ($1, $2)`, c, p)
			}
		}
		for _, leg := range mergeLegs(def) {
			batch.Queue(`INSERT INTO `+qs+`.legs (node_a, node_b, distance_km, flat_cost) VALUES ($1, $2, $3, $4)`,
				leg.from, leg.to, leg.distance, leg.cost)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert catalog rows: %w", err)
		}
		return nil
	})
}

type mergedLeg struct {
	from, to       string
	distance, cost *float64
}

func mergeLegs(def *Definition) []mergedLeg {
	index := make(map[[2]string]*mergedLeg)
	var order [][2]string
	get := func(from, to string) *mergedLeg {
		k := [2]string{from, to}
		if l, ok := index[k]; ok {
			return l
		}
		l := &mergedLeg{from: from, to: to}
		index[k] = l
		order = append(order, k)
		return l
	}
	for _, l := range def.Distances.Legs() {
		v := l.Value
		get(l.From, l.To).distance = &v
	}
	for _, l := range def.Costs.Legs() {
		v := l.Value
		get(l.From, l.To).cost = &v
	}

	out := make([]mergedLeg, 0, len(order))
	for _, k := range order {
		out = append(out, *index[k])
	}
	return out
}
