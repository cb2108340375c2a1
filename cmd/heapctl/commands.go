package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/concurrency"
	"heapdb/db"
	"heapdb/disk"
	"heapdb/disk/pages"
	"heapdb/disk/structures"
	"heapdb/execution/expressions"
	"heapdb/execution/plans"
)

var errBadPredicate = errors.New("bad predicate")

type CreateCmd struct {
	Table   string `arg:"" help:"Table name."`
	Columns string `name:"columns" required:"" help:"Columns as name:type[:size],... where type is int or string."`
}

func (c *CreateCmd) Run(g *Globals) error {
	schema, err := db.ParseSchema(c.Columns)
	if err != nil {
		return err
	}

	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	t, err := d.CreateTable(c.Table, schema)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (id %d)\n", c.Table, t.File.GetID())
	return nil
}

type TablesCmd struct{}

func (c *TablesCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	for _, name := range d.Tables() {
		t, err := d.Table(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%v\t%d pages\n", name, t.File.GetSchema(), t.File.NumPages())
	}
	return nil
}

type InsertCmd struct {
	Table string   `arg:"" help:"Table name."`
	Rows  []string `arg:"" sep:"none" help:"Rows as comma separated values, one argument per row."`
}

func (c *InsertCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	t, err := d.Table(c.Table)
	if err != nil {
		return err
	}

	err = d.Txns().Run(func(txn *concurrency.Transaction) error {
		for _, row := range c.Rows {
			values, err := db.ParseValues(t.File.GetSchema(), row)
			if err != nil {
				return err
			}
			if err := d.Pool().InsertTuple(txn.GetID(), t.File.GetID(), &catalog.Tuple{Values: values}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("inserted %d rows\n", len(c.Rows))
	return nil
}

type ScanCmd struct {
	Table string   `arg:"" help:"Table name."`
	Where []string `name:"where" short:"w" sep:"none" help:"Predicate like age>=18, repeatable, all must hold."`
	Limit int      `name:"limit" default:"0" help:"Print at most this many rows, 0 prints all."`
}

func (c *ScanCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	plan, err := scanPlan(d, c.Table, c.Where)
	if err != nil {
		return err
	}

	var rows []*catalog.Tuple
	err = d.Txns().Run(func(txn *concurrency.Transaction) error {
		rows, err = d.Execute(txn.GetID(), plan)
		return err
	})
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for _, col := range plan.GetOutSchema().GetColumns() {
		names = append(names, col.Name)
	}
	fmt.Println(strings.Join(names, "\t"))
	for i, row := range rows {
		if c.Limit > 0 && i == c.Limit {
			break
		}
		fmt.Println(row)
	}
	return nil
}

type DeleteCmd struct {
	Table string   `arg:"" help:"Table name."`
	Where []string `name:"where" short:"w" sep:"none" help:"Predicate like age>=18, repeatable. Without one every row is deleted."`
}

func (c *DeleteCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	scan, err := scanPlan(d, c.Table, c.Where)
	if err != nil {
		return err
	}

	var res []*catalog.Tuple
	err = d.Txns().Run(func(txn *concurrency.Transaction) error {
		res, err = d.Execute(txn.GetID(), plans.NewDeletePlanNode(scan))
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("deleted %v rows\n", res[0].GetValue(0))
	return nil
}

type AggCmd struct {
	Table  string `arg:"" help:"Table name."`
	Op     string `arg:"" enum:"count,sum,avg,min,max" help:"Aggregate: count, sum, avg, min or max."`
	Column string `arg:"" help:"Aggregated column."`
	Group  string `name:"group" short:"g" help:"Group by this column."`
}

func (c *AggCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	scan, err := scanPlan(d, c.Table, nil)
	if err != nil {
		return err
	}

	t, err := d.Table(c.Table)
	if err != nil {
		return err
	}
	schema := t.File.GetSchema()

	aggField, err := schema.GetColIdx(c.Column)
	if err != nil {
		return errors.Wrap(err, c.Column)
	}
	groupField := plans.NoGrouping
	if c.Group != "" {
		if groupField, err = schema.GetColIdx(c.Group); err != nil {
			return errors.Wrap(err, c.Group)
		}
	}

	ops := map[string]plans.AggOp{"count": plans.Count, "sum": plans.Sum, "avg": plans.Avg, "min": plans.Min, "max": plans.Max}
	plan, err := plans.NewAggregationPlanNode(scan, aggField, groupField, ops[c.Op])
	if err != nil {
		return err
	}

	var rows []*catalog.Tuple
	err = d.Txns().Run(func(txn *concurrency.Transaction) error {
		rows, err = d.Execute(txn.GetID(), plan)
		return err
	})
	if err != nil {
		return err
	}

	for _, row := range rows {
		fmt.Println(row)
	}
	return nil
}

type StatsCmd struct {
	Table string   `arg:"" help:"Table name."`
	Where []string `name:"where" short:"w" sep:"none" help:"Estimate the selectivity of these predicates on integer columns."`
}

func (c *StatsCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	t, err := d.Table(c.Table)
	if err != nil {
		return err
	}
	stats, err := d.Stats(c.Table)
	if err != nil {
		return err
	}

	fmt.Printf("pages\t%d\ntuples\t%d\nscan cost\t%.0f\n", t.File.NumPages(), stats.TotalTuples(), stats.EstimateScanCost())
	schema := t.File.GetSchema()
	for i, col := range schema.GetColumns() {
		if h, ok := stats.Histogram(i); ok {
			fmt.Printf("%s\t%v\n", col.Name, h)
		}
	}

	for _, w := range c.Where {
		colIdx, op, val, err := parsePredicate(schema, w)
		if err != nil {
			return err
		}
		sel, err := stats.EstimateSelectivity(colIdx, op, val)
		if err != nil {
			return errors.Wrap(err, w)
		}
		fmt.Printf("%s\tselectivity %.4f\tcardinality %d\n", w, sel, stats.EstimateCardinality(sel))
	}
	return nil
}

type PagesCmd struct {
	Table string `arg:"" help:"Table name."`
}

func (c *PagesCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	t, err := d.Table(c.Table)
	if err != nil {
		return err
	}

	pageSize := t.Disk.PageSize()
	for i := 0; i < t.Disk.NumPages(); i++ {
		data, err := t.Disk.ReadPage(i)
		if err != nil {
			return err
		}
		hp, err := structures.NewHeapPage(pages.NewPageID(t.File.GetID(), i), data, t.File.GetSchema(), pageSize)
		if err != nil {
			return err
		}
		sum := disk.PageChecksum(data)
		fmt.Printf("%d\t%d/%d slots\t%x\n", i, hp.NumSlots()-hp.NumEmptySlots(), hp.NumSlots(), sum)
	}
	return nil
}

type SnapshotCmd struct {
	Table string `arg:"" help:"Table name."`
	Out   string `name:"out" short:"o" required:"" type:"path" help:"Snapshot file to write."`
}

func (c *SnapshotCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	f, err := os.Create(c.Out)
	if err != nil {
		return err
	}

	n, err := d.Snapshot(c.Table, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Printf("wrote %d pages to %s\n", n, c.Out)
	return nil
}

type RestoreCmd struct {
	Table   string `arg:"" help:"Name of the new table."`
	In      string `name:"in" short:"i" required:"" type:"existingfile" help:"Snapshot file to read."`
	Columns string `name:"columns" required:"" help:"Columns of the snapshotted table as name:type[:size],..."`
}

func (c *RestoreCmd) Run(g *Globals) error {
	schema, err := db.ParseSchema(c.Columns)
	if err != nil {
		return err
	}

	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.Close()

	f, err := os.Open(c.In)
	if err != nil {
		return err
	}
	defer f.Close()

	t, err := d.RestoreTable(c.Table, schema, f)
	if err != nil {
		return err
	}
	fmt.Printf("restored %s with %d pages\n", c.Table, t.File.NumPages())
	return nil
}

func scanPlan(d *db.DB, table string, where []string) (*plans.SeqScanPlanNode, error) {
	t, err := d.Table(table)
	if err != nil {
		return nil, err
	}

	var pred expressions.IPredicate
	if len(where) > 0 {
		preds := make([]expressions.IPredicate, 0, len(where))
		for _, w := range where {
			colIdx, op, val, err := parsePredicate(t.File.GetSchema(), w)
			if err != nil {
				return nil, err
			}
			preds = append(preds, expressions.NewCompExpression(op,
				expressions.NewGetColumnExpression(colIdx), expressions.NewConstExpression(val)))
		}
		pred = expressions.NewAndExpression(preds...)
	}

	return plans.NewSeqScanPlanNode(d.Catalog(), t.File.GetID(), "", pred)
}

// operators are ordered so that two character operators match before their prefixes.
var operators = []struct {
	token string
	op    db_types.CompOp
}{
	{">=", db_types.GreaterThanOrEqual},
	{"<=", db_types.LessThanOrEqual},
	{"<>", db_types.NotEqual},
	{"!=", db_types.NotEqual},
	{"=", db_types.Equal},
	{"<", db_types.LessThan},
	{">", db_types.GreaterThan},
}

// parsePredicate parses "column op value" where op is one of = <> != < <= > >=.
func parsePredicate(schema catalog.Schema, s string) (int, db_types.CompOp, *db_types.Value, error) {
	for _, o := range operators {
		idx := strings.Index(s, o.token)
		if idx <= 0 {
			continue
		}

		name := strings.TrimSpace(s[:idx])
		colIdx, err := schema.GetColIdx(name)
		if err != nil {
			return 0, 0, nil, errors.Wrap(err, name)
		}

		raw := strings.TrimSpace(s[idx+len(o.token):])
		col := schema.GetColumn(colIdx)
		if col.TypeId.KindID == db_types.IntegerKind {
			vals, err := db.ParseValues(catalog.NewSchema([]catalog.Column{*col}), raw)
			if err != nil {
				return 0, 0, nil, err
			}
			return colIdx, o.op, vals[0], nil
		}
		return colIdx, o.op, db_types.NewValue(raw), nil
	}

	return 0, 0, nil, errors.Wrapf(errBadPredicate, "%q", s)
}
