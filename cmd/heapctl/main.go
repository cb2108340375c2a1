// Command heapctl inspects and edits the tables of a heapdb data directory.
package main

import (
	"github.com/alecthomas/kong"

	"heapdb/config"
	"heapdb/db"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `name:"config" short:"c" help:"Config file (yaml). Defaults are used when omitted." type:"path"`
	DataDir string `name:"data-dir" short:"d" help:"Data directory, overrides the config file."`
	Verbose bool   `name:"verbose" short:"v" help:"Log at debug level to stderr."`
}

func (g *Globals) load() (*config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return nil, err
		}
	}
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	cfg.Log.OutputFile = "stderr"
	cfg.Log.Format = "console"
	if g.Verbose {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}
	return cfg, nil
}

// open opens the database for one command. The caller closes it.
func (g *Globals) open() (*db.DB, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	return db.Open(cfg)
}

// CLI defines the command-line interface using Kong
var CLI struct {
	Globals

	Create   CreateCmd   `cmd:"" help:"Create an empty table."`
	Tables   TablesCmd   `cmd:"" help:"List tables and their schemas."`
	Insert   InsertCmd   `cmd:"" help:"Insert rows in one transaction."`
	Scan     ScanCmd     `cmd:"" help:"Print the rows of a table."`
	Delete   DeleteCmd   `cmd:"" help:"Delete matching rows in one transaction."`
	Agg      AggCmd      `cmd:"" help:"Aggregate a column, optionally grouped by another."`
	Stats    StatsCmd    `cmd:"" help:"Print table statistics and selectivity estimates."`
	Pages    PagesCmd    `cmd:"" help:"Print slot usage and blake3 checksum of every page."`
	Snapshot SnapshotCmd `cmd:"" help:"Write a compressed snapshot of a table."`
	Restore  RestoreCmd  `cmd:"" help:"Create a table from a snapshot."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("heapctl"),
		kong.Description("Inspect and edit heapdb tables"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
