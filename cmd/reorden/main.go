// Reorden is the operations CLI: clean raw exports, compute a plan from
// local files and inspect the run history.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "reorden",
		Usage: "Compute and inspect reorder plans from point-of-sale exports",
		Commands: []*cli.Command{
			{
				Name:  "clean",
				Usage: "Normalize currency-formatted columns in a raw CSV export",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "in",
						Usage:    "Input CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Usage:    "Output CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "columns",
						Usage: "Comma-separated list of numeric columns to clean",
						Value: "total neto,descuentos,devoluciones,total ajustado",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent files when --in is a directory",
						Value: 4,
					},
				},
				Action: runClean,
			},
			{
				Name:  "plan",
				Usage: "Compute a reorder plan from local sales and purchases CSVs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "sales",
						Usage:    "Sales CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "purchases",
						Usage:    "Purchases CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "outlet",
						Usage:    "Outlet to plan for",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "start",
						Usage:    "Purchase window start (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "end",
						Usage:    "Purchase window end (YYYY-MM-DD)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "ref-days",
						Usage: "Days of history the sales export covers",
					},
					&cli.StringFlag{
						Name:  "join-mode",
						Usage: "Join mode: strict or fill-zero",
					},
					&cli.BoolFlag{
						Name:  "omit-zero",
						Usage: "Drop zero-quantity lines from the plan",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Write the plan CSV to this file",
					},
				},
				Action: runPlan,
			},
			{
				Name:  "history",
				Usage: "List recent plan runs",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "outlet",
						Usage: "Filter by outlet",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum rows to return",
						Value: 20,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runHistory,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func parseDateFlag(c *cli.Context, name string) (time.Time, error) {
	v := strings.TrimSpace(c.String(name))
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, want YYYY-MM-DD", name, v)
	}
	return t, nil
}
