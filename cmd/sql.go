package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  runs(hash, data_dir, weeks, created_at, tracking_rows, players, defensive_players,
    tackle_events, games, seasons, feature_rows)
  feature_rows(run_hash, row_index, nfl_id, position, display_name, max_a, max_s,
    tackles, assists, forced_fumbles, missed_tackles, total_tackles, tackle_efficiency,
    bmi, avg_tackles_by_pos, tackle_factor, p75_tackle_factor, category)
  position_stats(run_hash, position, sort_order, players, avg_tackles,
    p75_tackle_factor, above)

Missing values (no tracking data, zero denominators) are stored as NULL.

Example:
  tacklemetrics sql --csv "SELECT position, AVG(bmi) FROM feature_rows GROUP BY position"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

var sqlCSV bool

func init() {
	sqlCmd.Flags().BoolVar(&sqlCSV, "csv", false, "print results as CSV instead of a table")
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if sqlCSV {
		cols, values, err := db.QueryValues(query)
		if err != nil {
			return err
		}
		return writeRawCSV(os.Stdout, cols, values)
	}

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

// writeRawCSV writes query results in the feature file's conventions: NULL
// is an empty field and floats use the shortest round-trip form.
func writeRawCSV(w io.Writer, cols []string, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	rec := make([]string, len(cols))
	for _, row := range rows {
		for i, v := range row {
			switch x := v.(type) {
			case nil:
				rec[i] = ""
			case float64:
				rec[i] = report.FormatFloat(x)
			case int64:
				rec[i] = strconv.FormatInt(x, 10)
			default:
				rec[i] = fmt.Sprint(x)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
