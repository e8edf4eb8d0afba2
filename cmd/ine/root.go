package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/mmngreco/ine-go/src/export"
	"github.com/mmngreco/ine-go/src/ine"
	"github.com/mmngreco/ine-go/src/logger"
)

type cliOptions struct {
	lang     string
	baseURL  string
	timeout  time.Duration
	rps      float64
	logLevel string

	date    string
	last    int
	geo     int
	format  string
	params  []string
	summary bool

	client *ine.Client
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "ine",
		Short: "Query the INE Tempus3 statistics service",
		Long: `ine fetches series, operations and raw endpoints from the
Instituto Nacional de Estadistica JSON service.

Examples:
  ine series IPC206449 --date 20200101: --last 12
  ine functions --lang EN --format csv
  ine input OPERACION/IPC --param det=2`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.InitLogger(opts.logLevel, cmd.ErrOrStderr())
			if opts.format != "json" && opts.format != "csv" {
				return unsupportedFormat(opts.format)
			}
			lang, err := ine.ParseLanguage(opts.lang)
			if err != nil {
				return err
			}
			opts.client, err = ine.NewClient(
				ine.WithBaseURL(opts.baseURL),
				ine.WithLanguage(lang),
				ine.WithTimeout(opts.timeout),
				ine.WithRateLimit(rate.Limit(opts.rps), 1),
				ine.WithLogger(logger.L),
			)
			return err
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.lang, "lang", "l", string(ine.DefaultLanguage), "response language (ES or EN)")
	pf.StringVar(&opts.baseURL, "base-url", ine.DefaultBaseURL, "service root without the language segment")
	pf.DurationVar(&opts.timeout, "timeout", ine.DefaultTimeout, "HTTP timeout per request")
	pf.Float64Var(&opts.rps, "rps", 0, "max requests per second (0 = unlimited)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	pf.StringVarP(&opts.format, "format", "f", "json", "output format (json or csv)")

	rootCmd.AddCommand(
		newSeriesCmd(opts),
		newIPCCmd(opts),
		newCNTRCmd(opts),
		newFunctionsCmd(opts),
		newInputCmd(opts),
		newTablesCmd(opts),
	)
	return rootCmd
}

func addQueryFlags(cmd *cobra.Command, opts *cliOptions) {
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "YYYYMMDD, START:END (either side optional) or D1,D2,...")
	cmd.Flags().IntVarP(&opts.last, "last", "n", 0, "only the last N values")
	cmd.Flags().IntVar(&opts.geo, "geo", -1, "geo flag (0 or 1); omitted when unset")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print a record summary to stderr")
}

func (o *cliOptions) query() (ine.Query, error) {
	var q ine.Query
	var err error
	if q.Date, err = ine.ParseDateSpec(o.date); err != nil {
		return q, err
	}
	if o.last < 0 {
		return q, fmt.Errorf("%w: --last must not be negative", ine.ErrInvalidQuery)
	}
	q.Last = o.last
	if o.geo >= 0 {
		if q.Geo, err = ine.GeoFromInt(o.geo); err != nil {
			return q, err
		}
	}
	return q, nil
}

func newSeriesCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series <code>",
		Short: "Fetch the observations of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.query()
			if err != nil {
				return err
			}
			res, err := opts.client.GetSeries(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return opts.writeSeries(cmd, res)
		},
	}
	addQueryFlags(cmd, opts)
	return cmd
}

func newIPCCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipc",
		Short: "Fetch the general consumer price index (" + ine.SeriesIPC + ")",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.query()
			if err != nil {
				return err
			}
			res, err := opts.client.GetIPC(cmd.Context(), q)
			if err != nil {
				return err
			}
			return opts.writeSeries(cmd, res)
		},
	}
	addQueryFlags(cmd, opts)
	return cmd
}

func newCNTRCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cntr",
		Short: "Fetch the national accounts series " + ine.SeriesCNTR2010 + " (base 2010)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.query()
			if err != nil {
				return err
			}
			res, err := opts.client.GetCNTR2010(cmd.Context(), q)
			if err != nil {
				return err
			}
			return opts.writeSeries(cmd, res)
		},
	}
	addQueryFlags(cmd, opts)
	return cmd
}

func newFunctionsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "functions [name]",
		Short: "List the entries of a function (default " + ine.FuncOperacionesDisponibles + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = strings.ToUpper(args[0])
			}
			table, err := opts.client.GetFunctions(cmd.Context(), name)
			if err != nil {
				return err
			}
			switch opts.format {
			case "csv":
				return export.WriteTableCSV(cmd.OutOrStdout(), table)
			case "json":
				return writeJSON(cmd.OutOrStdout(), table)
			default:
				return unsupportedFormat(opts.format)
			}
		},
	}
}

func newInputCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "input <path>",
		Short: "Call any endpoint path, e.g. OPERACION/IPC, and print its JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			for _, p := range opts.params {
				k, v, ok := strings.Cut(p, "=")
				if !ok || k == "" {
					return fmt.Errorf("%w: --param %q must be key=value", ine.ErrInvalidQuery, p)
				}
				params.Add(k, v)
			}
			v, err := opts.client.GetInput(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "query parameter key=value (repeatable)")
	return cmd
}

func newTablesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Table retrieval (not supported)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := opts.client.GetTables(cmd.Context())
			return err
		},
	}
}

func (o *cliOptions) writeSeries(cmd *cobra.Command, res *ine.SeriesResult) error {
	if o.summary {
		writeSummary(cmd.ErrOrStderr(), res)
	}
	switch o.format {
	case "csv":
		return export.WriteSeriesCSV(cmd.OutOrStdout(), res)
	case "json":
		return writeJSON(cmd.OutOrStdout(), res)
	default:
		return unsupportedFormat(o.format)
	}
}

func writeSummary(w io.Writer, res *ine.SeriesResult) {
	n := res.Len()
	if n == 0 {
		fmt.Fprintln(w, "0 records")
		return
	}
	first := res.Records[0].Timestamp
	last := res.Records[n-1].Timestamp
	fmt.Fprintf(w, "%s records from %s to %s (latest %s)\n",
		humanize.Comma(int64(n)),
		first.Format(time.DateOnly),
		last.Format(time.DateOnly),
		humanize.Time(last))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func unsupportedFormat(format string) error {
	return fmt.Errorf("unsupported format %q (want json or csv)", format)
}
