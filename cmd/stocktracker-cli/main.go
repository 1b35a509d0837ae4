// Command stocktracker-cli is the non-interactive companion to the
// dashboard: session management, one-shot queries, and parquet export.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"stocktracker/internal/config"
	"stocktracker/internal/export"
	"stocktracker/internal/localstate"
	"stocktracker/internal/query"
	"stocktracker/internal/session"
	"stocktracker/internal/util"
	"stocktracker/pkg/stocktracker"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stocktracker-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version     Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  login       Start a session and persist the credential\n")
		fmt.Fprintf(os.Stderr, "  logout      Discard the persisted session\n")
		fmt.Fprintf(os.Stderr, "  whoami      Show the current identity\n")
		fmt.Fprintf(os.Stderr, "  overview    Show public market overview\n")
		fmt.Fprintf(os.Stderr, "  movers      Show top gainers and losers\n")
		fmt.Fprintf(os.Stderr, "  analysis    Run a filtered analysis query\n")
		fmt.Fprintf(os.Stderr, "  export      Run an analysis query and write the rows to parquet\n")
		fmt.Fprintf(os.Stderr, "  watchlist   List locally watched tickers\n")
		fmt.Fprintf(os.Stderr, "  notes       List local per-ticker notes\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Printf("stocktracker-cli %s\n", version)
		return
	}

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "login":
		err = app.login(ctx, os.Args[2:])
	case "logout":
		err = app.logout()
	case "whoami":
		err = app.whoami(ctx)
	case "overview":
		err = app.overview(ctx)
	case "movers":
		err = app.movers(ctx, os.Args[2:])
	case "analysis":
		err = app.analysis(ctx, os.Args[2:], "")
	case "export":
		err = app.export(ctx, os.Args[2:])
	case "watchlist":
		err = app.watchlist()
	case "notes":
		err = app.notes()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the shared wiring every subcommand needs.
type app struct {
	cfg    *config.Config
	client *stocktracker.Client
	state  *localstate.Store
	sess   *session.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	state, err := localstate.Open(cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("opening local state: %w", err)
	}

	client := stocktracker.NewClient(cfg.API.BaseURL)
	return &app{
		cfg:    cfg,
		client: client,
		state:  state,
		sess:   session.NewStore(client, state, logger),
	}, nil
}

func (a *app) close() {
	a.state.Close()
}

func configPath() string {
	if p := os.Getenv("STOCKTRACKER_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "stocktracker.yaml"
	}
	return home + "/.stocktracker/config.yaml"
}

// restore loads the persisted session and fails when none is valid.
func (a *app) restore(ctx context.Context) error {
	a.sess.Initialize(ctx)
	if !a.sess.Authenticated() {
		return fmt.Errorf("not logged in; run stocktracker-cli login")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return fmt.Errorf("both -email and -password are required")
	}

	if err := a.sess.Login(ctx, *email, *password); err != nil {
		return err
	}
	u := a.sess.User()
	fmt.Printf("logged in as %s <%s>\n", u.Name, u.Email)
	return nil
}

func (a *app) logout() error {
	a.sess.Logout()
	fmt.Println("logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	u := a.sess.User()
	fmt.Printf("%s <%s>  id=%s\n", u.Name, u.Email, u.ID)
	return nil
}

func (a *app) overview(ctx context.Context) error {
	ov, err := a.client.GetMarketOverview(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("stocks: %d  sectors: %d  advancing: %d  declining: %d  updated: %s\n",
		ov.TotalStocks, ov.Sectors, ov.Advancers, ov.Decliners, ov.LastUpdated)
	return nil
}

func (a *app) movers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("movers", flag.ExitOnError)
	period := fs.Int("period", a.cfg.Dashboard.MoversPeriod, "lookback period in days")
	limit := fs.Int("limit", a.cfg.Dashboard.MoversLimit, "rows per side")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	set, err := a.client.GetTopMovers(ctx, *period, *limit)
	if err != nil {
		return err
	}

	fmt.Printf("Top gainers (%dd):\n", *period)
	printMovers(set.Gainers, *period)
	fmt.Printf("\nTop losers (%dd):\n", *period)
	printMovers(set.Losers, *period)
	return nil
}

func printMovers(rows []stocktracker.Stock, period int) {
	for _, row := range rows {
		change, _ := row.Change(period)
		fmt.Printf("  %-12s %-32s %10.2f  %+.2f%%\n", row.Ticker, row.CompanyName, row.LatestPrice, change)
	}
}

// analysis runs one query; with a non-empty outPath the rows go to parquet
// instead of stdout.
func (a *app) analysis(ctx context.Context, args []string, outPath string) error {
	fs := flag.NewFlagSet("analysis", flag.ExitOnError)
	sector := fs.String("sector", "", "restrict to one sector")
	mcapMin := fs.String("mcap-min", "", "minimum market cap in crores")
	mcapMax := fs.String("mcap-max", "", "maximum market cap in crores")
	sortBy := fs.String("sort", query.DefaultSortBy, "sort key")
	order := fs.String("order", query.DefaultSortOrder, "sort order: asc or desc")
	out := fs.String("out", outPath, "parquet output path (export only)")
	fs.Parse(args)

	if err := a.restore(ctx); err != nil {
		return err
	}
	window, err := a.client.GetAvailability(ctx)
	if err != nil {
		return fmt.Errorf("fetching data availability: %w", err)
	}

	params := query.Default(window)
	params.Sector = *sector
	if err := params.SetMarketCapRange(*mcapMin, *mcapMax); err != nil {
		return err
	}
	params.SetSort(*sortBy, *order)

	res, err := a.client.GetAnalysis(ctx, params.Body())
	if err != nil {
		return err
	}

	if *out != "" {
		if err := export.WriteAnalysis(*out, res.Data); err != nil {
			return err
		}
		fmt.Printf("wrote %d rows to %s\n", len(res.Data), *out)
		return nil
	}

	for _, row := range res.Data {
		change, _ := row.Change(1)
		fmt.Printf("  %-12s %-32s %-20s %14.2f %10.2f  %+.2f%%\n",
			row.Ticker, row.CompanyName, row.Sector, row.MarketCap, row.LatestPrice, change)
	}
	fmt.Printf("\n%d stocks, %d with full data, avg completeness %.1f%%\n",
		res.Summary.TotalStocks, res.Summary.StocksWithFullData, res.Summary.AvgDataCompleteness)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	return a.analysis(ctx, args, defaultExportPath())
}

func defaultExportPath() string {
	return fmt.Sprintf("analysis-%s.parquet", time.Now().Format("2006-01-02"))
}

func (a *app) watchlist() error {
	tickers, err := a.state.Watchlist()
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		fmt.Println("watchlist is empty")
		return nil
	}
	for _, t := range tickers {
		fmt.Println(t)
	}
	return nil
}

func (a *app) notes() error {
	notes, err := a.state.Notes()
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("no notes")
		return nil
	}
	for _, n := range notes {
		fmt.Printf("%-12s %s  %s\n", n.Ticker, n.UpdatedAt.Format("2006-01-02"), n.Body)
	}
	return nil
}
