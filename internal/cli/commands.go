package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"TitaniumDesk/internal/domain/models"
	"TitaniumDesk/internal/presenter"
	"TitaniumDesk/internal/usecase"
	xhttp "TitaniumDesk/pkg/http"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4af37")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
)

type options struct {
	addr    string
	timeout time.Duration
	tz      string
}

// envelope mirrors xhttp.APIResponse with a typed payload.
type envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// NewRootCmd creates the deskctl root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "deskctl",
		Short: "deskctl - terminal client for the Titanium desk",
		Long: `deskctl talks to a running desk over its HTTP API.
It renders the live desk, the system log and the execution history, and
can issue manual BUY / SELL overrides.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.addr, "addr", "http://localhost:8080", "Desk HTTP address")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.tz, "tz", "Local", "Timezone for wall-clock labels")

	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newLogsCmd(opts))
	rootCmd.AddCommand(newTradesCmd(opts))
	rootCmd.AddCommand(newForceCmd(opts))

	return rootCmd
}

func newStatusCmd(opts *options) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Render a desk view from the current snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !presenter.KnownView(view) {
				return fmt.Errorf("unknown view %q", view)
			}
			loc, err := opts.location()
			if err != nil {
				return err
			}
			var res envelope[usecase.Snapshot]
			if err := opts.get(cmd.Context(), "/api/state", nil, &res); err != nil {
				return err
			}
			return writeln(cmd.OutOrStdout(), presenter.RenderPage(presenter.Build(res.Data, view, loc)))
		},
	}
	cmd.Flags().StringVar(&view, "view", presenter.ViewDashboard, "View to render (dashboard, strategy, trades, risk, settings)")
	return cmd
}

func newLogsCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the system log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"limit": {fmt.Sprint(limit)}}
			var res envelope[struct {
				Rows []presenter.LogLine `json:"rows"`
			}]
			if err := opts.get(cmd.Context(), "/api/logs", q, &res); err != nil {
				return err
			}
			return writeln(cmd.OutOrStdout(), presenter.RenderLogs(res.Data.Rows))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries (1-100)")
	return cmd
}

func newTradesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trades",
		Short: "Show the execution history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res envelope[presenter.TradesView]
			if err := opts.get(cmd.Context(), "/api/trades", nil, &res); err != nil {
				return err
			}
			return writeln(cmd.OutOrStdout(), presenter.RenderTrades(res.Data))
		},
	}
}

func newForceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force [BUY|SELL]",
		Short: "Issue a manual override",
		Long: `Forward a manual BUY or SELL override to the backend.
Refused locally while the desk runs on simulated data.
Example: deskctl force buy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			side := models.OrderSide(strings.ToUpper(args[0]))
			if !side.Valid() {
				return fmt.Errorf("side must be BUY or SELL, got %q", args[0])
			}
			var res envelope[models.ForceResult]
			err := opts.client().SendAndParse(cmd.Context(), &xhttp.RequestOptions{
				Method: xhttp.MethodPost,
				URL:    opts.endpoint("/api/force/" + string(side)),
			}, &res)
			if err != nil {
				return fmt.Errorf("force %s: %w", side, err)
			}
			return writeln(cmd.OutOrStdout(), describeForce(res.Data))
		},
	}
}

func describeForce(r models.ForceResult) string {
	switch {
	case r.Forwarded:
		return okStyle.Render(fmt.Sprintf("%s override forwarded", r.Side))
	case r.Simulated:
		return warnStyle.Render(fmt.Sprintf("SIMULATION MODE: Cannot execute real %s order.", r.Side))
	case r.Throttled:
		return warnStyle.Render(fmt.Sprintf("%s override throttled, retry shortly", r.Side))
	default:
		return errStyle.Render(fmt.Sprintf("EXECUTION FAILED: %s", r.Error))
	}
}

func (o *options) client() *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(o.timeout))
}

func (o *options) endpoint(path string) string {
	return strings.TrimRight(o.addr, "/") + path
}

func (o *options) get(ctx context.Context, path string, q url.Values, dest interface{}) error {
	err := o.client().SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         o.endpoint(path),
		QueryParams: q,
	}, dest)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

func (o *options) location() (*time.Location, error) {
	if o.tz == "" || o.tz == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(o.tz)
}

func writeln(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
