package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/warden/internal/probe"
	"github.com/Paintersrp/warden/internal/procinfo"
)

type statusReport struct {
	Endpoint string         `json:"endpoint"`
	Alive    bool           `json:"alive"`
	Process  *procinfo.Info `json:"process,omitempty"`
}

func newStatusCmd(ctx *context) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a companion is listening on the configured endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd)
			if err != nil {
				return err
			}
			prober, err := probe.New(cfg)
			if err != nil {
				return err
			}

			report := statusReport{
				Endpoint: cfg.Endpoint.Address(),
				Alive:    probe.Alive(cmd.Context(), prober),
			}
			if report.Alive {
				if info, err := procinfo.DescribeListener(cmd.Context(), cfg.Endpoint.PortNumber()); err == nil && info.PID != 0 {
					report.Process = &info
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ENDPOINT\tALIVE\tPID\tPROCESS\tRSS\tUPTIME")
			alive := "no"
			if report.Alive {
				alive = "yes"
			}
			pid, name, rss, uptime := "-", "-", "-", "-"
			if info := report.Process; info != nil {
				pid = fmt.Sprintf("%d", info.PID)
				if info.Name != "" {
					name = info.Name
				}
				if info.RSS > 0 {
					rss = units.BytesSize(float64(info.RSS))
				}
				if !info.CreatedAt.IsZero() {
					uptime = units.HumanDuration(time.Since(info.CreatedAt))
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", report.Endpoint, alive, pid, name, rss, uptime)
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
