package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/workspace"
)

var checkMetrics bool

var checkCmd = &cobra.Command{
	Use:   "check [project...]",
	Short: "Load models and report the ones that fail",
	Long: `Load the named projects, or every typekit and project the sources provide
when none is named, and report each one. Exits with an error when a model
fails to load.

Examples:
  nodekit check
  nodekit check robots --metrics`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkMetrics, "metrics", false, "print loader metrics after the report")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ws, closeWS, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer closeWS()

	report, err := ws.LoadAll(args...)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	writeReport(w, report)

	if checkMetrics {
		if err := dumpMetrics(w, metrics.DefaultRegistry().PrometheusRegistry()); err != nil {
			return err
		}
	}
	if !report.OK() {
		return fmt.Errorf("%d model(s) failed to load", len(report.Failures))
	}
	return nil
}

func writeReport(w io.Writer, report workspace.Report) {
	for _, name := range report.Typekits {
		_, _ = fmt.Fprintf(w, "ok   typekit %s\n", name)
	}
	for _, name := range report.Projects {
		_, _ = fmt.Fprintf(w, "ok   project %s\n", name)
	}
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(w, "FAIL %s %s: %v\n", f.Kind, f.Name, f.Err)
	}
}

// dumpMetrics prints every counter and histogram sample count of g, one line
// per labelled series, sorted by family name.
func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value string
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				value = fmt.Sprintf("%g", m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				value = fmt.Sprintf("%g", m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				value = fmt.Sprintf("count=%d sum=%g", m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			default:
				continue
			}
			_, _ = fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), labels(m.GetLabel()), value)
		}
	}
	return nil
}

func labels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
