// Esperanto dataset viewer
// Serves and explores the matched-conversation study dataset
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukketsvane/esperanto/internal/logger"
	"github.com/lukketsvane/esperanto/internal/metrics"
	"github.com/lukketsvane/esperanto/internal/server"
	"github.com/lukketsvane/esperanto/pkg/dataset"
	"github.com/lukketsvane/esperanto/pkg/export"
	"github.com/lukketsvane/esperanto/pkg/query"
	"github.com/lukketsvane/esperanto/pkg/stats"
)

const defaultDataPath = "output/matched_conversations.json"

var rootCmd = &cobra.Command{
	Use:   "esperanto",
	Short: "Explore the Esperanto conversation-matching dataset",
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newParticipantsCmd())
	rootCmd.AddCommand(newExportCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "esperanto: %v\n", err)
		os.Exit(1)
	}
}

// filterOpts carries the filter flags shared by every subcommand.
type filterOpts struct {
	folder      string
	method      string
	confidence  string
	participant string
	dateFrom    string
	dateTo      string
}

func addFilterFlags(cmd *cobra.Command, opts *filterOpts) {
	flags := cmd.Flags()
	flags.StringVar(&opts.folder, "folder", "", "restrict to one study folder")
	flags.StringVar(&opts.method, "method", "", "restrict to one match method")
	flags.StringVar(&opts.confidence, "confidence", "", "restrict to a confidence bucket (high, medium, low)")
	flags.StringVar(&opts.participant, "participant", "", "restrict to one participant ID")
	flags.StringVar(&opts.dateFrom, "from", "", "inclusive start date (YYYY-MM-DD)")
	flags.StringVar(&opts.dateTo, "to", "", "inclusive end date (YYYY-MM-DD)")
}

func (o filterOpts) spec() query.FilterSpec {
	return query.NewFilterBuilder().
		Folder(o.folder).
		MatchMethod(o.method).
		ConfidenceBucket(o.confidence).
		ParticipantID(o.participant).
		DateRange(o.dateFrom, o.dateTo).
		Build()
}

// loadStore loads the dataset from a local path or an http(s) URL.
func loadStore(ctx context.Context, store *dataset.Store, source string) error {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return store.LoadURL(ctx, source)
	}
	return store.LoadFile(source)
}

func newServeCmd() *cobra.Command {
	var (
		addr     string
		data     string
		logLevel string
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the dataset and serve the viewer API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.InitGlobalLogger(logger.Config{Level: logLevel, Pretty: pretty})
			log := logger.GetGlobalLogger()
			m := metrics.NewMetrics()

			log.LogServerStart(addr, data)

			store := dataset.NewStore()
			start := time.Now()
			err := loadStore(cmd.Context(), store, data)
			m.RecordDatasetLoad(store.Len(), time.Since(start), err)
			log.LogDatasetLoad(data, store.Len(), time.Since(start), err)
			if err != nil {
				log.Error(dataset.RemediationMessage).Send()
				return err
			}

			stopUptime := m.StartUptimeUpdater(15 * time.Second)
			defer close(stopUptime)

			srv := server.New(addr, store, log, m)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigChan
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()

			log.LogServerReady(addr, store.Len())
			return srv.Start()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":8080", "listen address")
	flags.StringVar(&data, "data", defaultDataPath, "dataset file path or URL")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.BoolVar(&pretty, "pretty", false, "force console log formatting")

	return cmd
}

func newStatsCmd() *cobra.Command {
	var (
		data string
		opts filterOpts
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dataset overview statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := dataset.NewStore()
			if err := loadStore(cmd.Context(), store, data); err != nil {
				return fmt.Errorf("%v\n%s", err, dataset.RemediationMessage)
			}

			subset := store.Filter(opts.spec())
			m := stats.Overview(subset)
			s := stats.CalculateStats(subset)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Dataset: %s\n\n", data)
			fmt.Fprintf(out, "Conversations:  %d of %d (after filters)\n", len(subset), store.Len())
			fmt.Fprintf(out, "Matched:        %d (%.1f%%)\n", m.MatchedConversations, m.MatchedPercent)
			fmt.Fprintf(out, "Participants:   %d (%.1f convs each)\n", m.UniqueParticipants, m.AvgConversationsPerParticipant)
			fmt.Fprintf(out, "Folders:        %d (%.1f convs each)\n", m.UniqueFolders, m.AvgConversationsPerFolder)
			fmt.Fprintf(out, "Messages:       %d user / %d assistant\n", m.TotalUserMessages, m.TotalAssistantMessages)
			fmt.Fprintf(out, "High confidence (>=0.80): %d (%.1f%%)\n", m.HighConfidenceCount, m.HighConfidencePercent)

			fmt.Fprintf(out, "\nMatch methods:\n")
			methods := make([]string, 0, len(s.MatchMethods))
			for method := range s.MatchMethods {
				methods = append(methods, method)
			}
			sort.Slice(methods, func(i, j int) bool {
				return s.MatchMethods[methods[i]] > s.MatchMethods[methods[j]]
			})
			for _, method := range methods {
				fmt.Fprintf(out, "  %-30s %d\n", method, s.MatchMethods[method])
			}

			fmt.Fprintf(out, "\nConfidence tiers:\n")
			for _, tier := range stats.ConfidenceTiers(subset) {
				fmt.Fprintf(out, "  %-25s %5d  (%.1f%%)\n", tier.Tier, tier.Count, tier.Percent)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", defaultDataPath, "dataset file path or URL")
	addFilterFlags(cmd, &opts)
	return cmd
}

func newParticipantsCmd() *cobra.Command {
	var (
		data  string
		limit int
		opts  filterOpts
	)

	cmd := &cobra.Command{
		Use:   "participants",
		Short: "List participant roll-ups sorted by activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := dataset.NewStore()
			if err := loadStore(cmd.Context(), store, data); err != nil {
				return fmt.Errorf("%v\n%s", err, dataset.RemediationMessage)
			}

			summaries := stats.BuildParticipantSummary(store.Filter(opts.spec()))
			if limit > 0 && limit < len(summaries) {
				summaries = summaries[:limit]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PARTICIPANT\tCONVS\tUSER MSGS\tASSISTANT MSGS\tAVG CONF\tFOLDERS\tFIRST SEEN\tLAST SEEN")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\t%s\t%s\t%s\n",
					s.ParticipantID,
					s.ConversationCount,
					s.TotalUserMessages,
					s.TotalAssistantMessages,
					s.AvgConfidence,
					strings.Join(s.Folders, ","),
					s.FirstSeen,
					s.LastSeen,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&data, "data", defaultDataPath, "dataset file path or URL")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to print (0 for all)")
	addFilterFlags(cmd, &opts)
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		data string
		out  string
		opts filterOpts
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the (filtered) dataset as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := dataset.NewStore()
			if err := loadStore(cmd.Context(), store, data); err != nil {
				return fmt.Errorf("%v\n%s", err, dataset.RemediationMessage)
			}

			subset := store.Filter(opts.spec())
			csvData, err := export.ToCSV(subset)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				fmt.Fprint(cmd.OutOrStdout(), csvData)
				return nil
			}
			if err := os.WriteFile(out, []byte(csvData), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d records to %s\n", len(subset), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", defaultDataPath, "dataset file path or URL")
	cmd.Flags().StringVar(&out, "out", "-", "output file path (- for stdout)")
	addFilterFlags(cmd, &opts)
	return cmd
}
