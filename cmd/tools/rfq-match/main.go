// Package main implements rfq-match, which runs the matching core over a
// JSON dataset without Zeebe or any database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/matching/cache"
	"rfq-workers/internal/matching/compatibility"
	"rfq-workers/internal/matching/engine"
	"rfq-workers/internal/matching/guidance"
	"rfq-workers/internal/matching/partnership"
	"rfq-workers/internal/matching/scoring"
	"rfq-workers/internal/matching/service"
	"rfq-workers/internal/models"
	"rfq-workers/internal/repository/memory"
	"rfq-workers/internal/workers/rfq"
	"rfq-workers/pkg/registry"
)

var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// Dataset is the file format read by --data.
type Dataset struct {
	Candidates     []models.Candidate   `json:"candidates"`
	Opportunities  []models.Opportunity `json:"opportunities"`
	Collaborations []Collaboration      `json:"collaborations,omitempty"`
}

type Collaboration struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

type rootOptions struct {
	dataPath string
	logLevel string
	out      io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	cmd := &cobra.Command{
		Use:   "rfq-match",
		Short: "Run RFQ matching over a JSON dataset",
		Long: `rfq-match loads candidates, opportunities and past collaborations from a
JSON file and runs the same matching service the workers use, printing JSON.

Examples:
  # Rank candidates and propose partnerships for one opportunity
  rfq-match process opp-42 --data dataset.json

  # Best open opportunities for a business
  rfq-match match biz-7 --limit 5 --min-score 60 --data dataset.json

  # Pricing, themes and timeline for one pair
  rfq-match guidance biz-7 opp-42 --data dataset.json

  # Fail if the committed job registry no longer matches the workers
  rfq-match tasks --check configs/activity-registry.json`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&opts.dataPath, "data", "dataset.json", "path to the JSON dataset")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newProcessCmd(opts))
	cmd.AddCommand(newMatchCmd(opts))
	cmd.AddCommand(newGuidanceCmd(opts))
	cmd.AddCommand(newFacilitateCmd(opts))
	cmd.AddCommand(newTasksCmd(opts))
	return cmd
}

func newProcessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process <opportunity-id>",
		Short: "Match an opportunity and propose partnerships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, opps, err := opts.build()
			if err != nil {
				return err
			}
			opp, err := opps.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			outcome, err := svc.ProcessOpportunity(cmd.Context(), opp)
			if err != nil {
				return err
			}
			svc.Wait()
			return writeJSON(opts.out, outcome)
		},
	}
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var matchOpts models.MatchOptions

	cmd := &cobra.Command{
		Use:   "match <candidate-id>",
		Short: "List the best open opportunities for a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.build()
			if err != nil {
				return err
			}
			matches, err := svc.MatchCandidate(cmd.Context(), args[0], matchOpts)
			if err != nil {
				return err
			}
			return writeJSON(opts.out, matches)
		},
	}
	cmd.Flags().IntVar(&matchOpts.Limit, "limit", engine.DefaultLimit, "maximum matches to return")
	cmd.Flags().Float64Var(&matchOpts.MinScore, "min-score", 0, "lowest overall score to include")
	return cmd
}

func newGuidanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "guidance <candidate-id> <opportunity-id>",
		Short: "Bid guidance for one candidate and opportunity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.build()
			if err != nil {
				return err
			}
			bundle, err := svc.GetBidGuidance(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(opts.out, bundle)
		},
	}
}

func newFacilitateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "facilitate <opportunity-id> <partnership-id>",
		Short: "Draft the introduction for a proposed partnership",
		Long: `Draft the introduction for a partnership proposed by "process". The
facilitation record is printed, not stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.build()
			if err != nil {
				return err
			}
			intro, rec, err := svc.FacilitatePartnership(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			svc.Wait()
			return writeJSON(opts.out, map[string]interface{}{
				"introduction": intro,
				"facilitation": rec,
			})
		},
	}
}

func newTasksCmd(opts *rootOptions) *cobra.Command {
	var writePath, checkPath string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Print, write or check the job type registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := rfq.Catalog()

			switch {
			case checkPath != "":
				committed, err := registry.LoadRegistry(checkPath)
				if err != nil {
					return fmt.Errorf("failed to load registry: %w", err)
				}
				if err := committed.Validate(); err != nil {
					return err
				}
				if drift := registry.Drift(committed, current); len(drift) > 0 {
					return fmt.Errorf("registry %s is stale:\n  %s", checkPath, strings.Join(drift, "\n  "))
				}
				fmt.Fprintf(opts.out, "registry %s is current (%d activities)\n", checkPath, len(committed.Activities))
				return nil

			case writePath != "":
				current.LastUpdated = time.Now().UTC().Format(time.RFC3339)
				if err := current.Save(writePath); err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "wrote %d activities to %s\n", len(current.Activities), writePath)
				return nil
			}
			return writeJSON(opts.out, current)
		},
	}
	cmd.Flags().StringVar(&writePath, "write", "", "write the registry to this path")
	cmd.Flags().StringVar(&checkPath, "check", "", "compare the registry at this path with the workers")
	cmd.MarkFlagsMutuallyExclusive("write", "check")
	return cmd
}

// build wires the matching service over in-memory repositories loaded from
// the dataset.
func (o *rootOptions) build() (*service.Service, *memory.OpportunityRepository, error) {
	ds, err := loadDataset(o.dataPath)
	if err != nil {
		return nil, nil, err
	}

	weights := scoring.MustDefaultWeights()

	log := logger.NewStructured(logger.Options{Level: o.logLevel, Format: "console", Output: "stderr"})

	businesses := memory.NewBusinessRepository(ds.Candidates...)
	opps := memory.NewOpportunityRepository(ds.Opportunities...)
	history := memory.NewCollaborationHistory()
	for _, c := range ds.Collaborations {
		history.Record(c.A, c.B, c.Score)
	}

	eng := engine.New(businesses, opps, cache.NewMemory(cache.DefaultTTL), log, engine.WithModel(scoring.NewModel(weights)))
	synth := partnership.NewSynthesizer(compatibility.NewEvaluator(history, log), weights, log)
	facilitator := partnership.NewFacilitator(memory.NewFacilitationStore(), nil, log)

	svc := service.New(eng, opps, synth, facilitator, guidance.NewGenerator(), nil, service.Options{}, log)
	return svc, opps, nil
}

func loadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return &ds, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
