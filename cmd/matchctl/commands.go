package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/circlematch-api/internal/matching"
	"github.com/noah-isme/circlematch-api/internal/models"
	"github.com/noah-isme/circlematch-api/internal/repository"
	"github.com/noah-isme/circlematch-api/internal/service"
	"github.com/noah-isme/circlematch-api/pkg/config"
	"github.com/noah-isme/circlematch-api/pkg/database"
)

type matchFlags struct {
	maxLength int
	maxCycles int
	timeout   time.Duration
}

func (f matchFlags) matcher() *matching.Matcher {
	return matching.New(matching.Options{MaxLength: f.maxLength, MaxCycles: f.maxCycles, Timeout: f.timeout})
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Operator tooling for CircleMatch transfer cycles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newComputeCmd(), newSimulateCmd())
	return root
}

func bindMatchFlags(cmd *cobra.Command, flags *matchFlags) {
	cmd.Flags().IntVar(&flags.maxLength, "max-length", 6, "longest cycle to search for")
	cmd.Flags().IntVar(&flags.maxCycles, "max-cycles", 0, "stop after this many cycles (0 means unlimited)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "search time budget")
}

func newComputeCmd() *cobra.Command {
	var (
		flags matchFlags
		year  int
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the transfer cycles of a year from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if year <= 0 {
				year = cfg.Matching.ActiveYear
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := database.NewPostgres(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			snapshot, err := repository.NewTeacherRepository(db, nil).Snapshot(ctx, year)
			if err != nil {
				return fmt.Errorf("snapshot year %d: %w", year, err)
			}
			return printMatchSet(cmd.OutOrStdout(), service.BuildMatchSet(ctx, flags.matcher(), snapshot))
		},
	}
	bindMatchFlags(cmd, &flags)
	cmd.Flags().IntVar(&year, "year", 0, "ROC year (defaults to MATCH_ACTIVE_YEAR)")
	return cmd
}

// simulatedTeacher is one entry of a simulation file. JSON files parse as YAML.
type simulatedTeacher struct {
	ID              int64    `yaml:"id"`
	CurrentCounty   string   `yaml:"current_county"`
	CurrentDistrict string   `yaml:"current_district"`
	CurrentSchool   string   `yaml:"current_school"`
	Subject         string   `yaml:"subject"`
	TargetCounties  []string `yaml:"target_counties"`
	TargetDistricts []string `yaml:"target_districts"`
}

type simulationFile struct {
	Year     int                `yaml:"year"`
	Teachers []simulatedTeacher `yaml:"teachers"`
}

func loadSimulation(r io.Reader) (*models.RegistrySnapshot, error) {
	var file simulationFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode simulation: %w", err)
	}

	explicit := make(map[int64]int, len(file.Teachers))
	for i, entry := range file.Teachers {
		if entry.ID < 0 {
			return nil, fmt.Errorf("teacher %d: id must be positive", i+1)
		}
		if entry.ID == 0 {
			continue
		}
		if first, dup := explicit[entry.ID]; dup {
			return nil, fmt.Errorf("teachers %d and %d share id %d", first+1, i+1, entry.ID)
		}
		explicit[entry.ID] = i
	}

	// Entries without an id take the lowest ids no other entry claims.
	var nextID int64
	snapshot := &models.RegistrySnapshot{Year: file.Year, Teachers: make([]models.Teacher, 0, len(file.Teachers))}
	for _, entry := range file.Teachers {
		id := entry.ID
		if id == 0 {
			for {
				nextID++
				if _, taken := explicit[nextID]; !taken {
					break
				}
			}
			id = nextID
		}
		teacher := models.Teacher{
			ID:              id,
			Year:            file.Year,
			CurrentCounty:   strings.TrimSpace(entry.CurrentCounty),
			CurrentDistrict: strings.TrimSpace(entry.CurrentDistrict),
			CurrentSchool:   entry.CurrentSchool,
			Subject:         entry.Subject,
			TargetCounties:  entry.TargetCounties,
			TargetDistricts: entry.TargetDistricts,
		}
		teacher.Finalize()
		snapshot.Teachers = append(snapshot.Teachers, teacher)
	}
	return snapshot, nil
}

func newSimulateCmd() *cobra.Command {
	var (
		flags matchFlags
		path  string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the matcher over a YAML or JSON list of teachers",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck

			snapshot, err := loadSimulation(f)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return printMatchSet(cmd.OutOrStdout(), service.BuildMatchSet(ctx, flags.matcher(), snapshot))
		},
	}
	bindMatchFlags(cmd, &flags)
	cmd.Flags().StringVarP(&path, "file", "f", "", "teachers file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printMatchSet(w io.Writer, set *models.MatchSet) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSCORE\tID\tCHAIN")
	for _, result := range set.Results {
		chain := make([]string, 0, len(result.Teachers))
		for _, teacher := range result.Teachers {
			chain = append(chain, teacher.DisplayID)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", result.MatchType, result.RankScore, result.ID, strings.Join(chain, " -> "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nyear=%d teachers=%d participants=%d edges=%d cycles=%d duration=%dms\n",
		set.Year, set.Stats.Teachers, set.Stats.Participants, set.Stats.Edges, set.Stats.Cycles, set.Stats.DurationMs)
	if set.Truncated {
		fmt.Fprintf(w, "truncated: %s\n", set.TruncatedReason)
	}
	return nil
}
