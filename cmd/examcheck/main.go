package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/database"
	"github.com/lidtrainer/examcore/internal/logger"
	"github.com/lidtrainer/examcore/internal/repository"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"
)

func main() {
	asJSON := flag.Bool("json", false, "Always print JSON")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Component(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), "examcheck")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis only refreshes cached reports; the check works without it.
	var rdb *redis.Client
	if client, err := database.NewRedisClient(ctx, cfg, log); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cached reports will not be refreshed")
	} else {
		rdb = client
		defer rdb.Close()
	}

	aliases := composition.NewAliasResolver(slices.Concat(composition.DefaultAliasGroups, cfg.ProviderAliases)...)
	resolver := composition.NewResolver(repository.NewQuestionRepository(pool), aliases, cfg.RepositoryTimeout)
	attemptRepo := repository.NewAttemptRepository(pool)
	examService := service.NewExamService(repository.NewExamRepository(pool), composition.NewValidator(resolver), rdb, cfg.ReadinessCacheTTL, log)
	maintenance := service.NewMaintenanceService(attemptRepo, examService, log)

	pretty := !*asJSON && term.IsTerminal(int(os.Stdout.Fd()))

	switch args[0] {
	case "readiness":
		var reports []*composition.ExamReport
		if len(args) > 1 {
			id, err := uuid.Parse(args[1])
			if err != nil {
				log.Fatal().Str("exam_id", args[1]).Msg("Invalid exam id")
			}
			report, err := examService.CheckByID(ctx, id)
			if err != nil {
				log.Fatal().Err(err).Msg("Readiness check failed")
			}
			reports = append(reports, report)
		} else {
			summary, err := maintenance.CheckAll(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("Readiness check failed")
			}
			reports = summary.Exams
		}

		if pretty {
			printReports(os.Stdout, reports)
		} else {
			printJSON(reports)
		}
		for _, r := range reports {
			if !r.Ready {
				os.Exit(1)
			}
		}

	case "repair-snapshots":
		res, err := maintenance.RepairSnapshots(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Snapshot repair failed")
		}
		if pretty {
			fmt.Printf("Orphaned items: %d\nRepaired items: %d\n", res.Orphaned, res.Repaired)
		} else {
			printJSON(res)
		}

	default:
		printUsage()
		os.Exit(2)
	}
}

func printReports(w io.Writer, reports []*composition.ExamReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXAM\tSTATUS\tSECTION\tKIND\tRESULT\tREQUIRED\tAVAILABLE\tDETAIL")
	for _, r := range reports {
		name := r.Title
		if name == "" {
			name = r.ExamID.String()
		}
		if len(r.Sections) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t%s\t-\t-\tno sections\n", name, r.Status, verdict(r.Ready))
			continue
		}
		for _, s := range r.Sections {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\t%d\t%s\n",
				name, r.Status, s.SectionIndex, s.Kind, s.Status, s.Required, s.Available, detail(s))
			name = ""
		}
	}
	tw.Flush()
}

func verdict(ready bool) string {
	if ready {
		return "ready"
	}
	return "not ready"
}

func detail(s *composition.SectionReport) string {
	var parts []string
	if s.Code != "" {
		parts = append(parts, s.Code)
	}
	if s.AvailableWithoutTags != nil {
		parts = append(parts, fmt.Sprintf("%d without tags", *s.AvailableWithoutTags))
	}
	if s.ProviderUnknown {
		parts = append(parts, composition.CodeProviderUnknown)
	}
	for _, f := range s.Failures {
		parts = append(parts, fmt.Sprintf("%s %s", f.Reason, f.QuestionID))
	}
	return strings.Join(parts, "; ")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printUsage() {
	fmt.Println("Usage: examcheck [flags] <command>")
	fmt.Println("Commands:")
	fmt.Println("  readiness [exam-id]   check whether exams can be assembled; exit 1 if any cannot")
	fmt.Println("  repair-snapshots      detach attempt items from deleted questions")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
