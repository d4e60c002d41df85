package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/database"
	"github.com/lidtrainer/examcore/internal/logger"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/lidtrainer/examcore/internal/repository"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/lidtrainer/examcore/internal/validator"
)

func main() {
	file := flag.String("file", "", "JSON file with an array of questions")
	publish := flag.Bool("publish", false, "Publish questions that declare no status")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	if *file == "" {
		fmt.Println("Usage: seed-questions -file catalog.json [-publish]")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read catalog")
	}

	var req model.ImportQuestionsRequest
	if err := json.Unmarshal(raw, &req.Questions); err != nil {
		log.Fatal().Err(err).Msg("Catalog is not a JSON array of questions")
	}
	for i := range req.Questions {
		if *publish && req.Questions[i].Status == "" {
			req.Questions[i].Status = string(model.QuestionStatusPublished)
		}
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		for field, msg := range validator.TranslateErrors(err) {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		log.Fatal().Msg("Catalog failed validation, nothing imported")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	aliases := composition.NewAliasResolver(slices.Concat(composition.DefaultAliasGroups, cfg.ProviderAliases)...)
	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), aliases, nil, log)

	fmt.Printf("=== Importing %d questions from %s ===\n", len(req.Questions), *file)

	res, err := questionService.Import(ctx, req.Questions)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed, nothing imported")
	}

	fmt.Printf("\nSeed completed! Imported %d questions.\n", res.Imported)
	fmt.Println("Run `examcheck readiness` to see which exams can now be assembled.")
}
