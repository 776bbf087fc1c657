package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/logging"
	"github.com/mind-engage/mindengage-examsim/internal/storage"
)

func main() {
	dir := flag.String("bank", "./data/bank", "Directory holding the question collection files")
	manifestPath := flag.String("manifest", "", "YAML manifest of collection files (default: built-in layout)")
	mode := flag.String("mode", "sectioned", "Exam mode: sectioned or single")
	typ := flag.String("type", "", "Question type for single mode: analogy, completion, error, rc, odd")
	rcOrder := flag.String("rc-order", "sequential", "Reading comprehension order: sequential or random")
	shuffleQ := flag.Bool("shuffle-questions", false, "Shuffle questions within each type")
	shuffleC := flag.Bool("shuffle-choices", false, "Shuffle answer choices")
	seed := flag.Int64("seed", 0, "Random seed (0: time based)")
	stats := flag.Bool("stats", false, "Print pool sizes and exit")
	level := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	log, err := logging.New(*level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	fs, err := storage.NewFSStore(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bank: %v\n", err)
		os.Exit(1)
	}
	manifest, err := bank.LoadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	pools := bank.Build(context.Background(), fs, manifest, log)

	if *stats {
		writeJSON(map[string]any{"total": pools.Total(), "pools": pools.Sizes()})
		return
	}

	opts := []exam.Option{exam.WithLogger(log)}
	if *seed != 0 {
		opts = append(opts, exam.WithSeed(*seed))
	}
	gen := exam.NewGenerator(pools, opts...)

	cfg := exam.Config{
		ShuffleQuestions: *shuffleQ,
		ShuffleChoices:   *shuffleC,
		ExamMode:         exam.Mode(*mode),
		RCQuestionOrder:  exam.RCOrder(*rcOrder),
	}
	if *typ != "" {
		cfg.QuestionTypeFilter = exam.FilterSpecific
		cfg.SelectedQuestionType = bank.QuestionType(*typ)
	}

	ex, err := gen.Generate(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(ex.Questions) == 0 {
		log.Warn("generated exam is empty", zap.String("bank", *dir))
	}
	writeJSON(ex)
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}
