// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the ldig-go commandline interface.

ldig-go identifies the language of short text snippets using a sparse
multinomial logistic regression model trained over maximal-substring
features, addressed through a double-array trie. It has no server mode:
every invocation is a single batch pass over a model and/or corpus file.

# Modes

--init trains a fresh model from a labeled TSV corpus (label, then a
tab, then text). --detection (the default when no other mode flag is
given) scores a file or stdin against an existing model. --shrink prunes
near-zero-weight features from a trained model. --dump lists every
feature string a model knows. --cv runs stratified cross-validation over
a labeled corpus. --maxsubst is a debug mode that prints the
maximal-substring features of a raw text file without touching a model.

# Config

Runtime configuration is managed via a `config.toml` file (learner
constants, detection heuristics, corpus options). A default is created
automatically if one does not exist.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/stat"

	"github.com/nakatani/ldig-go/internal/config"
	"github.com/nakatani/ldig-go/internal/corpus"
	"github.com/nakatani/ldig-go/internal/features"
	"github.com/nakatani/ldig-go/internal/learner"
	"github.com/nakatani/ldig-go/internal/logger"
	"github.com/nakatani/ldig-go/internal/maxsubst"
	"github.com/nakatani/ldig-go/internal/normalize"
	"github.com/nakatani/ldig-go/internal/report"
	"github.com/nakatani/ldig-go/pkg/model"
)

// logg returns this package's logger, built fresh per call so it always
// reflects the current global log level (internal/logger.Default).
func logg() *log.Logger { return logger.Default(AppName) }

const (
	Version = "0.1.0"
	AppName = "ldig-go"
	gh      = "https://github.com/nakatani/ldig-go"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main parses flags and dispatches to the selected mode. main() does
// not implement mode logic itself and only manages the flow.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("v", false, "Toggle verbose mode")
	configFile := flag.String("config", "", "Path to custom config.toml file")

	modelPath := flag.String("m", "ldig.model", "Path to the model file")
	outputPath := flag.String("o", "", "Output path (mode-dependent)")

	initMode := flag.Bool("init", false, "Train a fresh model from a labeled corpus")
	shrinkMode := flag.Bool("shrink", false, "Prune near-zero-weight features from an existing model")
	dumpMode := flag.Bool("dump", false, "Dump every feature string in a model, one per line")
	cvMode := flag.Bool("cv", false, "Run stratified cross-validation over a labeled corpus")
	maxsubstMode := flag.Bool("maxsubst", false, "Debug: print the maximal-substring features of a raw text file")

	featureFreq := flag.Int("ff", 0, "Minimum frequency (left-extension count + 1) for a candidate feature (0 = config default)")
	eta := flag.Float64("e", 0, "SGD learning rate (0 = config default)")
	reg := flag.Float64("r", -1, "L1 regularization strength (negative = config default)")
	cvFolds := flag.Int("cvn", 5, "Number of cross-validation folds")
	cvTrials := flag.Int("cvt", 2, "Number of cross-validation trials")
	margin := flag.Float64("margin", 0, "Detection-time confidence margin threshold: only lines whose top-minus-second-best probability is <= margin are reported (0 disables)")
	corpusDB := flag.String("corpus-db", "", "SQLite DSN to read the corpus from instead of a TSV file (overrides config corpus.sqlite_dsn)")
	corpusQuery := flag.String("corpus-query", "SELECT label, text FROM corpus", "SQL query selecting (label, text) rows for --corpus-db")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.InitConfig(configPath)
	if err != nil {
		logg().Fatalf("loading config: %v", err)
	}
	if *featureFreq > 0 {
		cfg.FeatureFreq = *featureFreq
	}
	if *eta > 0 {
		cfg.Eta = *eta
	}
	if *reg >= 0 {
		cfg.Reg = *reg
	}

	args := flag.Args()

	switch {
	case *initMode:
		runInit(cfg, *modelPath, *outputPath, args, *corpusDB, *corpusQuery)
	case *shrinkMode:
		runShrink(cfg, *modelPath, *outputPath)
	case *dumpMode:
		runDump(*modelPath, *outputPath)
	case *maxsubstMode:
		runMaxsubst(args, *outputPath)
	case *cvMode:
		runCV(cfg, args, *cvFolds, *cvTrials, *corpusDB, *corpusQuery)
	default:
		runDetect(*modelPath, args, *margin, cfg, *corpusDB, *corpusQuery)
	}
}

// printVersion shows a styled banner, mirroring how the rest of this
// codebase's CLI entrypoints report their version.
func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ldig-go] Short-text language identification")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use --help to see available options")
	logger.Print("")
	logger.Print("Find out more at", "gh", gh)
}

// runInit trains a fresh model: discover labels, extract candidate
// features from the concatenated corpus text, train for
// cfg.Train.InitEpochs epochs, then save the model plus its msgpack
// training report (spec.md §4.4 "Training driver"). The corpus is read
// from corpusPath, unless corpusDB (or the config's corpus.sqlite_dsn)
// names a SQLite database to query instead.
func runInit(cfg *config.Config, modelPath, outputPath string, args []string, corpusDB, corpusQuery string) {
	dsn := corpusDB
	if dsn == "" {
		dsn = cfg.Corpus.SQLiteDSN
	}
	if outputPath == "" {
		outputPath = modelPath
	}

	var labels []string
	var text []int32
	var corpusPath string
	var err error

	if dsn != "" {
		labels, text, err = corpus.PrepareSQLite(dsn, corpusQuery)
		if err != nil {
			logg().Fatalf("reading corpus db: %v", err)
		}
		logg().Infof("discovered %d labels from %s", len(labels), dsn)
	} else {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: ldig-go --init [-o model] <corpus.tsv>")
			os.Exit(1)
		}
		corpusPath = args[0]
		labels, text, err = corpus.Prepare(corpusPath)
		if err != nil {
			logg().Fatalf("reading corpus: %v", err)
		}
		logg().Infof("discovered %d labels from %s", len(labels), corpusPath)
	}

	candidates, nodeNum, err := maxsubst.Extract(text, cfg.FeatureFreq)
	if err != nil {
		logg().Fatalf("extracting features: %v", err)
	}
	logg().Infof("esa nodes: %d, candidate features: %d", nodeNum, len(candidates))

	fset := features.New(text, candidatesToFeatures(candidates))
	m := model.New(labels, fset)

	var trainCorpus learner.Corpus
	if dsn != "" {
		trainCorpus, err = corpus.LoadSQLiteDocuments(dsn, corpusQuery, m)
	} else {
		trainCorpus, err = corpus.LoadFile(corpusPath, m)
	}
	if err != nil {
		logg().Fatalf("building training events: %v", err)
	}

	state := learner.NewState(m, &cfg.Train)
	rep := &report.Training{Labels: labels}

	state.RunTraining(trainCorpus, cfg.Train.InitEpochs, cfg.Eta, cfg.Reg, func(epoch int, stats learner.EpochStats) {
		correct, total := sumInts(stats.Correct), sumInts(stats.Total)
		epochEta := cfg.Eta * math.Pow(cfg.Train.EtaDecay, float64(epoch))
		logg().Infof("epoch %d: %d/%d correct, logL=%.2f, features=%d", epoch, correct, total, stats.LogLikelihood, m.M)
		rep.Add(report.FromStats(epoch, stats, m.M, epochEta))
	})

	if err := m.Save(outputPath); err != nil {
		logg().Fatalf("saving model: %v", err)
	}
	logg().Infof("saved model to %s", outputPath)

	if err := report.WriteFile(outputPath+".report.msgpack", rep); err != nil {
		logg().Warnf("writing training report: %v", err)
	}
}

// runShrink prunes near-zero-weight features from an existing model.
func runShrink(cfg *config.Config, modelPath, outputPath string) {
	m, err := model.Load(modelPath)
	if err != nil {
		logg().Fatalf("loading model: %v", err)
	}
	before := m.M

	state := learner.NewState(m, &cfg.Train)
	kept := state.Prune()
	logg().Infof("shrink: %d -> %d features", before, kept)

	if outputPath == "" {
		outputPath = modelPath
	}
	if err := m.Save(outputPath); err != nil {
		logg().Fatalf("saving model: %v", err)
	}
}

// runDump lists every feature string a model knows, one per line.
func runDump(modelPath, outputPath string) {
	m, err := model.Load(modelPath)
	if err != nil {
		logg().Fatalf("loading model: %v", err)
	}

	out, closeOut := openOutput(outputPath)
	defer closeOut()
	w := bufio.NewWriter(out)
	defer w.Flush()
	for i := 0; i < m.M; i++ {
		fmt.Fprintln(w, m.Features.FeatureString(i))
	}
}

// runMaxsubst is the debug entrypoint mirroring ldig.cpp's
// maxsubstring(): it runs the maximal-substring extractor over a raw
// text file without involving a model at all.
func runMaxsubst(args []string, outputPath string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ldig-go --maxsubst <input.txt>")
		os.Exit(1)
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		logg().Fatalf("reading input: %v", err)
	}

	text := toInt32(normalize.Text(string(raw)))
	candidates, nodeNum, err := maxsubst.Extract(text, 2)
	if err != nil {
		logg().Fatalf("extracting substrings: %v", err)
	}
	logg().Infof("esa nodes: %d, candidates: %d", nodeNum, len(candidates))

	out, closeOut := openOutput(outputPath)
	defer closeOut()
	w := bufio.NewWriter(out)
	defer w.Flush()
	for _, c := range candidates {
		fmt.Fprintf(w, "%d\t%s\n", c.Count, string(text[c.Begin:c.Begin+c.Len]))
	}
}

// runDetect scores every line of args[0] (or stdin) against modelPath,
// printing "score\tlabel\tline", unless corpusDB (or the config's
// corpus.sqlite_dsn) names a SQLite database to stream (label, text)
// rows from instead. margin, if positive, restricts output to the
// ambiguous lines whose top-minus-second-best probability is <= margin
// (spec.md §6, ldig.cpp:207-208), rather than the confident ones. Lines
// carrying a recognized label also contribute to an accuracy/
// log-likelihood summary logged at the end.
func runDetect(modelPath string, args []string, margin float64, cfg *config.Config, corpusDB, corpusQuery string) {
	m, err := model.Load(modelPath)
	if err != nil {
		logg().Fatalf("loading model: %v", err)
	}

	probs := make([]float64, m.K)
	correct := make([]int, m.K)
	total := make([]int, m.K)
	var logLikelihood float64

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	score := func(label, body, display string, hasLabel bool) {
		runes := normalize.Text(body)
		if len(runes) <= 2 {
			return // sentinel-only: empty line
		}
		text := toInt32(runes)

		events := map[int]int{}
		m.Trie.ExtractFeatures(events, text)
		if margin > 0 && len(events) < cfg.Detect.MinEventsForMargin {
			return
		}

		predicted := learner.Predict(probs, m, events)
		top := probs[predicted]
		if margin > 0 && top-secondBest(probs, predicted) > margin {
			return
		}

		if hasLabel {
			if k, ok := m.LabelIndex(label); ok {
				total[k]++
				if predicted == k {
					correct[k]++
				}
				logLikelihood -= math.Log(learner.ClampProb(probs[k]))
			}
		}

		fmt.Fprintf(w, "%.4f\t%s\t%s\n", top, m.Labels[predicted], display)
	}

	dsn := corpusDB
	if dsn == "" {
		dsn = cfg.Corpus.SQLiteDSN
	}

	if dsn != "" {
		err := corpus.ScanSQLite(dsn, corpusQuery, func(label, body string) error {
			score(label, body, label+"\t"+body, label != "")
			return nil
		})
		if err != nil {
			logg().Fatalf("scanning corpus db: %v", err)
		}
	} else {
		in := os.Stdin
		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				logg().Fatalf("opening input: %v", err)
			}
			defer f.Close()
			in = f
		}

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			label, body, hasLabel := corpus.ExtractLabel(m, line)
			raw := line
			if hasLabel {
				raw = body
			}
			score(label, raw, line, hasLabel)
		}
		if err := scanner.Err(); err != nil {
			logg().Errorf("reading input: %v", err)
		}
	}

	labeled := sumInts(total) > 0
	if labeled {
		w.Flush()
		for k, label := range m.Labels {
			if total[k] == 0 {
				continue
			}
			logg().Infof("%s: %d/%d correct", label, correct[k], total[k])
		}
		logg().Infof("negative log-likelihood: %.4f", logLikelihood)
	}
}

// runCV runs stratified cross-validation: the corpus's global maximal
// substrings are discovered once, then for each trial the per-label
// documents are partitioned into `folds` groups; each fold trains a
// fresh model on the rest and is scored on the held-out fold. The
// corpus is read from args[0], unless corpusDB (or the config's
// corpus.sqlite_dsn) names a SQLite database to query instead.
func runCV(cfg *config.Config, args []string, folds, trials int, corpusDB, corpusQuery string) {
	dsn := corpusDB
	if dsn == "" {
		dsn = cfg.Corpus.SQLiteDSN
	}

	var labels []string
	var text []int32
	var err error

	if dsn != "" {
		labels, text, err = corpus.PrepareSQLite(dsn, corpusQuery)
		if err != nil {
			logg().Fatalf("reading corpus db: %v", err)
		}
	} else {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: ldig-go --cv <corpus.tsv>")
			os.Exit(1)
		}
		labels, text, err = corpus.Prepare(args[0])
		if err != nil {
			logg().Fatalf("reading corpus: %v", err)
		}
	}

	candidates, _, err := maxsubst.Extract(text, cfg.FeatureFreq)
	if err != nil {
		logg().Fatalf("extracting features: %v", err)
	}
	fset := features.New(text, candidatesToFeatures(candidates))

	base := model.New(labels, fset)
	var fullCorpus learner.Corpus
	if dsn != "" {
		fullCorpus, err = corpus.LoadSQLiteDocuments(dsn, corpusQuery, base)
	} else {
		fullCorpus, err = corpus.LoadFile(args[0], base)
	}
	if err != nil {
		logg().Fatalf("building cv events: %v", err)
	}

	var accuracies []float64
	for trial := 0; trial < trials; trial++ {
		assignment := stratifiedFolds(fullCorpus, folds, int64(trial))
		for fold := 0; fold < folds; fold++ {
			trainSet, testSet := splitByFold(fullCorpus, assignment, fold)

			m := model.New(labels, fset)
			state := learner.NewState(m, &cfg.Train)
			state.RunTraining(trainSet, cfg.Train.CVEpochs, cfg.Eta, cfg.Reg, nil)

			stats := learner.Likelihood(m, testSet)
			total := sumInts(stats.Total)
			if total == 0 {
				continue
			}
			acc := float64(sumInts(stats.Correct)) / float64(total)
			accuracies = append(accuracies, acc)
			logg().Infof("trial %d fold %d: accuracy=%.4f (%d/%d)", trial, fold, acc, sumInts(stats.Correct), total)
		}
	}

	if len(accuracies) == 0 {
		logg().Warn("cv: no fold produced evaluable data")
		return
	}
	mean := stat.Mean(accuracies, nil)
	stddev := stat.StdDev(accuracies, nil)
	logg().Infof("cv summary: mean accuracy=%.4f, stddev=%.4f over %d fold runs", mean, stddev, len(accuracies))
}

// stratifiedFolds assigns each document in every label bucket to one of
// `folds` groups independently, so every fold gets a proportional share
// of every label rather than an arbitrary global split.
func stratifiedFolds(c learner.Corpus, folds int, seed int64) [][]int {
	rng := rand.New(rand.NewSource(seed))
	assignment := make([][]int, len(c))
	for k, docs := range c {
		perm := rng.Perm(len(docs))
		assignment[k] = make([]int, len(docs))
		for rank, docIdx := range perm {
			assignment[k][docIdx] = rank % folds
		}
	}
	return assignment
}

func splitByFold(c learner.Corpus, assignment [][]int, fold int) (train, test learner.Corpus) {
	train = make(learner.Corpus, len(c))
	test = make(learner.Corpus, len(c))
	for k, docs := range c {
		for i, doc := range docs {
			if assignment[k][i] == fold {
				test[k] = append(test[k], doc)
			} else {
				train[k] = append(train[k], doc)
			}
		}
	}
	return train, test
}

func candidatesToFeatures(cands []maxsubst.Candidate) []features.Feature {
	out := make([]features.Feature, len(cands))
	for i, c := range cands {
		out[i] = features.Feature{Begin: c.Begin, Len: c.Len}
	}
	return out
}

func toInt32(rs []rune) []int32 {
	out := make([]int32, len(rs))
	for i, r := range rs {
		out[i] = int32(r)
	}
	return out
}

func sumInts(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	return s
}

func secondBest(probs []float64, exclude int) float64 {
	second := 0.0
	for i, p := range probs {
		if i == exclude {
			continue
		}
		if p > second {
			second = p
		}
	}
	return second
}

func openOutput(path string) (*os.File, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		logg().Fatalf("creating output %s: %v", path, err)
	}
	return f, func() { f.Close() }
}
