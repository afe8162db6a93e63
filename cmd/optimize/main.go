// CMA-ES search for clustering parameters that keep cluster identities and
// color slots stable.
//
// Usage: go run ./cmd/optimize -output out/opt
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/ahammer/metalrain/config"
)

// progress tracks evaluations, keeps the best clamped vector seen, and
// mirrors every evaluation into optimize_log.csv.
type progress struct {
	params   *ParamVector
	log      *csv.Writer
	maxEvals int
	started  time.Time

	evals     int
	bestScore float64
	bestRaw   []float64
}

func newProgress(params *ParamVector, logFile *os.File, maxEvals int) *progress {
	w := csv.NewWriter(logFile)
	header := []string{"eval", "score"}
	for _, s := range params.Specs {
		header = append(header, s.Name)
	}
	w.Write(header)
	w.Flush()

	return &progress{
		params:    params,
		log:       w,
		maxEvals:  maxEvals,
		started:   time.Now(),
		bestScore: 1e9,
	}
}

// observe records one scored evaluation of unit-cube point x.
func (p *progress) observe(x []float64, score float64) {
	p.evals++
	clamped := p.params.Clamp(p.params.Denormalize(x))

	if score < p.bestScore {
		p.bestScore = score
		p.bestRaw = clamped
	}

	row := []string{strconv.Itoa(p.evals), fmt.Sprintf("%.6f", score)}
	for _, v := range clamped {
		row = append(row, fmt.Sprintf("%.6f", v))
	}
	p.log.Write(row)
	p.log.Flush()

	elapsed := time.Since(p.started)
	eta := time.Duration(p.maxEvals-p.evals) * (elapsed / time.Duration(p.evals))
	fmt.Printf("Eval %d/%d: churn=%.3f/window (best=%.3f) | elapsed %s, ETA %s\n",
		p.evals, p.maxEvals, score, p.bestScore,
		elapsed.Round(time.Second), eta.Round(time.Second))
}

func main() {
	configPath := flag.String("config", "", "Starting config YAML (empty = built-in defaults)")
	maxTicks := flag.Int("max-ticks", 7200, "Simulation length per run in ticks")
	seeds := flag.Int("seeds", 3, "Seeds averaged per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Evaluation budget")
	population := flag.Int("population", 0, "CMA-ES population (0 = derive from dimension)")
	outputDir := flag.String("output", "", "Directory for the search log and best config")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("-output is required")
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("creating output dir: %v", err)
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := newStabilityEvaluator(params, int32(*maxTicks), evalSeeds)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		log.Fatalf("creating eval log: %v", err)
	}
	defer logFile.Close()
	prog := newProgress(params, logFile, *maxEvals)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			score := evaluator.Evaluate(params.Denormalize(x))
			prog.observe(x, score)
			return score
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential: runs share the live config
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("CMA-ES over %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, *maxEvals)
	fmt.Printf("Each evaluation: %d seeds x %d ticks\n", *seeds, *maxTicks)

	initX := params.Normalize(params.DefaultVector())
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("search stopped early: %v", err)
	}

	// The best point can come from any evaluation, not just the last.
	best := prog.bestRaw
	if best == nil {
		best = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nDone after %d evaluations in %s\n",
		prog.evals, time.Since(prog.started).Round(time.Second))
	fmt.Printf("Best score: %.3f\n", prog.bestScore)
	fmt.Println("Best parameters:")
	for i, s := range params.Specs {
		fmt.Printf("  %s: %.6f\n", s.Path, best[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("reloading config: %v", err)
	}
	params.ApplyToConfig(bestCfg, best)

	outPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(outPath); err != nil {
		log.Printf("writing best config: %v", err)
	} else {
		fmt.Printf("Best config saved to: %s\n", outPath)
	}
}
