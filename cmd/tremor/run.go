package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tremor-rs/tremor"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/pipeline"
	"github.com/tremor-rs/tremor/pkg/types"
)

var (
	runEncoder       string
	runDecoder       string
	runPreProcessor  string
	runPostProcessor string
	runPort          string
	runInFile        string
	runOutFile       string
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT",
	Short: "run a tremor-script filter or trickle query over a file of events",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runEncoder, "encoder", "json", "output codec (json, string)")
	runCmd.Flags().StringVar(&runDecoder, "decoder", "json", "input codec (json, string)")
	runCmd.Flags().StringVar(&runPreProcessor, "pre-processor", "lines", "input framing (lines, none)")
	runCmd.Flags().StringVar(&runPostProcessor, "post-processor", "lines", "output framing (lines, none)")
	runCmd.Flags().StringVar(&runPort, "port", "out", "emission port to write (events on other ports are dropped)")
	runCmd.Flags().StringVarP(&runInFile, "in", "i", "-", "input file, - for stdin")
	runCmd.Flags().StringVarP(&runOutFile, "out", "o", "-", "output file, - for stdout")
}

// runRun implements spec §6's CLI surface: `run SCRIPT --encoder CODEC
// --decoder CODEC --pre-processor P --post-processor P --port PORT
// -i INFILE -o OUTFILE`, exiting 0 on graceful drain of the input file.
func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	srcBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src := string(srcBytes)

	in := os.Stdin
	if runInFile != "-" {
		f, err := os.Open(runInFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	out := os.Stdout
	if runOutFile != "-" {
		f, err := os.Create(runOutFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	frames, err := preProcess(in, runPreProcessor)
	if err != nil {
		return fmt.Errorf("pre-processing %s: %w", runInFile, err)
	}

	logger := newLogger(logFormat, logLevel)
	reporter := diag.NewReporter()
	reporter.AddSource(path, src)
	ctx := context.Background()

	emit := func(val, meta types.Value, port string) error {
		if port != runPort {
			return nil
		}
		b, err := encode(runEncoder, val)
		if err != nil {
			return err
		}
		return postProcess(out, runPostProcessor, b)
	}

	if strings.HasSuffix(path, ".trickle") {
		if err := runTrickle(ctx, path, src, frames, logger, reporter, emit); err != nil {
			reportOrReturn(reporter, err)
			return err
		}
	} else {
		if err := runScript(ctx, path, src, frames, logger, reporter, emit); err != nil {
			reportOrReturn(reporter, err)
			return err
		}
	}
	return nil
}

// reportOrReturn writes err's hygienic diagnostic block to stderr (spec
// §7/§8 scenario 4) when it carries a source span; cobra's own error
// printing handles everything else (flag errors, I/O failures).
func reportOrReturn(reporter *diag.Reporter, err error) {
	var de *diag.Error
	if errors.As(err, &de) {
		fmt.Fprintln(os.Stderr, reporter.Format(de))
	}
}

// runScript evaluates a bare tremor-script file per decoded frame — the
// tremor-script-only analogue of a one-node pipeline: no DAG, no windows,
// just Evaluator.Run against each event in turn.
func runScript(ctx context.Context, path, src string, frames [][]byte, logger *slog.Logger, reporter *diag.Reporter, emit func(types.Value, types.Value, string) error) error {
	script, err := tremor.CompileScript(path, src)
	if err != nil {
		return err
	}
	backendOpts, closeBackends := backendOptions(ctx)
	defer closeBackends()
	evalOpts := append([]eval.EvalOption{eval.WithMaxRecursionDepth(recursionLimit), eval.WithLogger(logger)}, backendOpts...)
	ev := tremor.NewEvaluator(evalOpts...)

	for _, frame := range frames {
		val, err := decode(runDecoder, frame)
		if err != nil {
			logger.Warn("dropping unparseable frame", "error", err)
			continue
		}
		env := eval.NewEnvelope(val, types.RecordValue(types.NewRecord()), types.Null)
		res, err := ev.Run(ctx, script, env)
		if err != nil {
			reportOrReturn(reporter, err)
			logger.Error("script run failed", "error", err)
			continue
		}
		for _, em := range res.Emissions {
			if err := emit(em.Value, res.Envelope.Meta, em.Port); err != nil {
				return err
			}
		}
	}
	return nil
}

// runTrickle runs a compiled trickle query's pipeline over the decoded
// frames using Pipeline.ProcessSync, one event per frame, collecting each
// event's emissions before moving to the next — the batch-replay use case
// ProcessSync exists for (see pkg/pipeline/runtime.go).
func runTrickle(ctx context.Context, path, src string, frames [][]byte, logger *slog.Logger, reporter *diag.Reporter, emit func(types.Value, types.Value, string) error) error {
	backendOpts, closeBackends := backendOptions(ctx)
	defer closeBackends()
	evalOpts := append([]eval.EvalOption{eval.WithMaxRecursionDepth(recursionLimit), eval.WithLogger(logger)}, backendOpts...)
	ev := tremor.NewEvaluator(evalOpts...)
	pipe, err := tremor.NewPipeline(path, src, "tremor-run", ev, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	for _, frame := range frames {
		val, err := decode(runDecoder, frame)
		if err != nil {
			logger.Warn("dropping unparseable frame", "error", err)
			continue
		}
		ev := pipeline.Event{
			Node:     "in",
			Port:     "out",
			Value:    val,
			Meta:     types.RecordValue(types.NewRecord()),
			IngestNS: time.Now().UnixNano(),
		}
		for _, em := range pipe.ProcessSync(ctx, ev) {
			if err := emit(em.Value, em.Meta, em.Stream); err != nil {
				return err
			}
		}
	}
	return nil
}
