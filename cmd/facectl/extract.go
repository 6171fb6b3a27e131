package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/fearless-dhbw/img-classification/internal/app"
	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/service/batch"
)

type extractOptions struct {
	InputDir   string
	OutputPath string
	Workers    int
}

var extractOpts extractOptions

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract feature vectors from a DIR/<label>/<image> dataset as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, extractOpts)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOpts.InputDir, "input", "i", "", "Dataset directory with one folder per label")
	extractCmd.Flags().StringVarP(&extractOpts.OutputPath, "out", "o", "features.jsonl", "Output file, - for stdout")
	extractCmd.Flags().IntVarP(&extractOpts.Workers, "workers", "w", runtime.NumCPU(), "Number of parallel workers")

	extractCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(extractCmd)
}

// featureRecord is one training row.
type featureRecord struct {
	Label    string     `json:"label"`
	File     string     `json:"file"`
	Region   dto.Region `json:"region"`
	Features []float64  `json:"features"`
}

func runExtract(cmd *cobra.Command, opts extractOptions) error {
	tasks, err := batch.Discover(opts.InputDir)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no images found under %s", opts.InputDir)
	}

	p, detector, err := app.NewPipeline(cfg, log, nil, false)
	if err != nil {
		return err
	}
	defer detector.Close()

	var out io.Writer = os.Stdout
	if opts.OutputPath != "-" {
		if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
			return err
		}
		f, err := os.Create(opts.OutputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)

	fmt.Fprintf(os.Stderr, "Extracting %d images with %d workers\n", len(tasks), opts.Workers)
	bar := progressbar.NewOptions(len(tasks),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	var faces, noFace, failed int
	var writeErr error
	perLabel := map[string]int{}

	procErr := batch.NewManager(p, opts.Workers, log).Process(cmd.Context(), tasks, func(r batch.Result) {
		bar.Add(1)
		if r.Err != nil {
			failed++
			log.Warning("Skipping %s: %v", r.Task.Path, r.Err)
			return
		}
		if len(r.Faces) == 0 {
			noFace++
			return
		}
		for _, f := range r.Faces {
			if writeErr != nil {
				return
			}
			writeErr = enc.Encode(featureRecord{
				Label:    r.Task.Label,
				File:     r.Task.Path,
				Region:   dto.NewRegion(f.Face.Region),
				Features: f.Vector,
			})
			faces++
			perLabel[r.Task.Label]++
		}
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if writeErr != nil {
		return fmt.Errorf("failed to write features: %w", writeErr)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write features: %w", err)
	}
	if procErr != nil {
		return procErr
	}

	fmt.Fprintf(os.Stderr, "Wrote %d face vectors (%d images without a usable face, %d failed)\n", faces, noFace, failed)
	for _, label := range sortedKeys(perLabel) {
		fmt.Fprintf(os.Stderr, "   - %s: %d\n", label, perLabel[label])
	}
	return nil
}
