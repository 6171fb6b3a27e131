// Package batch extracts feature vectors from a labelled image dataset
// with a fixed pool of workers.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service/decoder"
	"github.com/fearless-dhbw/img-classification/internal/service/pipeline"
)

// Extractor turns one decoded image into per-face feature vectors.
type Extractor interface {
	Extract(ctx context.Context, img *model.Image) ([]pipeline.FaceFeatures, error)
}

var _ Extractor = (*pipeline.Pipeline)(nil)

// Task is one image file and the label of the folder it came from.
type Task struct {
	Label string
	Path  string
}

// Result carries the faces extracted for a task, or the error that stopped it.
type Result struct {
	Task  Task
	Faces []pipeline.FaceFeatures
	Err   error
}

type Manager struct {
	extractor  Extractor
	logger     *logger.Logger
	numWorkers int
	queueSize  int
}

func NewManager(extractor Extractor, numWorkers int, logger *logger.Logger) *Manager {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Manager{
		extractor:  extractor,
		logger:     logger,
		numWorkers: numWorkers,
		queueSize:  numWorkers * 4,
	}
}

// Process runs every task through the worker pool. handle is called from
// the calling goroutine once per finished task, in completion order.
// Cancelling ctx stops queueing new tasks; Process returns ctx.Err().
func (m *Manager) Process(ctx context.Context, tasks []Task, handle func(Result)) error {
	processingQueue := make(chan Task, m.queueSize)
	results := make(chan Result, m.numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < m.numWorkers; i++ {
		wg.Add(1)
		go m.processingWorker(ctx, i, processingQueue, results, &wg)
	}

	go func() {
		defer close(processingQueue)
		for _, task := range tasks {
			select {
			case processingQueue <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		handle(r)
	}
	return ctx.Err()
}

func (m *Manager) processingWorker(ctx context.Context, workerID int, queue <-chan Task, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()
	m.logger.Debug("Batch worker %d started", workerID)

	for task := range queue {
		if ctx.Err() != nil {
			continue
		}
		results <- m.process(ctx, task)
	}

	m.logger.Debug("Batch worker %d stopped", workerID)
}

func (m *Manager) process(ctx context.Context, task Task) Result {
	data, err := os.ReadFile(task.Path)
	if err != nil {
		return Result{Task: task, Err: err}
	}
	img, err := decoder.DecodeBytes(data)
	if err != nil {
		return Result{Task: task, Err: err}
	}
	faces, err := m.extractor.Extract(ctx, img)
	if err != nil {
		return Result{Task: task, Err: fmt.Errorf("%s: %w", task.Path, err)}
	}
	return Result{Task: task, Faces: faces}
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Discover lists the images under root laid out as root/<label>/<file>,
// sorted by label then file name. Hidden entries and unknown extensions
// are skipped.
func Discover(root string) ([]Task, error) {
	labels, err := Labels(root)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, label := range labels {
		entries, err := os.ReadDir(filepath.Join(root, label))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
				continue
			}
			tasks = append(tasks, Task{Label: label, Path: filepath.Join(root, label, name)})
		}
	}
	return tasks, nil
}

// Labels returns the sorted dataset folder names under root.
func Labels(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			labels = append(labels, e.Name())
		}
	}
	sort.Strings(labels)
	return labels, nil
}
