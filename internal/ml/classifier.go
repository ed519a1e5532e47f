package ml

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"mangosense/api/internal/config"
	"mangosense/api/internal/models"
)

// Model wraps one loaded ONNX session. Sessions use preallocated I/O
// tensors, so Predict serializes access with a mutex; the model weights
// themselves are immutable after load.
type Model struct {
	detectionType models.DetectionType
	path          string
	labels        []string

	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func newModel(dt models.DetectionType, path string, labels []string) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}

	inputShape := ort.NewShape(1, InputSize, InputSize, 3)
	outputShape := ort.NewShape(1, int64(len(labels)))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create onnx session for %s: %w", path, err)
	}

	return &Model{
		detectionType: dt,
		path:          path,
		labels:        labels,
		session:       session,
		inputTensor:   inputTensor,
		outputTensor:  outputTensor,
	}, nil
}

func (m *Model) DetectionType() models.DetectionType { return m.detectionType }

func (m *Model) Path() string { return m.path }

func (m *Model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Predict runs a forward pass and returns a probability vector whose length
// equals the label-set size. The context bounds how long the caller waits;
// an overrun is reported as an inference failure. The session keeps the
// mutex until the run actually finishes, even after a timeout.
func (m *Model) Predict(ctx context.Context, input []float32) ([]float32, error) {
	if want := len(m.inputTensor.GetData()); len(input) != want {
		return nil, fmt.Errorf("input tensor length %d, expected %d", len(input), want)
	}

	m.mu.Lock()
	copy(m.inputTensor.GetData(), input)

	done := make(chan error, 1)
	go func() {
		done <- m.session.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("run inference: %w", err)
		}
		out := m.outputTensor.GetData()
		probs := make([]float32, len(out))
		copy(probs, out)
		m.mu.Unlock()
		return probs, nil
	case <-ctx.Done():
		go func() {
			<-done
			m.mu.Unlock()
		}()
		return nil, fmt.Errorf("inference timed out: %w", ctx.Err())
	}
}

func (m *Model) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
	}
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}
}

// Registry holds the process-wide models, loaded once at startup and shared
// read-only across requests. A missing artifact fails startup rather than
// individual requests.
type Registry struct {
	models map[models.DetectionType]*Model
}

func NewRegistry(cfg config.MLConfig) (*Registry, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	leaf, err := newModel(models.DetectionTypeLeaf, cfg.LeafModelPath, leafLabels)
	if err != nil {
		return nil, fmt.Errorf("load leaf model: %w", err)
	}

	fruit, err := newModel(models.DetectionTypeFruit, cfg.FruitModelPath, fruitLabels)
	if err != nil {
		leaf.close()
		return nil, fmt.Errorf("load fruit model: %w", err)
	}

	return &Registry{
		models: map[models.DetectionType]*Model{
			models.DetectionTypeLeaf:  leaf,
			models.DetectionTypeFruit: fruit,
		},
	}, nil
}

func (r *Registry) Get(dt models.DetectionType) (*Model, error) {
	m, ok := r.models[dt]
	if !ok {
		return nil, fmt.Errorf("no model for detection type %q", dt)
	}
	return m, nil
}

func (r *Registry) Close() {
	for _, m := range r.models {
		m.close()
	}
	ort.DestroyEnvironment()
}
