// Package guardml wraps an optional ONNX multi-label text classifier that
// backs the heuristic scanners with model scores. A deployment without a
// bundle directory simply runs heuristic-only; nothing here is on the
// required path.
package guardml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Model wraps the ONNX session and tokenizer. It is safe for concurrent use;
// the reused tensors are guarded by a mutex.
type Model struct {
	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	labels    []string
	seqLen    int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu sync.Mutex

	// One-entry score cache: within a single pipeline run several scanners
	// ask about the same text, and one inference answers all of them.
	lastText   string
	lastScores map[string]float64
}

// LoadModel initializes the ONNX session and tokenizer from a bundle dir
// containing classifier.onnx, label_map.json and tokenizer/vocab.txt.
func LoadModel(bundleDir string, seqLen int) (*Model, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}
	if seqLen <= 0 {
		seqLen = 256
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "classifier.onnx")
	labelsPath := filepath.Join(bundleDir, "label_map.json")
	vocabPath := filepath.Join(bundleDir, "tokenizer", "vocab.txt")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	labels, err := loadLabels(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	tokenizer, err := LoadWordPieceTokenizer(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Model{
		session:       session,
		tokenizer:     tokenizer,
		labels:        labels,
		seqLen:        seqLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

// Evaluate runs inference and returns sigmoid scores per label.
func (m *Model) Evaluate(text string) (map[string]float64, error) {
	if m == nil || m.session == nil || m.tokenizer == nil {
		return nil, errors.New("guard model not initialized")
	}

	inputIDs, attn := m.tokenizer.Encode(text, m.seqLen)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastScores != nil && m.lastText == text {
		return m.lastScores, nil
	}

	copy(m.inputIDs.GetData(), inputIDs)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	raw := m.output.GetData()
	scores := make(map[string]float64, len(m.labels))
	for i, logit := range raw {
		if i >= len(m.labels) {
			break
		}
		scores[m.labels[i]] = 1.0 / (1.0 + math.Exp(-float64(logit)))
	}

	m.lastText = text
	m.lastScores = scores
	return scores, nil
}

// LabelScore implements the scanner.LabelScorer capability.
func (m *Model) LabelScore(ctx context.Context, text, label string) (float64, bool) {
	scores, err := m.Evaluate(text)
	if err != nil {
		return 0, false
	}
	s, ok := scores[label]
	return s, ok
}

// CountTokens implements the scanner.TokenCounter capability with the
// model's own tokenization.
func (m *Model) CountTokens(text string) int {
	return m.tokenizer.CountTokens(text)
}

// Destroy releases the ONNX session and tensors.
func (m *Model) Destroy() {
	if m == nil {
		return
	}
	if m.session != nil {
		m.session.Destroy()
	}
	if m.inputIDs != nil {
		m.inputIDs.Destroy()
	}
	if m.attentionMask != nil {
		m.attentionMask.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}

func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	out := make([]string, len(m))
	for k, v := range m {
		idx, convErr := strconv.Atoi(k)
		if convErr != nil {
			return nil, fmt.Errorf("invalid label index %q: %w", k, convErr)
		}
		if idx < 0 || idx >= len(m) {
			return nil, fmt.Errorf("label index %d out of range", idx)
		}
		out[idx] = v
	}
	return out, nil
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common names and
// locations are probed.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
