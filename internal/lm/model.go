package lm

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"suffixlm/internal/token"
)

// ModelStats is a read-only snapshot of a Model's size, offered for
// operational visibility; nothing in Train/Predict/Generate consults it.
type ModelStats struct {
	VocabSize      int
	MaxN           int
	TotalTokens    uint64
	NodeCount      int
	EstimatedBytes int64
}

// bytesPerNode is a rough per-trie-node overhead estimate (token id,
// count, three pointers, slice/map headers) used only for Stats().
const bytesPerNode = 64

// Version identifies this engine's on-disk format and programmatic
// surface, per spec.md section 6.2's "version string" requirement.
const Version = "1.0.0"

// Model is the tuple (Vocabulary, Trie, maxN, totalTokens) spec section
// 3 describes, plus the weighting strategy and PRNG the predictor and
// generator need. A Model is created empty, mutated only by training or
// loading, then used read-only by Predict and Generate.
type Model struct {
	Vocab       *Vocabulary
	Trie        *Trie
	MaxN        int
	TotalTokens uint64
	Weighter    BackoffWeighter

	// Terminators overrides DefaultTerminators for Generate's stop-word
	// check when non-nil.
	Terminators []string

	rng    *rand.Rand
	logger *zap.Logger
}

// NewModel returns an empty Model accepting n-grams up to order maxN. A
// nil logger defaults to zap.NewNop so the core stays silent when
// embedded. The PRNG is seeded once from wall-clock time, matching the
// source's per-process seeding; call SetSeed for reproducible output.
func NewModel(maxN int, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		Vocab:    NewVocabulary(),
		Trie:     NewTrie(maxN),
		MaxN:     maxN,
		Weighter: NewDecayWeighter(),
		rng:      newProcessRand(),
		logger:   logger,
	}
}

// newProcessRand seeds a PRNG once from wall-clock time, matching the
// source's per-process seeding (see spec design note on carrying the
// PRNG in the model instead of a global for reproducibility).
func newProcessRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// SetSeed replaces the model's PRNG with one seeded deterministically,
// making Generate's sampling reproducible across runs.
func (m *Model) SetSeed(seed int64) {
	m.rng = rand.New(rand.NewSource(seed))
}

// TrainReader drives the tokenizer and vocabulary/trie over every line
// of r: strip the trailing newline (bufio.Scanner already does this),
// tokenize, assign ids via GetOrAdd (advancing TotalTokens), then feed
// the line into Trie.UpdateAll. Empty lines are skipped. TrainReader
// fails only on the underlying I/O error.
func (m *Model) TrainReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		tokens := token.Tokenize(line)
		if len(tokens) == 0 {
			continue
		}
		ids := make([]uint32, len(tokens))
		for i, tok := range tokens {
			ids[i] = m.Vocab.GetOrAdd(tok)
			m.TotalTokens++
		}
		m.Trie.UpdateAll(ids, len(ids))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("lm: train: reading corpus: %w", err)
	}
	return nil
}

// TrainFile opens path and trains over its contents via TrainReader,
// logging start/completion the way the teacher's corpus ingestion does.
func (m *Model) TrainFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("lm: train: opening corpus %q: %w", path, err)
	}
	defer f.Close()

	m.logger.Info("training started", zap.String("path", path), zap.Int("max_n", m.MaxN))
	if err := m.TrainReader(f); err != nil {
		return err
	}
	m.logger.Info("training complete",
		zap.Int("vocab_size", m.Vocab.Size()),
		zap.Uint64("total_tokens", m.TotalTokens),
	)
	return nil
}

// Save persists the model under prefix via a Persistence sharing this
// model's logger.
func (m *Model) Save(prefix string) error {
	return NewPersistence(m.logger).Save(m, prefix)
}

// LoadModel loads a model of order maxN from prefix.
func LoadModel(prefix string, maxN int, logger *zap.Logger) (*Model, error) {
	return NewPersistence(logger).Load(prefix, maxN)
}

// Stats returns a cheap snapshot of the model's size: vocabulary size,
// order, total training tokens, and a node-count-based memory estimate.
func (m *Model) Stats() ModelStats {
	nodes := m.Trie.NodeCount()
	return ModelStats{
		VocabSize:      m.Vocab.Size(),
		MaxN:           m.MaxN,
		TotalTokens:    m.TotalTokens,
		NodeCount:      nodes,
		EstimatedBytes: int64(nodes) * bytesPerNode,
	}
}
