package lm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

const (
	vocabSuffix = ".vocab"
	uniSuffix   = ".uni"
	biSuffix    = ".bi"
	triSuffix   = ".tri"
)

// Persistence encodes and decodes a Model to the four-file little-endian
// binary layout spec section 6.1 defines: <prefix>.vocab/.uni/.bi/.tri,
// all integers little-endian, unsigned, untagged.
type Persistence struct {
	logger *zap.Logger
}

// NewPersistence returns a Persistence that logs save/load events through
// logger (zap.NewNop() if nil).
func NewPersistence(logger *zap.Logger) *Persistence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persistence{logger: logger}
}

// Save writes m's vocabulary and unigram/bigram/trigram tables under
// prefix. Orders above 3 are kept in memory but never persisted.
func (p *Persistence) Save(m *Model, prefix string) error {
	if err := p.saveVocab(m, prefix+vocabSuffix); err != nil {
		return err
	}
	if err := p.saveUnigrams(m, prefix+uniSuffix); err != nil {
		return err
	}
	if err := p.saveOrder(m, 2, prefix+biSuffix); err != nil {
		return err
	}
	if err := p.saveOrder(m, 3, prefix+triSuffix); err != nil {
		return err
	}
	p.logger.Info("model saved",
		zap.String("prefix", prefix),
		zap.Int("vocab_size", m.Vocab.Size()),
		zap.Uint64("total_tokens", m.TotalTokens),
	)
	return nil
}

func (p *Persistence) saveVocab(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lm: save: creating %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, uint32(m.Vocab.Size())); err != nil {
		return fmt.Errorf("lm: save: writing vocab size: %w", err)
	}
	for _, tok := range m.Vocab.idToToken {
		if err := binary.Write(w, binary.LittleEndian, uint16(len(tok))); err != nil {
			return fmt.Errorf("lm: save: writing token length: %w", err)
		}
		if _, err := w.WriteString(tok); err != nil {
			return fmt.Errorf("lm: save: writing token bytes: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("lm: save: flushing %q: %w", path, err)
	}
	return nil
}

func (p *Persistence) saveUnigrams(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lm: save: creating %q: %w", path, err)
	}
	defer f.Close()

	rows := m.Trie.CollectOrder(1)
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, m.TotalTokens); err != nil {
		return fmt.Errorf("lm: save: writing total tokens: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(rows))); err != nil {
		return fmt.Errorf("lm: save: writing unigram count: %w", err)
	}
	for _, r := range rows {
		if err := binary.Write(w, binary.LittleEndian, r.IDs[0]); err != nil {
			return fmt.Errorf("lm: save: writing unigram id: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, r.Count); err != nil {
			return fmt.Errorf("lm: save: writing unigram count: %w", err)
		}
	}
	return w.Flush()
}

func (p *Persistence) saveOrder(m *Model, n int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lm: save: creating %q: %w", path, err)
	}
	defer f.Close()

	rows := m.Trie.CollectOrder(n)
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(rows))); err != nil {
		return fmt.Errorf("lm: save: writing order-%d count: %w", n, err)
	}
	for _, r := range rows {
		for _, id := range r.IDs {
			if err := binary.Write(w, binary.LittleEndian, id); err != nil {
				return fmt.Errorf("lm: save: writing order-%d id: %w", n, err)
			}
		}
		if err := binary.Write(w, binary.LittleEndian, r.Count); err != nil {
			return fmt.Errorf("lm: save: writing order-%d count: %w", n, err)
		}
	}
	return w.Flush()
}

// Load reconstructs a Model of order maxN from the four files under
// prefix. The vocab file must exist; the .uni/.bi/.tri files are each
// tolerated as absent (treated as an empty table), and a short read on
// any of them stops that file's loading without failing the whole call.
func (p *Persistence) Load(prefix string, maxN int) (*Model, error) {
	vocab, err := loadVocab(prefix + vocabSuffix)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Vocab:    vocab,
		Trie:     NewTrie(maxN),
		MaxN:     maxN,
		Weighter: NewDecayWeighter(),
	}
	m.rng = newProcessRand()
	m.logger = p.logger

	totalTokens, err := loadUnigrams(m.Trie, prefix+uniSuffix)
	if err != nil {
		return nil, err
	}
	m.TotalTokens = totalTokens

	loadOrder(m.Trie, 2, prefix+biSuffix)
	loadOrder(m.Trie, 3, prefix+triSuffix)

	p.logger.Info("model loaded",
		zap.String("prefix", prefix),
		zap.Int("vocab_size", m.Vocab.Size()),
		zap.Uint64("total_tokens", m.TotalTokens),
	)
	return m, nil
}

func loadVocab(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lm: load: opening vocab %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("lm: load: reading vocab size: %w", err)
	}

	tokens := make([]string, 0, size)
	for i := uint32(0); i < size; i++ {
		var length uint16
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			break
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			break
		}
		tokens = append(tokens, string(buf))
	}

	return vocabularyFromTokens(tokens), nil
}

// loadUnigrams replays the .uni file's counts into trie and returns the
// persisted totalTokens. A missing file yields (0, nil): an empty table.
func loadUnigrams(trie *Trie, path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("lm: load: opening %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var totalTokens uint64
	if err := binary.Read(r, binary.LittleEndian, &totalTokens); err != nil {
		return 0, nil
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return totalTokens, nil
	}

	for i := uint32(0); i < count; i++ {
		var id, c uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			break
		}
		if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
			break
		}
		trie.AddWithCount([]uint32{id}, 1, c)
	}
	return totalTokens, nil
}

// loadOrder replays a .bi/.tri file's rows into trie at order n. A
// missing file is silently treated as an empty table; a short read stops
// reading further rows without returning an error.
func loadOrder(trie *Trie, n int, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return
	}

	ids := make([]uint32, n)
	for i := uint32(0); i < count; i++ {
		ok := true
		for j := 0; j < n; j++ {
			if err := binary.Read(r, binary.LittleEndian, &ids[j]); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			return
		}
		var c uint32
		if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
			return
		}
		trie.AddWithCount(ids, n, c)
	}
}
