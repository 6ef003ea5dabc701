package lm

import (
	"math"
	"sort"

	"suffixlm/internal/token"
)

// MaxCandidates bounds how many distinct tokens a single Predict call
// will track before later candidates are dropped.
const MaxCandidates = 100

// PriorWeight (beta) scales the unigram-prior log-probability term added
// to every candidate after backward-reasoning scoring.
const PriorWeight = 0.10

// logFloor keeps the prior term finite when a candidate's estimated
// probability rounds to zero.
const logFloor = 1e-9

// Slot is one (token id, score) prediction output. Predict always
// returns exactly k slots; unused slots carry id 0 and score 0.
type Slot struct {
	ID    uint32
	Score float64
}

type scoredCandidate struct {
	id    uint32
	score float64
}

// Predict implements the backward-reasoning scorer: it aggregates
// weighted evidence from the longest available context suffix down to
// length 1, applies a unigram prior, renormalizes, and falls back to
// plain unigram ordering to fill any slots the n-gram evidence left
// empty.
func (m *Model) Predict(context string, k int) []Slot {
	if k < 0 {
		k = 0
	}
	result := make([]Slot, k)
	if k == 0 {
		return result
	}

	tokens := token.Tokenize([]byte(context))
	if len(tokens) == 0 {
		return result
	}

	maxContext := len(tokens)
	if maxContext > m.MaxN-1 {
		maxContext = m.MaxN - 1
	}

	candidates := make([]scoredCandidate, 0, MaxCandidates)
	idx := make(map[uint32]int, MaxCandidates)

	addContrib := func(t uint32, contrib float64) {
		if i, ok := idx[t]; ok {
			candidates[i].score += contrib
			return
		}
		if len(candidates) >= MaxCandidates {
			return
		}
		idx[t] = len(candidates)
		candidates = append(candidates, scoredCandidate{id: t, score: contrib})
	}

	for l := maxContext; l >= 1; l-- {
		suffix := tokens[len(tokens)-l:]
		ids := make([]uint32, l)
		known := true
		for i, tok := range suffix {
			id := m.Vocab.Get(tok)
			if id == UnkID {
				known = false
				break
			}
			ids[i] = id
		}
		if !known {
			continue
		}

		node := m.Trie.FindPrefixNode(ids, l)
		if node == nil || node.FirstChild() == nil {
			continue
		}

		var denom uint64
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			denom += uint64(c.Count)
		}
		if denom == 0 {
			continue
		}

		weight := m.Weighter.Weight(l, maxContext)
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			contrib := weight * float64(c.Count) / float64(denom)
			addContrib(c.TokenID, contrib)
		}
	}

	if len(candidates) > 0 && m.TotalTokens > 0 {
		for i := range candidates {
			u := m.Trie.Count([]uint32{candidates[i].id}, 1)
			var p float64
			if u > 0 {
				p = float64(u) / float64(m.TotalTokens)
			} else {
				p = 1.0 / float64(m.TotalTokens+1)
			}
			candidates[i].score += PriorWeight * math.Log(math.Max(p, logFloor))
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	top := k
	if top > len(candidates) {
		top = len(candidates)
	}

	sum := 0.0
	for i := 0; i < top; i++ {
		sum += candidates[i].score
	}
	if sum > 0 {
		for i := 0; i < top; i++ {
			candidates[i].score /= sum
		}
	}

	for i := 0; i < top; i++ {
		result[i] = Slot{ID: candidates[i].id, Score: candidates[i].score}
	}
	filled := top

	if filled < k {
		present := make(map[uint32]bool, filled)
		for i := 0; i < filled; i++ {
			present[result[i].ID] = true
		}

		type unigram struct {
			id    uint32
			count uint32
		}
		var unigrams []unigram
		for c := m.Trie.Root().FirstChild(); c != nil; c = c.NextSibling() {
			if present[c.TokenID] {
				continue
			}
			unigrams = append(unigrams, unigram{id: c.TokenID, count: c.Count})
		}
		sort.SliceStable(unigrams, func(i, j int) bool {
			return unigrams[i].count > unigrams[j].count
		})

		for _, u := range unigrams {
			if filled >= k {
				break
			}
			var score float64
			if m.TotalTokens > 0 {
				score = float64(u.count) / float64(m.TotalTokens)
			}
			result[filled] = Slot{ID: u.id, Score: score}
			filled++
		}
	}

	return result
}
