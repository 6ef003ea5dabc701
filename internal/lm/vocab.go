package lm

import (
	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// UnkID, BOSID and EOSID are the three reserved token ids every
	// Vocabulary carries from construction.
	UnkID uint32 = 0
	BOSID uint32 = 1
	EOSID uint32 = 2

	// MaxVocabSize bounds how many distinct tokens a Vocabulary will hold;
	// 64 Ki is generous for the corpora this engine targets.
	MaxVocabSize = 64 * 1024

	unkToken = "<unk>"
	bosToken = "<s>"
	eosToken = "</s>"
)

// Vocabulary is a bidirectional mapping between token strings and the
// small integer ids the trie and predictor key on. It grows only during
// training: ids are assigned strictly increasing and are never reused.
type Vocabulary struct {
	tokenToID map[string]uint32
	idToToken []string
	present   *bloom.BloomFilter
}

// NewVocabulary returns a Vocabulary with the three reserved tokens
// already present at ids 0/1/2.
func NewVocabulary() *Vocabulary {
	v := &Vocabulary{
		tokenToID: make(map[string]uint32, 1024),
		idToToken: make([]string, 0, 1024),
		present:   bloom.NewWithEstimates(MaxVocabSize, 0.01),
	}
	v.insertReserved(unkToken, UnkID)
	v.insertReserved(bosToken, BOSID)
	v.insertReserved(eosToken, EOSID)
	return v
}

func (v *Vocabulary) insertReserved(token string, id uint32) {
	v.tokenToID[token] = id
	v.idToToken = append(v.idToToken, token)
	v.present.AddString(token)
}

// GetOrAdd returns token's id, assigning the next free id if token has
// never been seen. Once the vocabulary reaches MaxVocabSize, unseen
// tokens fail softly and resolve to UnkID rather than growing further.
func (v *Vocabulary) GetOrAdd(token string) uint32 {
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	if len(v.idToToken) >= MaxVocabSize {
		return UnkID
	}
	id := uint32(len(v.idToToken))
	v.tokenToID[token] = id
	v.idToToken = append(v.idToToken, token)
	v.present.AddString(token)
	return id
}

// Get looks up token without inserting it. A return of UnkID means
// either "token is unknown" or "token is the literal <unk>" — callers
// that must tell these apart use Lookup instead. This aliasing mirrors
// spec section 4.2's getOrAdd/get pair and is required verbatim by the
// predictor's suffix-skip step.
func (v *Vocabulary) Get(token string) uint32 {
	if v.present != nil && !v.present.TestString(token) {
		return UnkID
	}
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	return UnkID
}

// Lookup is the non-aliasing counterpart to Get: it reports whether
// token is actually present, so callers can distinguish a genuine miss
// from the legitimate id-0 token.
func (v *Vocabulary) Lookup(token string) (uint32, bool) {
	if v.present != nil && !v.present.TestString(token) {
		return 0, false
	}
	id, ok := v.tokenToID[token]
	return id, ok
}

// TokenOf returns the token string for id, bounds-checked: any
// out-of-range id yields "<unk>".
func (v *Vocabulary) TokenOf(id uint32) string {
	if int(id) >= len(v.idToToken) {
		return unkToken
	}
	return v.idToToken[id]
}

// Size reports the number of distinct tokens currently registered,
// including the three reserved ones.
func (v *Vocabulary) Size() int {
	return len(v.idToToken)
}

// vocabularyFromTokens rebuilds a Vocabulary from a token list already in
// id order (as persisted by the .vocab file), without re-running
// reserved-id insertion: the reserved tokens are wherever they land in
// tokens, exactly as the file recorded them.
func vocabularyFromTokens(tokens []string) *Vocabulary {
	v := &Vocabulary{
		tokenToID: make(map[string]uint32, len(tokens)),
		idToToken: tokens,
		present:   bloom.NewWithEstimates(uint(max(len(tokens), 1)), 0.01),
	}
	for id, tok := range tokens {
		v.tokenToID[tok] = uint32(id)
		v.present.AddString(tok)
	}
	return v
}
