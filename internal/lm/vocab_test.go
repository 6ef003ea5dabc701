package lm

import "testing"

func TestNewVocabularyReservedIDs(t *testing.T) {
	v := NewVocabulary()

	cases := []struct {
		token string
		id    uint32
	}{
		{unkToken, UnkID},
		{bosToken, BOSID},
		{eosToken, EOSID},
	}
	for _, c := range cases {
		if got := v.Get(c.token); got != c.id {
			t.Errorf("Get(%q) = %d, want %d", c.token, got, c.id)
		}
		if got := v.TokenOf(c.id); got != c.token {
			t.Errorf("TokenOf(%d) = %q, want %q", c.id, got, c.token)
		}
	}
	if v.Size() != 3 {
		t.Errorf("Size() = %d, want 3", v.Size())
	}
}

func TestGetOrAddAssignsIncreasingIDs(t *testing.T) {
	v := NewVocabulary()

	a := v.GetOrAdd("a")
	b := v.GetOrAdd("b")
	aAgain := v.GetOrAdd("a")

	if a != 3 {
		t.Errorf("first new token id = %d, want 3", a)
	}
	if b != 4 {
		t.Errorf("second new token id = %d, want 4", b)
	}
	if aAgain != a {
		t.Errorf("GetOrAdd not idempotent: %d != %d", aAgain, a)
	}
}

func TestVocabularyRoundTripInvariant(t *testing.T) {
	v := NewVocabulary()
	v.GetOrAdd("hello")
	v.GetOrAdd("world")

	for id := uint32(0); id < uint32(v.Size()); id++ {
		if id == UnkID {
			continue
		}
		tok := v.TokenOf(id)
		if got := v.Get(tok); got != id {
			t.Errorf("Get(TokenOf(%d)) = %d, want %d", id, got, id)
		}
	}
}

func TestGetUnknownToken(t *testing.T) {
	v := NewVocabulary()
	if got := v.Get("never-seen"); got != UnkID {
		t.Errorf("Get(unseen) = %d, want %d", got, UnkID)
	}
	if id, ok := v.Lookup("never-seen"); ok || id != 0 {
		t.Errorf("Lookup(unseen) = (%d, %v), want (0, false)", id, ok)
	}
}

func TestLookupDistinguishesUnkFromMiss(t *testing.T) {
	v := NewVocabulary()

	if id, ok := v.Lookup(unkToken); !ok || id != UnkID {
		t.Errorf("Lookup(<unk>) = (%d, %v), want (%d, true)", id, ok, UnkID)
	}
	if id, ok := v.Lookup("not-in-vocab"); ok || id != 0 {
		t.Errorf("Lookup(unseen) = (%d, %v), want (0, false)", id, ok)
	}
}

func TestTokenOfOutOfRange(t *testing.T) {
	v := NewVocabulary()
	if got := v.TokenOf(9999); got != unkToken {
		t.Errorf("TokenOf(out of range) = %q, want %q", got, unkToken)
	}
}

func TestGetOrAddCapsAtMaxVocabSize(t *testing.T) {
	v := NewVocabulary()
	// Fill to the cap directly via the internal maps to avoid a slow test.
	for i := v.Size(); i < MaxVocabSize; i++ {
		v.tokenToID[string(rune(i))] = uint32(i)
		v.idToToken = append(v.idToToken, string(rune(i)))
		v.present.AddString(string(rune(i)))
	}
	if got := v.GetOrAdd("brand-new-token"); got != UnkID {
		t.Errorf("GetOrAdd at capacity = %d, want %d (UnkID)", got, UnkID)
	}
}
