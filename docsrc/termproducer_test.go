package docsrc

import "testing"

func TestSequenceProducerSkipsImpureWindows(t *testing.T) {
	p := SequenceProducer{Seq: []byte("ACGTNACGT"), Canonicalize: false}
	var terms []string
	err := p.ProcessTerms(4, func(term []byte) error {
		terms = append(terms, string(term))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, term := range terms {
		for _, b := range []byte(term) {
			if b != 'A' && b != 'C' && b != 'G' && b != 'T' {
				t.Fatalf("impure term leaked through: %s", term)
			}
		}
	}
	// windows starting at 0..5 (len 9, k=4 -> 6 windows); any window
	// touching index 4 ('N') must be skipped, leaving windows 0 and 5 only.
	if len(terms) != 2 {
		t.Fatalf("expected 2 pure windows, got %d: %v", len(terms), terms)
	}
}

func TestSequenceProducerCanonicalizes(t *testing.T) {
	p := SequenceProducer{Seq: []byte("AAAA"), Canonicalize: true}
	var got []byte
	err := p.ProcessTerms(4, func(term []byte) error {
		got = append([]byte(nil), term...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	// canonical(AAAA) = min(AAAA, TTTT) = AAAA
	if string(got) != "AAAA" {
		t.Fatalf("got %s, want AAAA", got)
	}
}
