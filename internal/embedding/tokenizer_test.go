package embedding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("hello world", 10)
	if len(ids) != 10 {
		t.Errorf("len(ids)=%d", len(ids))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("expected SEP 102 after two words, got %d", ids[3])
	}
	if attn[0] != 1 || attn[4] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  The cat, the HAT.  ")
	want := []string{"the", "cat", "the", "hat"}
	if len(words) != len(want) {
		t.Fatalf("got %v", words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, words[i], want[i])
		}
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
	if SplitWords(" ... ") != nil {
		t.Error("punctuation only should return nil")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("a long string that would overflow a naive hash") < 0 {
		t.Error("hash should be non-negative")
	}
}

func writeVocab(t *testing.T, tokens ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(tokens, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWordPieceTokenizer_Tokenize(t *testing.T) {
	// IDs are line numbers: [PAD]=0 [UNK]=1 [CLS]=2 [SEP]=3 the=4 warrant=5 ##y=6 lasts=7 .=8
	path := writeVocab(t, "[PAD]", "[UNK]", "[CLS]", "[SEP]", "the", "warrant", "##y", "lasts", ".")
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatalf("LoadWordPieceTokenizer: %v", err)
	}

	ids, attn, types := tok.Tokenize("The warranty lasts zzz.", 10)
	want := []int64{2, 4, 5, 6, 7, 1, 8, 3, 0, 0}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	for i := range attn {
		wantMask := int64(0)
		if i < 8 {
			wantMask = 1
		}
		if attn[i] != wantMask {
			t.Fatalf("attention mask = %v", attn)
		}
		if types[i] != 0 {
			t.Fatalf("token types = %v", types)
		}
	}
}

func TestWordPieceTokenizer_truncatesAndKeepsSep(t *testing.T) {
	path := writeVocab(t, "[PAD]", "[UNK]", "[CLS]", "[SEP]", "the")
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatal(err)
	}
	ids, _, _ := tok.Tokenize("the the the the the the", 4)
	want := []int64{2, 4, 4, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestLoadWordPieceTokenizer_requiresSpecialTokens(t *testing.T) {
	path := writeVocab(t, "[PAD]", "[CLS]", "[SEP]", "the")
	if _, err := LoadWordPieceTokenizer(path); err == nil {
		t.Fatal("expected error for vocabulary without [UNK]")
	}
	if _, err := LoadWordPieceTokenizer(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing vocabulary file")
	}
}

func TestVocabPathFor(t *testing.T) {
	if got := VocabPathFor("/models/minilm/model.onnx", ""); got != filepath.Join("/models/minilm", "vocab.txt") {
		t.Errorf("default vocab path = %q", got)
	}
	if got := VocabPathFor("/models/minilm/model.onnx", "/etc/vocab.txt"); got != "/etc/vocab.txt" {
		t.Errorf("explicit vocab path = %q", got)
	}
}
