package guardml

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WordPieceTokenizer is a minimal BERT-style tokenizer, enough to feed the
// classifier and to count tokens for the TokenLimit scanner.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

// LoadWordPieceTokenizer builds the tokenizer from a vocab.txt file.
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	return newTokenizerFromVocab(vocab), nil
}

func newTokenizerFromVocab(vocab map[string]int64) *WordPieceTokenizer {
	return &WordPieceTokenizer{
		vocab:        vocab,
		lowerCase:    true,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}
}

// Encode converts text into token IDs and an attention mask of length seqLen.
func (t *WordPieceTokenizer) Encode(text string, seqLen int) ([]int64, []int64) {
	if seqLen <= 0 {
		return nil, nil
	}

	tokens := []int64{t.clsID}
	for _, w := range strings.Fields(text) {
		if t.lowerCase {
			w = strings.ToLower(w)
		}
		tokens = append(tokens, t.wordPiece(w)...)
		if len(tokens) >= seqLen-1 {
			break
		}
	}
	tokens = append(tokens, t.sepID)

	if len(tokens) > seqLen {
		tokens = tokens[:seqLen]
		tokens[seqLen-1] = t.sepID
	}

	attn := make([]int64, seqLen)
	for i := 0; i < len(tokens); i++ {
		attn[i] = 1
	}

	for len(tokens) < seqLen {
		tokens = append(tokens, t.padID)
	}

	return tokens, attn
}

// CountTokens reports how many tokens text encodes to, including the
// [CLS]/[SEP] specials, without any sequence-length cap.
func (t *WordPieceTokenizer) CountTokens(text string) int {
	count := 2
	for _, w := range strings.Fields(text) {
		if t.lowerCase {
			w = strings.ToLower(w)
		}
		count += len(t.wordPiece(w))
	}
	return count
}

func (t *WordPieceTokenizer) wordPiece(token string) []int64 {
	if id, ok := t.vocab[token]; ok {
		return []int64{id}
	}

	var pieces []int64
	start := 0
	for start < len(token) {
		end := len(token)
		matched := false
		for end > start {
			sub := token[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []int64{t.unkID}
		}
	}
	if len(pieces) == 0 {
		return []int64{t.unkID}
	}
	return pieces
}
