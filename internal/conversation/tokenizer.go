package conversation

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultCharsPerToken is the ratio used by Estimator.
const DefaultCharsPerToken = 4

// Tokenizer counts tokens in text.
type Tokenizer interface {
	Count(text string) int
}

// Estimator approximates token counts from the rune count.
type Estimator struct {
	CharsPerToken int
}

func (e Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	per := e.CharsPerToken
	if per <= 0 {
		per = DefaultCharsPerToken
	}
	n := utf8.RuneCountInString(text)
	return (n + per - 1) / per
}

// TiktokenTokenizer counts tokens with a BPE encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the encoding for model, falling back to
// cl100k_base for models tiktoken does not know. Loading may need network
// access the first time unless TIKTOKEN_CACHE_DIR is populated.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding: %w", err)
		}
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}
