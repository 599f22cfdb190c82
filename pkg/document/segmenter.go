package document

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Segmenter splits a sentence into the words a user would commit one by one.
type Segmenter interface {
	Segment(sentence string) ([]string, error)
}

// Whitespace segments space separated scripts. Punctuation around a word is
// dropped; apostrophes and hyphens inside a word are kept.
type Whitespace struct{}

// Segment implements Segmenter.
func (Whitespace) Segment(sentence string) ([]string, error) {
	var words []string
	for _, f := range strings.Fields(sentence) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words, nil
}

// The IPA dictionary is large; every Kagome segmenter shares one tokenizer.
var ipaTokenizer = sync.OnceValues(func() (*tokenizer.Tokenizer, error) {
	return tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
})

// Kagome segments Japanese text with the kagome morphological analyzer.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome creates a Japanese segmenter.
func NewKagome() (*Kagome, error) {
	t, err := ipaTokenizer()
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

// Segment implements Segmenter. Symbols (記号) and whitespace tokens are skipped.
func (k *Kagome) Segment(sentence string) ([]string, error) {
	var words []string
	for _, token := range k.t.Tokenize(sentence) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}
		if pos := token.POS(); len(pos) > 0 && pos[0] == "記号" {
			continue
		}
		words = append(words, token.Surface)
	}
	return words, nil
}

// SegmenterFor picks the segmenter for a locale code such as "en" or "ja_JP".
func SegmenterFor(locale string) (Segmenter, error) {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "_-"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "ja" {
		return NewKagome()
	}
	return Whitespace{}, nil
}
