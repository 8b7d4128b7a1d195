package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/spaolacci/murmur3"

	"regis_chat_backend/models"
)

// SparseEncoder produces BM25 term-frequency vectors. IDF is applied by the
// collection's sparse index modifier, so documents carry only the saturated tf part.
type SparseEncoder struct {
	k            float64
	b            float64
	avgLen       float64
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewSparseEncoder() *SparseEncoder {
	return &SparseEncoder{
		k:            1.2,
		b:            0.75,
		avgLen:       256,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{M}\p{N}]+`),
		stopwords:    defaultStopwords(),
	}
}

// Tokens splits text into lowercase terms. Thai has no word separators, so
// runs of Thai script are indexed as overlapping character bigrams.
func (e *SparseEncoder) Tokens(text string) []string {
	var out []string
	for _, tok := range e.tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		if !isThai(tok) {
			out = append(out, tok)
			continue
		}
		runes := []rune(tok)
		if len(runes) <= 2 {
			out = append(out, tok)
			continue
		}
		for i := 0; i+1 < len(runes); i++ {
			out = append(out, string(runes[i:i+2]))
		}
	}
	return out
}

func (e *SparseEncoder) EncodeDocument(text string) models.SparseVector {
	tokens := e.Tokens(text)
	if len(tokens) == 0 {
		return models.SparseVector{}
	}
	tf := make(map[uint32]float64, len(tokens))
	for _, tok := range tokens {
		tf[tokenID(tok)]++
	}
	norm := e.k * (1 - e.b + e.b*float64(len(tokens))/e.avgLen)
	weights := make(map[uint32]float32, len(tf))
	for id, f := range tf {
		weights[id] = float32(f * (e.k + 1) / (f + norm))
	}
	return sortedVector(weights)
}

// EncodeQuery weights each distinct query term 1.0.
func (e *SparseEncoder) EncodeQuery(text string) models.SparseVector {
	weights := make(map[uint32]float32)
	for _, tok := range e.Tokens(text) {
		weights[tokenID(tok)] = 1
	}
	return sortedVector(weights)
}

func tokenID(tok string) uint32 {
	h := int32(murmur3.Sum32([]byte(tok)))
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

func sortedVector(weights map[uint32]float32) models.SparseVector {
	if len(weights) == 0 {
		return models.SparseVector{}
	}
	v := models.SparseVector{
		Indices: make([]uint32, 0, len(weights)),
		Values:  make([]float32, 0, len(weights)),
	}
	for id := range weights {
		v.Indices = append(v.Indices, id)
	}
	sort.Slice(v.Indices, func(i, j int) bool { return v.Indices[i] < v.Indices[j] })
	for _, id := range v.Indices {
		v.Values = append(v.Values, weights[id])
	}
	return v
}

func isThai(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Thai, r) {
			return true
		}
	}
	return false
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from", "if", "in",
		"into", "is", "it", "its", "of", "on", "or", "such", "that", "the", "their", "then",
		"there", "these", "they", "this", "to", "was", "will", "with", "i", "you", "we", "do",
		"how", "what", "can", "my", "me",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
