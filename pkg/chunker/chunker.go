// Package chunker implements the chunking engine: semantic and adaptive
// splitting of raw text into retrieval-sized, optionally overlapping chunks,
// plus quality analysis over the result.
package chunker

import (
	"strings"

	"github.com/lexigraph/lexigraph/pkg/textutil"
)

// Options bounds a chunking pass. Sizes are measured in runes so CJK and
// Latin text behave the same.
type Options struct {
	MaxSize int
	MinSize int
	Overlap int
}

// DefaultOptions returns the chunking bounds used when a caller passes the
// zero value.
func DefaultOptions() Options {
	return Options{
		MaxSize: 800,
		MinSize: 100,
		Overlap: 50,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxSize <= 0 {
		o.MaxSize = def.MaxSize
	}
	if o.MinSize <= 0 {
		o.MinSize = def.MinSize
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	return o
}

func runeLen(s string) int {
	return len([]rune(s))
}

// buffer accumulates sentences for one in-progress chunk. The seed is the
// overlap tail carried over from the previously flushed chunk; it is not a
// whole sentence of the current buffer.
type buffer struct {
	seed      string
	sentences []string
	length    int
}

func (b *buffer) append(sentence string) {
	b.sentences = append(b.sentences, sentence)
	b.length += runeLen(sentence)
}

func (b *buffer) text() string {
	var sb strings.Builder
	sb.WriteString(b.seed)
	for _, s := range b.sentences {
		sb.WriteString(s)
	}
	return sb.String()
}

func (b *buffer) reset(seed string) {
	b.seed = seed
	b.sentences = b.sentences[:0]
	b.length = runeLen(seed)
}

// overlapTail returns the longest run of whole trailing sentences whose
// combined length fits in overlap. When even the last sentence is too long
// it falls back to a raw rune suffix of the flushed text.
func overlapTail(flushed string, sentences []string, overlap int) string {
	if overlap <= 0 {
		return ""
	}

	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		l := runeLen(sentences[i])
		if total+l > overlap {
			break
		}
		total += l
		start = i
	}
	if start < len(sentences) {
		return strings.Join(sentences[start:], "")
	}

	runes := []rune(flushed)
	if len(runes) <= overlap {
		return flushed
	}
	return string(runes[len(runes)-overlap:])
}

// Semantic splits text into chunks of at most MaxSize runes, accumulating
// whole sentences greedily and seeding each new chunk with an overlap tail
// from the previous one. A buffer still below MinSize force-appends the next
// sentence even when that overshoots MaxSize; an undersized chunk is worse
// than an oversized one. Empty input yields an empty result, never an error.
func Semantic(text string, opts Options) []string {
	opts = opts.withDefaults()
	sentences := textutil.SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buf buffer

	for _, sentence := range sentences {
		if buf.length == 0 || buf.length+runeLen(sentence) <= opts.MaxSize {
			buf.append(sentence)
			continue
		}

		if buf.length >= opts.MinSize {
			flushed := buf.text()
			chunks = append(chunks, flushed)
			buf.reset(overlapTail(flushed, buf.sentences, opts.Overlap))
			buf.append(sentence)
			continue
		}

		// Under MinSize: keep growing past MaxSize rather than emit a runt.
		buf.append(sentence)
	}

	if buf.length >= opts.MinSize {
		chunks = append(chunks, buf.text())
	}
	return chunks
}

// AdaptiveOptions bounds an adaptive chunking pass.
type AdaptiveOptions struct {
	TargetSize int
	MinSize    int
	MaxSize    int
}

// DefaultAdaptiveOptions returns the adaptive bounds used for the zero value.
func DefaultAdaptiveOptions() AdaptiveOptions {
	return AdaptiveOptions{
		TargetSize: 500,
		MinSize:    100,
		MaxSize:    1000,
	}
}

func (o AdaptiveOptions) withDefaults() AdaptiveOptions {
	def := DefaultAdaptiveOptions()
	if o.TargetSize <= 0 {
		o.TargetSize = def.TargetSize
	}
	if o.MinSize <= 0 {
		o.MinSize = def.MinSize
	}
	if o.MaxSize <= 0 {
		o.MaxSize = def.MaxSize
	}
	return o
}

// Adaptive runs the same sentence-accumulation loop as Semantic but with an
// alternating ceiling: MaxSize while the buffer is below TargetSize, then
// TargetSize once reached. Chunk sizes are biased toward TargetSize without
// ever exceeding MaxSize.
func Adaptive(text string, opts AdaptiveOptions) []string {
	opts = opts.withDefaults()
	sentences := textutil.SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buf buffer

	for _, sentence := range sentences {
		ceiling := opts.MaxSize
		if buf.length >= opts.TargetSize {
			ceiling = opts.TargetSize
		}

		if buf.length == 0 || buf.length+runeLen(sentence) <= ceiling {
			buf.append(sentence)
			continue
		}

		if buf.length >= opts.MinSize {
			chunks = append(chunks, buf.text())
			buf.reset("")
			buf.append(sentence)
			continue
		}

		buf.append(sentence)
	}

	if buf.length >= opts.MinSize {
		chunks = append(chunks, buf.text())
	}
	return chunks
}

// SizeHistogram buckets chunk sizes: small below 200 runes, large above 800,
// medium in between.
type SizeHistogram struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
}

// Quality summarizes a chunking pass.
type Quality struct {
	Count                 int           `json:"count"`
	AvgSize               float64       `json:"avg_size"`
	MinSize               int           `json:"min_size"`
	MaxSize               int           `json:"max_size"`
	Histogram             SizeHistogram `json:"histogram"`
	AvgAdjacentSimilarity float64       `json:"avg_adjacent_similarity"`
}

// AnalyzeQuality computes size statistics and the average token-Jaccard
// similarity of adjacent chunk pairs. Adjacent similarity is a proxy for how
// well the overlap preserves context across chunk boundaries.
func AnalyzeQuality(chunks []string) Quality {
	if len(chunks) == 0 {
		return Quality{}
	}

	q := Quality{Count: len(chunks), MinSize: runeLen(chunks[0]), MaxSize: runeLen(chunks[0])}
	total := 0
	for _, c := range chunks {
		size := runeLen(c)
		total += size
		if size < q.MinSize {
			q.MinSize = size
		}
		if size > q.MaxSize {
			q.MaxSize = size
		}
		switch {
		case size < 200:
			q.Histogram.Small++
		case size > 800:
			q.Histogram.Large++
		default:
			q.Histogram.Medium++
		}
	}
	q.AvgSize = float64(total) / float64(len(chunks))

	if len(chunks) > 1 {
		sum := 0.0
		for i := 0; i+1 < len(chunks); i++ {
			sum += textutil.Similarity(chunks[i], chunks[i+1])
		}
		q.AvgAdjacentSimilarity = sum / float64(len(chunks)-1)
	}
	return q
}
