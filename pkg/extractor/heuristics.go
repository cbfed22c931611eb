package extractor

import (
	"unicode"

	"github.com/google/uuid"
	"github.com/lexigraph/lexigraph/pkg/types"
)

// Common Chinese surnames used by the person heuristic.
var surnames = map[rune]bool{
	'张': true, '王': true, '李': true, '赵': true, '刘': true,
	'陈': true, '杨': true, '黄': true, '周': true, '吴': true,
	'徐': true, '孙': true, '马': true, '朱': true, '胡': true,
	'郭': true, '何': true, '林': true, '罗': true, '郑': true,
	'梁': true, '谢': true, '宋': true, '唐': true, '许': true,
	'韩': true, '冯': true, '邓': true, '曹': true, '彭': true,
}

// Organization and location keyword suffixes, longest first so the most
// specific suffix claims a span before a shorter one can.
var orgSuffixes = []string{
	"委员会", "研究院", "研究所", "事务所",
	"公司", "集团", "大学", "学院", "银行", "医院", "政府", "协会",
}

var locSuffixes = []string{
	"街道", "大道", "广场", "社区",
	"省", "市", "县", "区", "镇", "村", "路",
}

// trailingFunctionWords may not terminate a heuristic span and stop the
// leftward extension of suffix matches.
var trailingFunctionWords = map[rune]bool{
	'的': true, '了': true, '在': true, '是': true, '和': true,
	'与': true, '于': true, '从': true, '到': true, '对': true,
	'把': true, '被': true, '或': true, '也': true, '就': true,
}

// maxSuffixPrefixRunes bounds how far a suffix match extends leftward.
const maxSuffixPrefixRunes = 6

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isLatinOrDigit(r rune) bool {
	return r < 0x2E80 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// runeText pairs the runes of a string with their byte offsets so heuristic
// matches can report byte spans consistent with the other passes.
type runeText struct {
	runes   []rune
	offsets []int // offsets[i] is the byte offset of runes[i]; one extra for end
}

func newRuneText(text string) runeText {
	rt := runeText{}
	for off, r := range text {
		rt.runes = append(rt.runes, r)
		rt.offsets = append(rt.offsets, off)
	}
	rt.offsets = append(rt.offsets, len(text))
	return rt
}

func (rt runeText) slice(from, to int) string {
	return string(rt.runes[from:to])
}

// heuristicPass runs the built-in recognizers that are independent of
// configuration: surname-prefixed person names, organization-suffix spans
// and location-suffix spans.
func (e *Extractor) heuristicPass(documentID, text string, entities []types.Entity, seen map[span]bool) []types.Entity {
	rt := newRuneText(text)

	emit := func(from, to int, et types.EntityType) {
		start, end := rt.offsets[from], rt.offsets[to]
		if seen[span{start, end}] {
			return
		}
		seen[span{start, end}] = true
		entities = append(entities, types.Entity{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Text:       rt.slice(from, to),
			Type:       et,
			StartPos:   start,
			EndPos:     end,
			Confidence: HeuristicConfidence,
		})
	}

	e.surnamePass(rt, emit)
	e.suffixPass(rt, orgSuffixes, types.EntityTypeOrg, emit)
	e.suffixPass(rt, locSuffixes, types.EntityTypeLoc, emit)

	return entities
}

// surnamePass emits short Han spans that start with a known surname at a
// word boundary. A three-rune name is taken only when it exactly fills the
// remaining Han run; otherwise the two-rune form is used. Spans ending on a
// function word are rejected.
func (e *Extractor) surnamePass(rt runeText, emit func(from, to int, et types.EntityType)) {
	n := len(rt.runes)
	for i := 0; i < n; i++ {
		if !surnames[rt.runes[i]] {
			continue
		}
		if i > 0 && isHan(rt.runes[i-1]) {
			continue // surname must start a Han run
		}
		if i+1 >= n || !isHan(rt.runes[i+1]) || trailingFunctionWords[rt.runes[i+1]] {
			continue
		}

		to := i + 2
		if i+2 < n && isHan(rt.runes[i+2]) && !trailingFunctionWords[rt.runes[i+2]] {
			if i+3 == n || !isHan(rt.runes[i+3]) {
				to = i + 3
			}
		}
		emit(i, to, types.EntityTypePerson)
	}
}

// suffixPass finds occurrences of keyword suffixes and extends each match
// leftward to a whitespace/punctuation boundary: over a contiguous Latin or
// digit run, or over Han runes that are not function words, capped at
// maxSuffixPrefixRunes. A bare suffix with no prefix is not an entity.
func (e *Extractor) suffixPass(rt runeText, suffixes []string, et types.EntityType, emit func(from, to int, typ types.EntityType)) {
	n := len(rt.runes)
	claimed := make(map[int]bool) // rune index where a match ends

	for _, suffix := range suffixes {
		sr := []rune(suffix)
		for i := 0; i+len(sr) <= n; i++ {
			if !matchRunes(rt.runes[i:], sr) {
				continue
			}
			end := i + len(sr)
			if claimed[end] {
				continue
			}

			from := i
			if from > 0 && isLatinOrDigit(rt.runes[from-1]) {
				for from > 0 && isLatinOrDigit(rt.runes[from-1]) {
					from--
				}
			} else {
				for from > 0 && i-from < maxSuffixPrefixRunes &&
					isHan(rt.runes[from-1]) && !trailingFunctionWords[rt.runes[from-1]] {
					from--
				}
			}
			if from == i {
				continue // nothing before the suffix
			}

			claimed[end] = true
			emit(from, end, et)
		}
	}
}

func matchRunes(haystack, needle []rune) bool {
	if len(haystack) < len(needle) {
		return false
	}
	for i, r := range needle {
		if haystack[i] != r {
			return false
		}
	}
	return true
}
