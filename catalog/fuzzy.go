package catalog

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// trailingYear 匹配标题末尾的发行年份，例如 "Toy Story (1995)"。
var trailingYear = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)

// normalize 把标题/查询规整为可比较的形式：
// 去掉重音符号、大小写折叠、去掉末尾年份、标点替换为空格、压缩空白。
func normalize(s string) string {
	// transform.Transformer 与 cases.Caser 都带状态，每次调用新建
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = cases.Fold().String(s)
	s = trailingYear.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ratio 返回 0-100 的整体相似度：100 * (1 - levenshtein / 较长串的 rune 数)。
// 任一为空时返回 0。
func ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}

// tokenSetRatio 按词集合比较，对词序与多余词不敏感：
// 以交集为基准，分别拼上各自的差集，取三两组合中的最高 ratio。
func tokenSetRatio(a, b string) int {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range sb {
		if _, ok := sa[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	return max(ratio(t0, t1), ratio(t0, t2), ratio(t1, t2))
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		out[tok] = struct{}{}
	}
	return out
}

// score 对两个已规整的字符串打分：GREATEST(ratio, token_set_ratio)。
// 同时返回 ratio 供并列时排序。
func score(query, title string) (best, direct int) {
	direct = ratio(query, title)
	return max(direct, tokenSetRatio(query, title)), direct
}
