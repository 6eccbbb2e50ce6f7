// Package catalog 维护物品全集（id ↔ 标题），并把自由文本解析为目录中的物品。
package catalog

import (
	"sort"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/dataset"
)

// DefaultThreshold 是模糊匹配的默认工作点（0-100）。
const DefaultThreshold = 70

// Match 是一次解析的结果。
type Match struct {
	ItemID int64
	Title  string
	Score  int
}

type entry struct {
	title string
	norm  string
	id    int64
	order int
}

// Catalog 加载后只读，可并发使用。
//
// 标题重复时 id 以最后一次出现为准，但标题保持首次出现的位置。
type Catalog struct {
	entries []entry
	byTitle map[string]int
	byID    map[int64]string
}

// New 从物品表记录构建目录。
func New(records []dataset.ItemRecord) *Catalog {
	c := &Catalog{
		entries: make([]entry, 0, len(records)),
		byTitle: make(map[string]int, len(records)),
		byID:    make(map[int64]string, len(records)),
	}
	for _, rec := range records {
		c.byID[rec.ID] = rec.Title
		if idx, ok := c.byTitle[rec.Title]; ok {
			c.entries[idx].id = rec.ID
			continue
		}
		c.byTitle[rec.Title] = len(c.entries)
		c.entries = append(c.entries, entry{
			title: rec.Title,
			norm:  normalize(rec.Title),
			id:    rec.ID,
			order: len(c.entries),
		})
	}
	return c
}

// Load 读取物品表并构建目录。
func Load(cfg dataset.TableConfig) (*Catalog, error) {
	records, err := dataset.ReadItems(cfg)
	if err != nil {
		return nil, err
	}
	return New(records), nil
}

// Len 返回不同标题的数量。
func (c *Catalog) Len() int { return len(c.entries) }

// Title 返回物品 id 对应的标题。
func (c *Catalog) Title(id int64) (string, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// ItemID 精确按标题查 id。
func (c *Catalog) ItemID(title string) (int64, bool) {
	idx, ok := c.byTitle[title]
	if !ok {
		return 0, false
	}
	return c.entries[idx].id, true
}

type candidate struct {
	entry  *entry
	score  int
	direct int
}

// less 定义确定性的排序：分数降序 → 整体 ratio 降序 → 标题字典序 → 加载顺序。
func (a candidate) less(b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.direct != b.direct {
		return a.direct > b.direct
	}
	if a.entry.title != b.entry.title {
		return a.entry.title < b.entry.title
	}
	return a.entry.order < b.entry.order
}

// Resolve 返回与 query 最相似的物品。
// 最高分低于 threshold（<=0 时使用 DefaultThreshold）、query 为空或目录为空时返回 core.ErrItemNotFound。
func (c *Catalog) Resolve(query string, threshold int) (Match, error) {
	matches := c.Search(query, threshold, 1)
	if len(matches) == 0 {
		return Match{}, core.ErrItemNotFound.With(query)
	}
	return matches[0], nil
}

// Search 返回分数不低于 threshold 的前 limit 个匹配，排序规则同 Resolve。
func (c *Catalog) Search(query string, threshold, limit int) []Match {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	q := normalize(query)
	if q == "" || len(c.entries) == 0 || limit <= 0 {
		return nil
	}

	var found []candidate
	for i := range c.entries {
		e := &c.entries[i]
		s, d := score(q, e.norm)
		if s < threshold {
			continue
		}
		found = append(found, candidate{entry: e, score: s, direct: d})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].less(found[j]) })
	if len(found) > limit {
		found = found[:limit]
	}

	out := make([]Match, 0, len(found))
	for _, f := range found {
		out = append(out, Match{ItemID: f.entry.id, Title: f.entry.title, Score: f.score})
	}
	return out
}
