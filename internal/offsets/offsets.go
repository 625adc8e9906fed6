// 包 offsets：时区标识到三元偏移（冬令/夏令/GMT 小时数）的只读映射
package offsets

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"geotz/internal/logger"
	"geotz/internal/tzerr"
)

// Offsets：相对 UTC 的小时数
type Offsets struct {
	Winter float64 `json:"winter"`
	Summer float64 `json:"summer"`
	GMT    float64 `json:"gmt"`
}

// Uniform 三个偏移取同一值（全球层与经度带）
func Uniform(v float64) Offsets { return Offsets{Winter: v, Summer: v, GMT: v} }

// Table：加载后不可变，可并发读取
type Table struct {
	m map[string]Offsets
}

// New 由现成映射构建（测试与内嵌数据使用）
func New(m map[string]Offsets) *Table {
	cp := make(map[string]Offsets, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return &Table{m: cp}
}

func (t *Table) Lookup(id string) (Offsets, bool) {
	if t == nil {
		return Offsets{}, false
	}
	o, ok := t.m[id]
	return o, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.m)
}

// Missing 返回 ids 中没有偏移记录的标识（保持输入顺序、去重）
func (t *Table) Missing(ids []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := t.Lookup(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

// 文档注释：从制表符分隔文件加载
// 约束：首行为表头；支持 (id, winter, summer, gmt) 四列与 geonames 的 (CountryCode, id, winter, summer, gmt) 五列格式；文件缺失或任一行损坏返回 Initialization 错误。
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tzerr.Initialization.Wrap(err, "open offset table %s", path)
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, tzerr.Initialization.Wrap(err, "parse offset table %s", path)
	}
	logger.L().Debug("offsets_load_done", "path", path, "records", t.Len())
	return t, nil
}

func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, tzerr.Initialization.New("offset table is empty")
	}
	if err != nil {
		return nil, tzerr.Initialization.Wrap(err, "read header")
	}
	first := 0
	if strings.EqualFold(strings.TrimSpace(header[0]), "countrycode") {
		first = 1
	}

	m := make(map[string]Offsets)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, tzerr.Initialization.Wrap(err, "read record")
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < first+4 {
			return nil, tzerr.Initialization.New("line %d: expected %d columns, got %d", line, first+4, len(rec))
		}
		id := strings.TrimSpace(rec[first])
		if id == "" {
			return nil, tzerr.Initialization.New("line %d: empty identifier", line)
		}
		var vals [3]float64
		for i := range vals {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[first+1+i]), 64)
			if err != nil {
				return nil, tzerr.Initialization.Wrap(err, "line %d column %d", line, first+2+i)
			}
			vals[i] = v
		}
		m[id] = Offsets{Winter: vals[0], Summer: vals[1], GMT: vals[2]}
	}
	return &Table{m: m}, nil
}
