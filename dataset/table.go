// Package dataset 读写以分隔符切分的纯文本表（物品表、用户表、评分表）。
//
// 每行一条记录，空行跳过；用户表与评分表只追加、不改写。
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rushteam/recbot/core"
)

// 支持的文本编码
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1"
)

// TableConfig 描述一张表的位置与格式。
type TableConfig struct {
	Path      string `yaml:"path" env:"FILE"`
	Delimiter string `yaml:"delimiter" env:"DELIMITER"` // "|"、"\t"，也接受 "tab" / "pipe"
	Encoding  string `yaml:"encoding" env:"ENCODING"`   // utf-8（默认）或 latin1
}

// Sep 返回实际分隔符。
func (c TableConfig) Sep() string {
	switch strings.ToLower(c.Delimiter) {
	case "", "pipe":
		return "|"
	case "tab", `\t`:
		return "\t"
	}
	return c.Delimiter
}

func (c TableConfig) reader(r io.Reader) (io.Reader, error) {
	switch strings.ToLower(c.Encoding) {
	case "", EncodingUTF8, "utf8":
		return r, nil
	case EncodingLatin1, "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", c.Encoding)
}

// scan 逐行读取表，fn 收到 1 起始的行号与切分后的字段。
// missingOK 为 true 时文件不存在视为空表。
func scan(cfg TableConfig, missingOK bool, fn func(line int, fields []string) error) error {
	f, err := os.Open(cfg.Path)
	if err != nil {
		if missingOK && os.IsNotExist(err) {
			return nil
		}
		return core.ErrStorageFailure.Wrap(err, cfg.Path)
	}
	defer f.Close()

	r, err := cfg.reader(f)
	if err != nil {
		return core.ErrStorageFailure.Wrap(err, cfg.Path)
	}

	sep := cfg.Sep()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := fn(line, strings.Split(text, sep)); err != nil {
			return core.ErrStorageFailure.Wrap(err, fmt.Sprintf("%s:%d", cfg.Path, line))
		}
	}
	if err := sc.Err(); err != nil {
		return core.ErrStorageFailure.Wrap(err, cfg.Path)
	}
	return nil
}

// appender 串行化对同一文件的追加写。
type appender struct {
	mu  sync.Mutex
	cfg TableConfig
}

// appendRow 追加一行并 fsync。若文件末尾缺少换行会先补齐。
func (a *appender) appendRow(fields []string) error {
	sep := a.cfg.Sep()
	for _, f := range fields {
		if strings.Contains(f, sep) || strings.ContainsAny(f, "\r\n") {
			return core.ErrInvalidInput.With(fmt.Sprintf("field %q contains a delimiter or newline", f))
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.cfg.Path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return core.ErrStorageFailure.Wrap(err, a.cfg.Path)
	}

	row := strings.Join(fields, sep) + "\n"
	if st, err := f.Stat(); err == nil && st.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, st.Size()-1); err == nil && last[0] != '\n' {
			row = "\n" + row
		}
	}

	if _, err := f.WriteString(row); err != nil {
		f.Close()
		return core.ErrStorageFailure.Wrap(err, a.cfg.Path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return core.ErrStorageFailure.Wrap(err, a.cfg.Path)
	}
	if err := f.Close(); err != nil {
		return core.ErrStorageFailure.Wrap(err, a.cfg.Path)
	}
	return nil
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return strings.TrimSpace(fields[i])
	}
	return ""
}
