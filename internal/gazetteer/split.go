package gazetteer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"world-api/internal/place"
)

// LinesPerFile：切分后每个文件的行数上限
const LinesPerFile = 100000

// SplitStats：切分结果
type SplitStats struct {
	Read    int64
	Kept    int64
	Dropped int64
	Files   []string
}

// Keep：切分时的快速过滤；仅看字段数与要素代码，不做数值校验
func Keep(line string) bool {
	f := strings.SplitN(line, "\t", FieldCount+1)
	if len(f) != FieldCount {
		return false
	}
	return place.Interesting(place.FeatureCode(f[7]))
}

// Split：过滤并切分为 dir/world0000.txt、world0001.txt …；先删除 dir 中已有的 world*.txt
// 约束：输出文件名按字典序即为原始行序，可直接作为 Open 的目录数据源
func Split(ctx context.Context, src Source, dir string, perFile int) (SplitStats, error) {
	var st SplitStats
	if perFile < 1 {
		perFile = LinesPerFile
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return st, err
	}
	old, err := filepath.Glob(filepath.Join(dir, "world*.txt"))
	if err != nil {
		return st, err
	}
	for _, p := range old {
		if err := os.Remove(p); err != nil {
			return st, err
		}
	}

	var (
		f *os.File
		w *bufio.Writer
		n int
	)
	closeCur := func() error {
		if f == nil {
			return nil
		}
		err := w.Flush()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		f, w = nil, nil
		return err
	}
	err = src.Each(ctx, func(l Line) error {
		st.Read++
		if !Keep(l.Text) {
			st.Dropped++
			return nil
		}
		if f == nil || n == perFile {
			if err := closeCur(); err != nil {
				return err
			}
			p := filepath.Join(dir, fmt.Sprintf("world%04d.txt", len(st.Files)))
			nf, err := os.Create(p)
			if err != nil {
				return err
			}
			f, w, n = nf, bufio.NewWriterSize(nf, 1<<20), 0
			st.Files = append(st.Files, p)
		}
		n++
		st.Kept++
		if _, err := w.WriteString(l.Text); err != nil {
			return err
		}
		return w.WriteByte('\n')
	})
	if cerr := closeCur(); err == nil {
		err = cerr
	}
	return st, err
}
