package gazetteer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Line：源中的一行及其位置
type Line struct {
	File string
	No   int
	Text string
}

// Source：有序数据源，可重复遍历；两遍导入依赖相同的遍历顺序
type Source interface {
	Each(ctx context.Context, fn func(Line) error) error
}

// FileSource：单个文件或目录（按文件名字典序）组成的数据源
type FileSource struct {
	files []string
}

// Open：path 为文件时直接读取；为目录时读取其中全部普通文件（跳过隐藏文件）
func Open(path string) (*FileSource, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return &FileSource{files: []string{path}}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files in %s", path)
	}
	return &FileSource{files: files}, nil
}

func (s *FileSource) Files() []string { return append([]string(nil), s.files...) }

// Each：依序遍历全部文件的全部非空行；fn 返回错误时中止
func (s *FileSource) Each(ctx context.Context, fn func(Line) error) error {
	for _, fp := range s.files {
		f, err := os.Open(fp)
		if err != nil {
			return err
		}
		err = scan(ctx, fp, f, fn)
		_ = f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// ReaderSource：内存或流式数据，供测试与管道使用；每次遍历调用 open 重新获取
type ReaderSource struct {
	Name string
	open func() io.Reader
}

func NewReaderSource(name string, open func() io.Reader) *ReaderSource {
	return &ReaderSource{Name: name, open: open}
}

// StringSource：固定文本数据源
func StringSource(text string) *ReaderSource {
	return NewReaderSource("inline", func() io.Reader { return strings.NewReader(text) })
}

func (s *ReaderSource) Each(ctx context.Context, fn func(Line) error) error {
	return scan(ctx, s.Name, s.open(), fn)
}

func scan(ctx context.Context, name string, r io.Reader, fn func(Line) error) error {
	sc := bufio.NewScanner(r)
	// alternatenames 字段最长约 10000 字符
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	no := 0
	for sc.Scan() {
		no++
		if no%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := fn(Line{File: name, No: no, Text: text}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return ctx.Err()
}
