package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultRetention は古いバックアップを保持する期間
const DefaultRetention = 7 * 24 * time.Hour

// Runner は pg_dump によるデータベースのバックアップを実行する
type Runner struct {
	databaseURL string
	dir         string
	retention   time.Duration

	// テストから差し替えるためのフック
	now     func() time.Time
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewRunner は Runner を生成する。retention が 0 以下なら DefaultRetention を使う。
func NewRunner(databaseURL, dir string, retention time.Duration) *Runner {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Runner{
		databaseURL: databaseURL,
		dir:         dir,
		retention:   retention,
		now:         time.Now,
		command:     exec.CommandContext,
	}
}

// Run はバックアップを 1 回実行し、作成したファイルのパスを返す。
// 成功後に保持期間を過ぎた古いバックアップを削除する。
func (r *Runner) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: mkdir: %w", err)
	}

	name := fmt.Sprintf("backup_%s.dump", r.now().Format("2006-01-02_15-04-05"))
	dest := filepath.Join(r.dir, name)

	// カスタム形式 (-Fc) は pg_restore で個別リストア可能
	cmd := r.command(ctx, "pg_dump", "--format=custom", "--file="+dest, r.databaseURL)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("backup: pg_dump: %w: %s", err, strings.TrimSpace(string(out)))
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("backup: stat: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(dest)
		return "", fmt.Errorf("backup: empty dump file %s", dest)
	}

	if err := r.prune(); err != nil {
		return dest, fmt.Errorf("backup: prune: %w", err)
	}
	return dest, nil
}

// Verify はバックアップファイルが pg_restore で読めることを確認する
func (r *Runner) Verify(ctx context.Context, path string) error {
	cmd := r.command(ctx, "pg_restore", "--list", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("backup: pg_restore --list: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// prune は保持期間を過ぎたバックアップファイルを削除する
func (r *Runner) prune() error {
	files, err := r.list()
	if err != nil {
		return err
	}
	cutoff := r.now().Add(-r.retention)
	for _, f := range files {
		if f.ModTime.Before(cutoff) {
			if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

// File はバックアップディレクトリ内の 1 ファイル
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// list はバックアップファイルを新しい順に返す
func (r *Runner) list() ([]File, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".dump") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			Path:    filepath.Join(r.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}
