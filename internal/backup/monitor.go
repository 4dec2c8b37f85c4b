package backup

import (
	"fmt"
	"time"
)

// maxBackupAge を超えて新しいバックアップが無ければ警告する
const maxBackupAge = 24 * time.Hour

// Monitor はバックアップの健全性を点検する
type Monitor struct {
	runner *Runner

	now func() time.Time
}

// NewMonitor は Monitor を生成する
func NewMonitor(runner *Runner) *Monitor {
	return &Monitor{runner: runner, now: time.Now}
}

// Check はバックアップディレクトリを点検し、問題があれば警告メッセージを返す。
// 問題が無ければ空スライスを返す。
func (m *Monitor) Check() ([]string, error) {
	files, err := m.runner.list()
	if err != nil {
		return nil, fmt.Errorf("backup: list: %w", err)
	}

	var warnings []string
	if len(files) == 0 {
		warnings = append(warnings, "Aucune sauvegarde trouvée.")
		return warnings, nil
	}

	newest := files[0]
	if age := m.now().Sub(newest.ModTime); age > maxBackupAge {
		warnings = append(warnings,
			fmt.Sprintf("La dernière sauvegarde date de plus de %d heures.", int(age.Hours())))
	}
	if newest.Size == 0 {
		warnings = append(warnings, "La dernière sauvegarde est vide.")
	}
	return warnings, nil
}
