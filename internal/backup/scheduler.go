package backup

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

const (
	// 毎日 2:00 にバックアップ
	backupSchedule = "0 2 * * *"
	// 毎週月曜 3:00 に健全性点検
	monitorSchedule = "0 3 * * 1"
)

// Scheduler はバックアップと点検を定期実行する
type Scheduler struct {
	runner  *Runner
	monitor *Monitor
	alerter *Alerter
	cron    *cron.Cron
}

// NewScheduler は Scheduler を生成する
func NewScheduler(runner *Runner, monitor *Monitor, alerter *Alerter) *Scheduler {
	return &Scheduler{
		runner:  runner,
		monitor: monitor,
		alerter: alerter,
		cron:    cron.New(),
	}
}

// Start はスケジュールを登録して実行を開始する
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(backupSchedule, func() { s.RunBackup(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(monitorSchedule, func() { s.RunMonitor(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("backup scheduler started",
		"backup_schedule", backupSchedule, "monitor_schedule", monitorSchedule)
	return nil
}

// Stop は実行中のジョブの完了を待って停止する
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunBackup はバックアップを 1 回実行し、失敗時は管理者に通知する
func (s *Scheduler) RunBackup(ctx context.Context) {
	path, err := s.runner.Run(ctx)
	if err != nil {
		slog.Error("backup failed", "error", err)
		if alertErr := s.alerter.Alert(ctx, "CRITIQUE", "Échec de sauvegarde", err.Error()); alertErr != nil {
			slog.Error("send backup alert", "error", alertErr)
		}
		return
	}

	if err := s.runner.Verify(ctx, path); err != nil {
		slog.Error("backup verification failed", "error", err, "path", path)
		if alertErr := s.alerter.Alert(ctx, "CRITIQUE", "Sauvegarde corrompue", err.Error()); alertErr != nil {
			slog.Error("send backup alert", "error", alertErr)
		}
		return
	}
	slog.Info("backup completed", "path", path)
}

// RunMonitor は健全性点検を 1 回実行し、警告があれば管理者に通知する
func (s *Scheduler) RunMonitor(ctx context.Context) {
	warnings, err := s.monitor.Check()
	if err != nil {
		slog.Error("backup monitor failed", "error", err)
		return
	}
	for _, w := range warnings {
		slog.Warn("backup monitor warning", "warning", w)
		if alertErr := s.alerter.Alert(ctx, "AVERTISSEMENT", "Sauvegarde obsolète", w); alertErr != nil {
			slog.Error("send backup alert", "error", alertErr)
		}
	}
	if len(warnings) == 0 {
		slog.Info("backup monitor ok")
	}
}
