package main

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsxjacky/ec-forecast/internal/config"
	"github.com/opsxjacky/ec-forecast/internal/data"
	"github.com/opsxjacky/ec-forecast/internal/logging"
	"github.com/opsxjacky/ec-forecast/internal/metrics"
	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// app 各子命令共享的运行环境
type app struct {
	configPath  string
	envFile     string
	logLevel    string
	metricsFile string

	cfg      *config.Config
	logger   *zap.SugaredLogger
	metrics  *metrics.Collector
	registry *data.Registry
	runID    string
}

// setup 加载配置, 初始化日志, 指标和数据集注册表
func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.GetLogLevel()
	}
	logger, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.runID = uuid.NewString()
	a.logger = logger.With("run_id", a.runID)

	a.metrics = metrics.NewCollector(cfg.GetMetricsNamespace())
	if a.metricsFile == "" {
		a.metricsFile = cfg.Metrics.File
	}

	a.registry = data.NewRegistry()
	data.RegisterBuiltins(a.registry, cfg.GetPath("DummyDataset", data.DefaultDummyPath))
	if err := data.RegisterSources(a.registry, cfg.ToSourceConfigs()); err != nil {
		return fmt.Errorf("failed to register datasets: %w", err)
	}
	return nil
}

// close 导出指标并刷新日志
func (a *app) close() error {
	var err error
	if a.metrics != nil && a.metricsFile != "" {
		err = a.metrics.WriteFile(a.metricsFile)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func (a *app) logError(err error) {
	if a.logger == nil {
		return
	}
	a.logger.Errorw("command failed", "kind", types.ErrorKind(err), "error", err)
	_ = a.logger.Sync()
}
