package model

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opsxjacky/ec-forecast/internal/resample"
	"github.com/opsxjacky/ec-forecast/pkg/types"
)

// ArtifactFile 模型目录下的描述文件名
const ArtifactFile = "model.yaml"

// DefaultQuantileLevels 默认输出分位数
var DefaultQuantileLevels = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// Params 模型参数
type Params struct {
	SeasonLength int       `yaml:"season_length"`
	Alpha        float64   `yaml:"alpha"`
	AR           []float64 `yaml:"ar"`
	MA           []float64 `yaml:"ma"`
	D            int       `yaml:"d"`
	Intercept    float64   `yaml:"intercept"`
}

// Artifact 已训练模型的描述
type Artifact struct {
	Name             string    `yaml:"name"`
	Kind             string    `yaml:"kind"`
	PredictionLength int       `yaml:"prediction_length"`
	Freq             string    `yaml:"freq"`
	Target           string    `yaml:"target"`
	IDColumn         string    `yaml:"id_column"`
	TimestampColumn  string    `yaml:"timestamp_column"`
	QuantileLevels   []float64 `yaml:"quantile_levels"`
	Params           `yaml:",inline"`

	// Path 模型目录
	Path string `yaml:"-"`
}

// Load 从 modelsDir/name 加载模型描述
func Load(modelsDir, name string) (*Artifact, error) {
	if name == "" {
		return nil, &types.ArgumentError{Msg: "model_name is required"}
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, &types.ArgumentError{Msg: fmt.Sprintf("invalid model name %q", name)}
	}

	dir := filepath.Join(modelsDir, name)
	data, err := os.ReadFile(filepath.Join(dir, ArtifactFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &types.LookupError{Kind: "model", Name: name, Available: List(modelsDir)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", name, err)
	}

	a := &Artifact{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(a); err != nil {
		return nil, fmt.Errorf("failed to parse model %s: %w", name, err)
	}
	a.Path = dir
	if a.Name == "" {
		a.Name = name
	}
	a.applyDefaults()
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", name, err)
	}
	return a, nil
}

// List 列出 modelsDir 下包含 model.yaml 的目录
func List(modelsDir string) []string {
	entries, err := os.ReadDir(modelsDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(modelsDir, e.Name(), ArtifactFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (a *Artifact) applyDefaults() {
	if a.Freq == "" {
		a.Freq = "H"
	}
	if a.Target == "" {
		a.Target = "EC[g/l]"
	}
	if a.IDColumn == "" {
		a.IDColumn = "item_id"
	}
	if a.TimestampColumn == "" {
		a.TimestampColumn = "timestamp"
	}
	if len(a.QuantileLevels) == 0 {
		a.QuantileLevels = append([]float64(nil), DefaultQuantileLevels...)
	}
}

// Validate 检查模型描述
func (a *Artifact) Validate() error {
	if a.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if a.PredictionLength < 1 {
		return fmt.Errorf("prediction_length must be at least 1")
	}
	if _, err := resample.ParseFrequency(a.Freq); err != nil {
		return err
	}
	for _, q := range a.QuantileLevels {
		if q <= 0 || q >= 1 {
			return fmt.Errorf("quantile level %v out of range (0, 1)", q)
		}
	}
	return nil
}

// Step 预测步长
func (a *Artifact) Step() (time.Duration, error) {
	return resample.ParseFrequency(a.Freq)
}
