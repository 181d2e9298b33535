// Package config 合并 CLI 参数、环境变量、配置文件与默认值，得到一次运行的最终配置。
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/acrofind/internal/domain"
	"github.com/John-Robertt/acrofind/internal/logx"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件（--config / ACROFIND_CONFIG）不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或某个取值不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
)

const (
	// DefaultFileName 是在 cwd 下自动发现的配置文件名（可选）；同名 .yaml/.yml 也会被识别。
	DefaultFileName = "acrofind.toml"
	// UserConfigDir 是 XDG 配置目录下的子目录，其中的 config.toml|yaml|yml 作为用户级配置。
	UserConfigDir = "acrofind"
	// DotEnvFileName 是在 cwd 下自动读取的环境变量文件（可选）。
	DotEnvFileName = ".env"
	// EnvPrefix 是所有环境变量的前缀。
	EnvPrefix = "ACROFIND_"
)

const (
	EnvConfig          = EnvPrefix + "CONFIG"
	EnvKnownAcronyms   = EnvPrefix + "KNOWN_ACRONYMS"
	EnvExcludeAcronyms = EnvPrefix + "EXCLUDE_ACRONYMS"
	EnvLogLevel        = EnvPrefix + "LOG_LEVEL"
	EnvLogFormat       = EnvPrefix + "LOG_FORMAT"
	EnvLogFile         = EnvPrefix + "LOG_FILE"
	EnvReport          = EnvPrefix + "REPORT"
	EnvWriteSlide      = EnvPrefix + "WRITE_SLIDE"
	EnvFailOnNew       = EnvPrefix + "FAIL_ON_NEW"
)

// CLIArgs 是 CLI 暴露的全部入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --write-slide=false 必须能覆盖配置中的 write_slide = true。
type CLIArgs struct {
	Path string

	ConfigPath string

	KnownAcronyms    string
	KnownAcronymsSet bool

	ExcludeAcronyms    string
	ExcludeAcronymsSet bool

	LogLevel    string
	LogLevelSet bool

	LogFormat    string
	LogFormatSet bool

	LogFile    string
	LogFileSet bool

	Report    string
	ReportSet bool

	WriteSlide    bool
	WriteSlideSet bool

	FailOnNew    bool
	FailOnNewSet bool
}

// FileConfig 对应 acrofind.toml 的解析结构（未知字段报错）。
//
// 同一结构也接受 YAML（扩展名 .yaml/.yml），字段名相同。
type FileConfig struct {
	KnownAcronyms   string    `toml:"known_acronyms" yaml:"known_acronyms"`
	ExcludeAcronyms string    `toml:"exclude_acronyms" yaml:"exclude_acronyms"`
	Exclusions      []string  `toml:"exclusions" yaml:"exclusions"`
	Report          string    `toml:"report" yaml:"report"`
	WriteSlide      *bool     `toml:"write_slide" yaml:"write_slide"`
	FailOnNew       *bool     `toml:"fail_on_new" yaml:"fail_on_new"`
	Log             LogConfig `toml:"log" yaml:"log"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	File   string `toml:"file" yaml:"file"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（路径一律为绝对路径；空串表示未启用）。
type EffectiveConfig struct {
	Path string

	KnownAcronyms   string
	ExcludeAcronyms string
	// ExtraExclusions 来自配置文件 exclusions 数组，与内置排除项、排除表合并使用。
	ExtraExclusions []domain.Acronym

	LogLevel  slog.Level
	LogFormat string
	LogFile   string

	ReportPath string
	WriteSlide bool
	FailOnNew  bool

	// ConfigFile 是实际读取的配置文件；未读取任何文件时为空。
	ConfigFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LookupFunc 与 os.LookupEnv 同签名；测试中可注入。
type LookupFunc func(key string) (string, bool)

// LoadEffective 发现并读取配置文件与环境变量，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) --config 或 ACROFIND_CONFIG 指定的文件（必须存在）
// 2) 否则 <cwd>/acrofind.toml|yaml|yml（可选，第一个存在的生效）
// 3) 否则 $XDG_CONFIG_HOME/acrofind/config.toml|yaml|yml（可选）
// 另外，<cwd>/.env 只补充进程环境中没有的变量。
//
// 覆盖优先级（固定）：CLI > 环境变量 > 配置文件 > 默认值。
// 相对路径：CLI 与环境变量相对 cwd，配置文件中的路径相对配置文件所在目录。
func LoadEffective(cwd string, cli CLIArgs, lookup LookupFunc) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env, err := newEnv(filepath.Join(cwdAbs, DotEnvFileName), lookup)
	if err != nil {
		return EffectiveConfig{}, err
	}

	if strings.TrimSpace(cli.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: errors.New("缺少演示文稿路径")}
	}

	var cfgPath string
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
	} else if p, ok := env.get(EnvConfig); ok {
		cfgPath = absCleanFrom(cwdAbs, p)
	}
	if cfgPath != "" {
		fc, exists, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		return merge(cwdAbs, cli, env, fc, cfgPath)
	}

	candidates := make([]string, 0, 6)
	for _, ext := range configExts {
		candidates = append(candidates, filepath.Join(cwdAbs, strings.TrimSuffix(DefaultFileName, ".toml")+ext))
	}
	if p, ok := userConfigFile(); ok {
		candidates = append(candidates, p)
	}
	for _, p := range candidates {
		fc, exists, err := readFileConfig(p)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
		}
		if exists {
			return merge(cwdAbs, cli, env, fc, p)
		}
	}
	return merge(cwdAbs, cli, env, FileConfig{}, "")
}

var configExts = []string{".toml", ".yaml", ".yml"}

// userConfigFile 在 XDG 配置目录中查找用户级配置；测试中可替换。
var userConfigFile = func() (string, bool) {
	for _, ext := range configExts {
		if p, err := xdg.SearchConfigFile(filepath.Join(UserConfigDir, "config"+ext)); err == nil {
			return p, true
		}
	}
	return "", false
}

func merge(cwdAbs string, cli CLIArgs, env envSource, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	cfgDir := cwdAbs
	if cfgPath != "" {
		cfgDir = filepath.Dir(cfgPath)
	}
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	// 路径类字段：CLI > env > file；file 中的相对路径以配置文件目录为基准。
	pathValue := func(cliV string, cliSet bool, envKey, fileV string) string {
		switch {
		case cliSet:
			return absCleanFrom(cwdAbs, cliV)
		case env.has(envKey):
			v, _ := env.get(envKey)
			return absCleanFrom(cwdAbs, v)
		default:
			return absCleanFrom(cfgDir, fileV)
		}
	}
	stringValue := func(cliV string, cliSet bool, envKey, fileV string) string {
		switch {
		case cliSet:
			return strings.TrimSpace(cliV)
		case env.has(envKey):
			v, _ := env.get(envKey)
			return v
		default:
			return strings.TrimSpace(fileV)
		}
	}
	boolValue := func(cliV, cliSet bool, envKey string, fileV *bool) (bool, error) {
		switch {
		case cliSet:
			return cliV, nil
		case env.has(envKey):
			v, _ := env.get(envKey)
			b, err := strconv.ParseBool(v)
			if err != nil {
				return false, fmt.Errorf("环境变量 %s 不是布尔值：%q", envKey, v)
			}
			return b, nil
		case fileV != nil:
			return *fileV, nil
		default:
			return false, nil
		}
	}

	eff := EffectiveConfig{
		Path:            absCleanFrom(cwdAbs, cli.Path),
		KnownAcronyms:   pathValue(cli.KnownAcronyms, cli.KnownAcronymsSet, EnvKnownAcronyms, fc.KnownAcronyms),
		ExcludeAcronyms: pathValue(cli.ExcludeAcronyms, cli.ExcludeAcronymsSet, EnvExcludeAcronyms, fc.ExcludeAcronyms),
		LogFile:         pathValue(cli.LogFile, cli.LogFileSet, EnvLogFile, fc.Log.File),
		ReportPath:      pathValue(cli.Report, cli.ReportSet, EnvReport, fc.Report),
		ConfigFile:      cfgPath,
	}

	level, err := logx.ParseLevel(stringValue(cli.LogLevel, cli.LogLevelSet, EnvLogLevel, fc.Log.Level))
	if err != nil {
		return EffectiveConfig{}, invalid("%v", err)
	}
	eff.LogLevel = level

	format := strings.ToLower(stringValue(cli.LogFormat, cli.LogFormatSet, EnvLogFormat, fc.Log.Format))
	switch format {
	case "":
		format = logx.FormatText
	case logx.FormatText, logx.FormatJSON:
	default:
		return EffectiveConfig{}, invalid("log format 只能是 text 或 json，实际是 %q", format)
	}
	eff.LogFormat = format

	if eff.WriteSlide, err = boolValue(cli.WriteSlide, cli.WriteSlideSet, EnvWriteSlide, fc.WriteSlide); err != nil {
		return EffectiveConfig{}, invalid("%v", err)
	}
	if eff.FailOnNew, err = boolValue(cli.FailOnNew, cli.FailOnNewSet, EnvFailOnNew, fc.FailOnNew); err != nil {
		return EffectiveConfig{}, invalid("%v", err)
	}

	for i, s := range fc.Exclusions {
		a := domain.NormalizeAcronym(s)
		if a == "" {
			return EffectiveConfig{}, invalid("exclusions[%d] 不能为空", i)
		}
		eff.ExtraExclusions = append(eff.ExtraExclusions, a)
	}

	if eff.ReportPath != "" && eff.ReportPath == eff.Path {
		return EffectiveConfig{}, invalid("report 不能与输入文件相同：%q", eff.ReportPath)
	}
	return eff, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；空白输入返回 ""。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析配置文件（.yaml/.yml 按 YAML，其余按 TOML）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		// 空文件：io.EOF，视为空配置。
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return FileConfig{}, true, err
		}
		return fc, true, nil
	}

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return FileConfig{}, true, fmt.Errorf("未知字段：%s", strings.TrimSpace(sme.String()))
		}
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// envSource 是进程环境 + .env 文件的合并视图（进程环境优先，与 godotenv.Load 的语义一致）。
type envSource struct {
	lookup LookupFunc
	dotenv map[string]string
}

func newEnv(dotenvPath string, lookup LookupFunc) (envSource, error) {
	m, err := godotenv.Read(dotenvPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return envSource{lookup: lookup}, nil
		}
		return envSource{}, &Error{Code: ErrCodeInvalid, Path: dotenvPath, Err: err}
	}
	return envSource{lookup: lookup, dotenv: m}, nil
}

// get 返回去掉首尾空白的取值；空值视为未设置。
func (e envSource) get(key string) (string, bool) {
	if v, ok := e.lookup(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	if v := strings.TrimSpace(e.dotenv[key]); v != "" {
		return v, true
	}
	return "", false
}

func (e envSource) has(key string) bool {
	_, ok := e.get(key)
	return ok
}
