package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/acrofind/internal/domain"
	"github.com/John-Robertt/acrofind/internal/logx"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadEffective_Defaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Path: "talk.pptx"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != filepath.Join(cwd, "talk.pptx") {
		t.Fatalf("path 未按 cwd 解析：%q", eff.Path)
	}
	if eff.LogLevel != slog.LevelInfo || eff.LogFormat != logx.FormatText {
		t.Fatalf("日志默认值不正确：%v %q", eff.LogLevel, eff.LogFormat)
	}
	if eff.KnownAcronyms != "" || eff.ExcludeAcronyms != "" || eff.ReportPath != "" || eff.LogFile != "" {
		t.Fatalf("未指定的路径应为空：%+v", eff)
	}
	if eff.WriteSlide || eff.FailOnNew {
		t.Fatalf("开关默认应关闭：%+v", eff)
	}
	if eff.ConfigFile != "" {
		t.Fatalf("不应读取任何配置文件：%q", eff.ConfigFile)
	}
}

func TestLoadEffective_MissingPath(t *testing.T) {
	_, err := LoadEffective(t.TempDir(), CLIArgs{}, noEnv)
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_FileRelativeToConfigDir(t *testing.T) {
	cwd := t.TempDir()
	cfgDir := filepath.Join(cwd, "conf")
	mkdir(t, cfgDir)
	writeFile(t, filepath.Join(cfgDir, "team.toml"), []byte(`
known_acronyms = "tables/known.csv"
exclusions = ["tbd", " etc "]
write_slide = true

[log]
level = "debug"
format = "json"
`))

	eff, err := LoadEffective(cwd, CLIArgs{Path: "talk.pptx", ConfigPath: "conf/team.toml"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(cfgDir, "tables", "known.csv"); eff.KnownAcronyms != want {
		t.Fatalf("期望 known=%q，实际=%q", want, eff.KnownAcronyms)
	}
	if len(eff.ExtraExclusions) != 2 || eff.ExtraExclusions[0] != domain.Acronym("TBD") || eff.ExtraExclusions[1] != domain.Acronym("ETC") {
		t.Fatalf("exclusions 未规范化：%v", eff.ExtraExclusions)
	}
	if !eff.WriteSlide || eff.LogLevel != slog.LevelDebug || eff.LogFormat != logx.FormatJSON {
		t.Fatalf("配置文件取值未生效：%+v", eff)
	}
	if eff.ConfigFile != filepath.Join(cfgDir, "team.toml") {
		t.Fatalf("ConfigFile 不正确：%q", eff.ConfigFile)
	}
}

func TestLoadEffective_Precedence(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(`
exclude_acronyms = "file.csv"
write_slide = true
fail_on_new = true

[log]
level = "ERROR"
`))
	env := envMap(map[string]string{
		EnvExcludeAcronyms: "env.csv",
		EnvLogLevel:        "warning",
		EnvFailOnNew:       "false",
	})

	// env 覆盖 file。
	eff, err := LoadEffective(cwd, CLIArgs{Path: "a.pptx"}, env)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ExcludeAcronyms != filepath.Join(cwd, "env.csv") {
		t.Fatalf("期望 env 覆盖 file：%q", eff.ExcludeAcronyms)
	}
	if eff.LogLevel != slog.LevelWarn {
		t.Fatalf("期望 WARNING，实际 %v", eff.LogLevel)
	}
	if eff.FailOnNew {
		t.Fatalf("ACROFIND_FAIL_ON_NEW=false 应覆盖 fail_on_new = true")
	}
	if !eff.WriteSlide {
		t.Fatalf("未被覆盖的 write_slide 应来自配置文件")
	}

	// CLI 覆盖 env 与 file（包括 --write-slide=false）。
	eff, err = LoadEffective(cwd, CLIArgs{
		Path:               "a.pptx",
		ExcludeAcronyms:    "cli.csv",
		ExcludeAcronymsSet: true,
		LogLevel:           "CRITICAL",
		LogLevelSet:        true,
		WriteSlide:         false,
		WriteSlideSet:      true,
	}, env)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ExcludeAcronyms != filepath.Join(cwd, "cli.csv") {
		t.Fatalf("期望 CLI 覆盖：%q", eff.ExcludeAcronyms)
	}
	if eff.LogLevel != logx.LevelCritical {
		t.Fatalf("期望 CRITICAL，实际 %v", eff.LogLevel)
	}
	if eff.WriteSlide {
		t.Fatalf("--write-slide=false 应覆盖配置文件")
	}
}

func TestLoadEffective_DotEnv(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DotEnvFileName), []byte("ACROFIND_REPORT=out/report.json\nACROFIND_LOG_FORMAT=json\n"))

	eff, err := LoadEffective(cwd, CLIArgs{Path: "a.pptx"}, envMap(map[string]string{EnvLogFormat: "text"}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ReportPath != filepath.Join(cwd, "out", "report.json") {
		t.Fatalf(".env 未生效：%q", eff.ReportPath)
	}
	// 进程环境优先于 .env。
	if eff.LogFormat != logx.FormatText {
		t.Fatalf("期望 text，实际 %q", eff.LogFormat)
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{Path: "a.pptx", ConfigPath: "nope.toml"}, noEnv)
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}

	_, err = LoadEffective(cwd, CLIArgs{Path: "a.pptx"}, envMap(map[string]string{EnvConfig: "env.toml"}))
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := []struct {
		name string
		toml string
		cli  CLIArgs
		env  map[string]string
	}{
		{name: "syntax", toml: `known_acronyms = `},
		{name: "unknown field", toml: `provider = "javbus"`},
		{name: "log level", toml: "[log]\nlevel = \"loud\""},
		{name: "log format", cli: CLIArgs{LogFormat: "xml", LogFormatSet: true}},
		{name: "env bool", env: map[string]string{EnvWriteSlide: "maybe"}},
		{name: "empty exclusion", toml: `exclusions = ["ok", " "]`},
		{name: "report over input", cli: CLIArgs{Report: "a.pptx", ReportSet: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwd := t.TempDir()
			if tc.toml != "" {
				writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(tc.toml))
			}
			cli := tc.cli
			cli.Path = "a.pptx"
			_, err := LoadEffective(cwd, cli, envMap(tc.env))
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func mkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}

func TestMain(m *testing.M) {
	// 隔离开发机上的用户级配置。
	userConfigFile = func() (string, bool) { return "", false }
	os.Exit(m.Run())
}

func TestLoadEffective_YAMLInCwd(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "acrofind.yaml"), []byte("fail_on_new: true\nlog:\n  level: error\n"))

	eff, err := LoadEffective(cwd, CLIArgs{Path: "a.pptx"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !eff.FailOnNew || eff.LogLevel != slog.LevelError {
		t.Fatalf("YAML 配置未生效：%+v", eff)
	}

	// 同时存在时 TOML 优先。
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("fail_on_new = false\n"))
	eff, err = LoadEffective(cwd, CLIArgs{Path: "a.pptx"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.FailOnNew || eff.ConfigFile != filepath.Join(cwd, DefaultFileName) {
		t.Fatalf("期望读取 %s：%+v", DefaultFileName, eff)
	}
}

func TestLoadEffective_YAMLEdgeCases(t *testing.T) {
	cwd := t.TempDir()
	empty := filepath.Join(cwd, "empty.yml")
	writeFile(t, empty, nil)
	if _, err := LoadEffective(cwd, CLIArgs{Path: "a.pptx", ConfigPath: empty}, noEnv); err != nil {
		t.Fatalf("空 YAML 应视为空配置：%v", err)
	}

	unknown := filepath.Join(cwd, "unknown.yaml")
	writeFile(t, unknown, []byte("provider: javbus\n"))
	_, err := LoadEffective(cwd, CLIArgs{Path: "a.pptx", ConfigPath: unknown}, noEnv)
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_UserConfigFallback(t *testing.T) {
	home := t.TempDir()
	user := filepath.Join(home, UserConfigDir, "config.toml")
	mkdir(t, filepath.Dir(user))
	writeFile(t, user, []byte("exclude_acronyms = \"team-exclude.csv\"\n"))

	prev := userConfigFile
	userConfigFile = func() (string, bool) { return user, true }
	t.Cleanup(func() { userConfigFile = prev })

	cwd := t.TempDir()
	eff, err := LoadEffective(cwd, CLIArgs{Path: "a.pptx"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != user {
		t.Fatalf("期望读取用户级配置，实际 %q", eff.ConfigFile)
	}
	if want := filepath.Join(home, UserConfigDir, "team-exclude.csv"); eff.ExcludeAcronyms != want {
		t.Fatalf("路径应相对配置文件目录：期望 %q，实际 %q", want, eff.ExcludeAcronyms)
	}

	// cwd 下的配置优先于用户级配置。
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(""))
	eff, err = LoadEffective(cwd, CLIArgs{Path: "a.pptx"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != filepath.Join(cwd, DefaultFileName) || eff.ExcludeAcronyms != "" {
		t.Fatalf("cwd 配置应优先：%+v", eff)
	}
}
