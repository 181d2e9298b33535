package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/acrofind/internal/app/run"
	"github.com/John-Robertt/acrofind/internal/config"
	"github.com/John-Robertt/acrofind/internal/domain"
	"github.com/John-Robertt/acrofind/internal/extractor"
	"github.com/John-Robertt/acrofind/internal/extractor/pptx"
	"github.com/John-Robertt/acrofind/internal/logx"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		os.Exit(exitFailure)
	}
	code := runCLI(ctx, os.Args[1:], cwd, nil, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// runCLI 是可测试的入口：不读 os.Args，不直接退出进程。lookup 为 nil 时使用进程环境。
func runCLI(ctx context.Context, args []string, cwd string, lookup config.LookupFunc, stdout, stderr io.Writer) int {
	code := exitOK
	var usageErr error

	cmd := newRootCmd(func(cli config.CLIArgs) {
		code = scan(ctx, cwd, cli, lookup, stdout, stderr)
	})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		usageErr = err
		return err
	})

	if err := cmd.ExecuteContext(ctx); err != nil {
		if usageErr == nil {
			usageErr = err
		}
		fmt.Fprintf(stderr, "参数错误：%v\n\n", usageErr)
		fmt.Fprint(stderr, cmd.UsageString())
		return exitUsage
	}
	return code
}

func newRootCmd(onRun func(cli config.CLIArgs)) *cobra.Command {
	var cli config.CLIArgs

	cmd := &cobra.Command{
		Use:   "acrofind <presentation>",
		Short: "扫描演示文稿中的缩略词",
		Long: `acrofind 扫描演示文稿（.pptx/.pptm/.ppsx/.ppsm/.potx/.potm）中的缩略词，
并与已知缩略词表、排除表比对，输出每个缩略词的状态（known/defined/new）。

stdout 是终端时输出表格；否则 stdout 只输出一个 JSON 报告，日志与摘要走 stderr。

退出码：0 成功；1 运行失败（或 --fail-on-new 且发现新缩略词）；2 参数/配置错误。`,
		Example: `  acrofind talk.pptx
  acrofind talk.pptx --known-acronyms known.csv --exclude-acronyms exclude.csv --log-level DEBUG
  acrofind talk.pptx --write-slide --report out/report.json`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			cli.Path = args[0]
			cli.KnownAcronymsSet = f.Changed("known-acronyms")
			cli.ExcludeAcronymsSet = f.Changed("exclude-acronyms")
			cli.LogLevelSet = f.Changed("log-level")
			cli.LogFormatSet = f.Changed("log-format")
			cli.LogFileSet = f.Changed("log-file")
			cli.ReportSet = f.Changed("report")
			cli.WriteSlideSet = f.Changed("write-slide")
			cli.FailOnNewSet = f.Changed("fail-on-new")
			onRun(cli)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cli.KnownAcronyms, "known-acronyms", "", "已知缩略词表（CSV/TSV：acronym[,definition]）")
	f.StringVar(&cli.ExcludeAcronyms, "exclude-acronyms", "", "排除表（CSV/TSV：每行一个缩略词）")
	f.StringVar(&cli.LogLevel, "log-level", "INFO", "日志级别：DEBUG|INFO|WARNING|ERROR|CRITICAL")
	f.StringVar(&cli.LogFormat, "log-format", logx.FormatText, "日志格式：text|json")
	f.StringVar(&cli.LogFile, "log-file", "", "同时把日志追加写入该文件")
	f.StringVar(&cli.ConfigPath, "config", "", "配置文件（.toml/.yaml/.yml）；未指定时依次查找 ./acrofind.{toml,yaml,yml} 与用户配置目录下的 "+config.UserConfigDir+"/config.{toml,yaml,yml}，都不存在则忽略")
	f.StringVar(&cli.Report, "report", "", "把 JSON 报告原子写入该文件")
	f.BoolVar(&cli.WriteSlide, "write-slide", false, "写出追加了 \"Acronyms Found\" 汇总页的副本 <name>_with_acronyms<ext>")
	f.BoolVar(&cli.FailOnNew, "fail-on-new", false, "发现 new 状态的缩略词时以退出码 1 结束")
	return cmd
}

func scan(ctx context.Context, cwd string, cli config.CLIArgs, lookup config.LookupFunc, stdout, stderr io.Writer) int {
	eff, err := config.LoadEffective(cwd, cli, lookup)
	if err != nil {
		fmt.Fprintf(stderr, "配置错误：%v\n", err)
		return exitUsage
	}

	writers := []io.Writer{stderr}
	if eff.LogFile != "" {
		lf, err := logx.OpenFile(eff.LogFile)
		if err != nil {
			fmt.Fprintf(stderr, "打开日志文件失败：%v\n", err)
			return exitFailure
		}
		defer lf.Close()
		writers = append(writers, lf)
	}
	logger := logx.New(eff.LogLevel, eff.LogFormat, writers...)
	ctx = logx.WithLogger(ctx, logger)
	logger.Debug("effective config",
		"path", eff.Path,
		"config_file", eff.ConfigFile,
		"known_acronyms", eff.KnownAcronyms,
		"exclude_acronyms", eff.ExcludeAcronyms,
		"log_level", logx.LevelName(eff.LogLevel),
		"write_slide", eff.WriteSlide,
		"report", eff.ReportPath,
	)

	reg, err := extractor.NewRegistry(pptx.Extractor{})
	if err != nil {
		logger.Log(ctx, logx.LevelCritical, "初始化 extractor registry 失败", "error", err)
		return exitFailure
	}

	var obs run.Observer
	if isTerminal(stderr) {
		obs = newProgressUI(stderr)
	}

	rr, err := run.ExecuteWithObserver(ctx, eff, reg, obs)
	if err != nil {
		attrs := []any{"error", err}
		if code := errorCode(err); code != "" {
			attrs = append(attrs, "error_code", code)
		}
		logger.Log(ctx, logx.LevelCritical, "scan failed", attrs...)
		return exitFailure
	}

	if err := emitReport(stdout, stderr, rr); err != nil {
		logger.Log(ctx, logx.LevelCritical, "写出报告失败", "error", err, "error_code", domain.ErrCodeIOFailed)
		return exitFailure
	}
	if eff.FailOnNew && rr.Summary.New > 0 {
		return exitFailure
	}
	return exitOK
}

func errorCode(err error) string {
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return domain.ErrorCode(err)
}

// emitReport：stdout 是终端时输出表格 + 摘要；否则 stdout 必须且仅输出一个 Report JSON（摘要走 stderr）。
func emitReport(stdout, stderr io.Writer, rr domain.Report) error {
	if isTerminal(stdout) {
		if err := writeTable(stdout, rr); err != nil {
			return err
		}
		_, err := fmt.Fprintln(stdout, summaryLine(rr))
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rr); err != nil {
		return err
	}
	fmt.Fprintln(stderr, summaryLine(rr))
	return nil
}

func summaryLine(rr domain.Report) string {
	s := rr.Summary
	return fmt.Sprintf("完成：acronyms=%d known=%d defined=%d new=%d excluded=%d skipped_rows=%d",
		s.Acronyms, s.Known, s.Defined, s.New, s.Excluded, s.SkippedRows)
}

func writeTable(w io.Writer, rr domain.Report) error {
	if len(rr.Items) == 0 {
		_, err := fmt.Fprintf(w, "%s：未发现缩略词（%d 张幻灯片）\n", rr.Source, rr.Slides)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACRONYM\tSTATUS\tSLIDES\tDEFINITION")
	for _, it := range rr.Items {
		def := it.Definition
		if def == "" {
			def = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Acronym, it.Status, joinSlides(it.Slides), truncate(def, 80))
	}
	return tw.Flush()
}

func joinSlides(v []int) string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, ",")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
