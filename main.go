// canopyfft
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/hhkbp2/go-logging"

	"github.com/forestclim/canopyfft/canopyfft"
)

func main() {
	// コマンドライン引数の処理
	parser := argparse.NewParser("canopyfft", "Compares an under-canopy temperature record with a reanalysis in the frequency domain")

	sensorPath := parser.String("", "sensor", &argparse.Options{
		Default: "hobo.tsv",
		Help:    "Sensor (HOBO) series, tab separated"})

	reanalysisPath := parser.String("", "reanalysis", &argparse.Options{
		Default: "era.tsv",
		Help:    "Reanalysis (ERA5-Land) series, tab separated"})

	configPath := parser.String("", "config", &argparse.Options{
		Default: "",
		Help:    "YAML config (periods, corrections, limits)"})

	outDir := parser.String("o", "out", &argparse.Options{
		Default: "plots",
		Help:    "Directory for the plots"})

	format := parser.Selector("", "format", []string{"png", "svg", "pdf"}, &argparse.Options{
		Default: "png",
		Help:    "Plot format"})

	window := parser.Int("", "window", &argparse.Options{
		Default: 0,
		Help:    "Window length in days (default: config, 5)"})

	shift := parser.Int("", "shift", &argparse.Options{
		Default: 0,
		Help:    "Window shift in days (default: config, 3)"})

	pairsDir := parser.String("", "pairs", &argparse.Options{
		Default: "",
		Help:    "Directory for per-window value dumps (TSV)"})

	tablePath := parser.String("", "table", &argparse.Options{
		Default: "",
		Help:    "Write the merged and corrected table to this TSV file"})

	logLevel := parser.Selector("", "log", canopyfft.LogLevels, &argparse.Options{
		Default: "INFO",
		Help:    "Log level"})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	// ログレベル設定
	for _, name := range []string{"main", "canopyfft"} {
		canopyfft.SetLogLevel(name, *logLevel)
	}
	logger := logging.GetLogger("main")

	cfg, err := canopyfft.LoadConfig(*configPath)
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	if *window > 0 {
		cfg.WindowDays = *window
	}
	if *shift > 0 {
		cfg.ShiftDays = *shift
	}

	// 読み込みと結合
	sensor, reanalysis, err := canopyfft.LoadSources(*sensorPath, cfg.Sensor, *reanalysisPath, cfg.Reanalysis)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	table := canopyfft.Merge(sensor, reanalysis)

	// 解析
	analysis := canopyfft.Analysis{
		Config:   cfg,
		OutDir:   *outDir,
		Format:   *format,
		PairsDir: *pairsDir,
	}
	res, err := analysis.Run(table)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	if *tablePath != "" {
		var buf *bytes.Buffer = bytes.NewBuffer([]byte{})
		res.Table.ToTSV(buf)
		if err := os.WriteFile(*tablePath, buf.Bytes(), 0o644); err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		logger.Infof("TSV保存: %s", *tablePath)
	}

	logger.Infof("%d plots in %s", len(res.Plots), *outDir)
}
