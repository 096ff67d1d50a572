// getera
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/akamensky/argparse"
	"github.com/hhkbp2/go-logging"

	"github.com/forestclim/canopyfft/canopyfft"
	"github.com/forestclim/canopyfft/canopyfft/reanalysis"
)

func main() {
	startedAt := time.Now()
	def := reanalysis.DefaultQuery()

	// コマンドライン引数の処理
	parser := argparse.NewParser("getera", "Retrieves an hourly reanalysis 2 m temperature series for a point and writes it as TSV")

	lat := parser.Float("", "lat", &argparse.Options{
		Default: def.Lat,
		Help:    "Latitude of the point (decimal degrees)"})

	lon := parser.Float("", "lon", &argparse.Options{
		Default: def.Lon,
		Help:    "Longitude of the point (decimal degrees)"})

	start := parser.String("", "start", &argparse.Options{
		Default: def.Start.Format("2006-01-02"),
		Help:    "First day (YYYY-MM-DD)"})

	end := parser.String("", "end", &argparse.Options{
		Default: def.End.Format("2006-01-02"),
		Help:    "Last day, included (YYYY-MM-DD)"})

	dataset := parser.String("", "dataset", &argparse.Options{
		Default: def.Dataset,
		Help:    "Reanalysis model"})

	project := parser.String("", "project", &argparse.Options{
		Default: "",
		Help:    "API key / project identifier (default: ERA_API_KEY)"})

	filename := parser.String("o", "output", &argparse.Options{
		Default: "era.tsv",
		Help:    "Output file path ('-' for stdout)"})

	source := parser.Selector("", "source", []string{"api", "netcdf"}, &argparse.Options{
		Default: "api",
		Help:    "Where to read the reanalysis from"})

	netcdfPath := parser.String("", "netcdf", &argparse.Options{
		Default: "",
		Help:    "ERA5-Land netCDF file (with --source netcdf)"})

	cacheDir := parser.String("", "cache_dir", &argparse.Options{
		Default: ".era_cache",
		Help:    "Download cache directory ('' disables the cache)"})

	logLevel := parser.Selector("", "log", canopyfft.LogLevels, &argparse.Options{
		Default: "INFO",
		Help:    "Log level"})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	// ログレベル設定
	for _, name := range []string{"getera", "reanalysis"} {
		canopyfft.SetLogLevel(name, *logLevel)
	}
	logger := logging.GetLogger("getera")

	env, err := reanalysis.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	q := reanalysis.Query{
		Lat:     *lat,
		Lon:     *lon,
		Dataset: *dataset,
		Project: *project,
	}
	if q.Project == "" {
		q.Project = env.APIKey
	}
	if q.Start, err = canopyfft.ParseTime(*start); err != nil {
		fmt.Fprintln(os.Stderr, "Error: --start:", err)
		os.Exit(1)
	}
	if q.End, err = canopyfft.ParseTime(*end); err != nil {
		fmt.Fprintln(os.Stderr, "Error: --end:", err)
		os.Exit(1)
	}

	// 取得
	var data *reanalysis.Dataset
	if *source == "netcdf" {
		if *netcdfPath == "" {
			fmt.Fprintln(os.Stderr, "Error: --source netcdf requires --netcdf")
			os.Exit(1)
		}
		data, err = reanalysis.ReadNetCDF(*netcdfPath, q)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*env.HTTPTimeout)
		client := reanalysis.NewClient(env.BaseURL, &http.Client{Timeout: env.HTTPTimeout}, *cacheDir)
		data, err = client.Fetch(ctx, q)
		cancel()
	}
	if err != nil {
		logger.Errorf("retrieval failed: %v", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	logger.Infof("%d hours at grid point (%.3f, %.3f)", data.Series.Len(), data.Lat, data.Lon)

	// 保存
	if err := save(data, *filename, os.Stdout); err != nil {
		logger.Errorf("write %s: %v", *filename, err)
		os.Exit(1)
	}

	logger.Infof("done in %s", time.Since(startedAt).Round(time.Millisecond))
}

// TSVをファイル filename に保存します。"-" の場合は stdout に書き出します。
func save(data *reanalysis.Dataset, filename string, stdout io.Writer) error {
	var buf *bytes.Buffer = bytes.NewBuffer([]byte{})
	data.ToTSV(buf)

	if filename == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	logging.GetLogger("getera").Infof("TSV保存: %s", filename)
	return os.WriteFile(filename, buf.Bytes(), 0o644)
}
