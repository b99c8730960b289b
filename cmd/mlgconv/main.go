// Package main is the mlgconv command: converts MLG datalogs to tabular
// formats.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/coffersTech/mlgconv/internal/convert"
	"github.com/coffersTech/mlgconv/internal/mlg"
	"github.com/coffersTech/mlgconv/internal/sink"
)

const (
	flagFormat    = "format"
	flagDelimiter = "delimiter"
	flagTimeField = "time-field"
	flagCompress  = "compress"
	flagDebug     = "debug"

	formatCSV  = "csv"
	formatJSON = "json"
)

func main() {
	var logger *zap.Logger

	app := &cli.App{
		Name:  "mlgconv",
		Usage: "convert MLG datalog files to other formats",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			if c.Bool(flagDebug) {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			return err
		},
		After: func(*cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "convert one or more MLG files",
				ArgsUsage: "PATH [PATH ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagFormat,
						Aliases: []string{"f"},
						Value:   formatCSV,
						Usage:   "target format, one of: csv, json",
					},
					&cli.StringFlag{
						Name:  flagDelimiter,
						Value: "tab",
						Usage: "CSV field separator: tab, comma, or a single character",
					},
					&cli.StringFlag{
						Name:  flagTimeField,
						Value: mlg.DefaultTimeField,
						Usage: "name of the explicit timestamp channel",
					},
					&cli.StringFlag{
						Name:  flagCompress,
						Usage: "compress output: gzip or zstd",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("no input files", 1)
					}
					for _, path := range c.Args().Slice() {
						if err := convertFile(c, path, logger); err != nil {
							return cli.Exit(fmt.Sprintf("%s: %v", path, err), 1)
						}
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func convertFile(c *cli.Context, path string, logger *zap.Logger) error {
	start := time.Now()

	format := c.String(flagFormat)
	if format != formatCSV && format != formatJSON {
		return fmt.Errorf("invalid format: %s", format)
	}
	delim, err := parseDelimiter(c.String(flagDelimiter))
	if err != nil {
		return err
	}
	algo := c.String(flagCompress)

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	src, size, err := convert.OpenInput(in, path, info.Size())
	if err != nil {
		return err
	}

	outPath := outputPath(path, format) + sink.Ext(algo)
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	w, err := sink.Compress(out, algo)
	if err != nil {
		out.Close()
		return err
	}

	var dst sink.Sink
	switch format {
	case formatJSON:
		dst = sink.NewJSON(w)
	default:
		dst = sink.NewCSV(w, delim)
	}

	res, err := convert.Convert(c.Context, src, size, dst, convert.Options{
		TimeField:     c.String(flagTimeField),
		ProgressEvery: 1000000,
		Logger:        logger,
	})
	if err != nil {
		var pe *convert.PhaseError
		if errors.As(err, &pe) && pe.Phase < convert.PhaseStreaming {
			// Nothing was written; don't leave an empty shell behind.
			out.Close()
			os.Remove(outPath)
		}
		return err
	}

	for _, warn := range res.Warnings {
		logger.Warn("warning", zap.String("file", path), zap.String("detail", warn.String()))
	}
	logger.Info("generated",
		zap.String("file", outPath),
		zap.Int("samples", res.Samples),
		zap.Int("markers", res.Markers),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "tab":
		return '\t', nil
	case "comma":
		return ',', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid delimiter: %q", s)
	}
	return r[0], nil
}

// outputPath swaps the input extension for the target format's, peeling a
// compression suffix first so log.mlg.gz becomes log.csv.
func outputPath(path, format string) string {
	for _, ext := range []string{".gz", ".zst"} {
		path = strings.TrimSuffix(path, ext)
	}
	if i := strings.LastIndex(path, "."); i > 0 {
		path = path[:i]
	}
	return path + "." + format
}
