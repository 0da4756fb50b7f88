package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	cmdcalculate "calls-dashboard/command/calculate"
	cmdweb "calls-dashboard/command/web"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 24/7 support calls dashboard.
// Usage:
//   calls-dashboard web [-addr :8080] [-uploads ./uploads/data_upload]
//   calls-dashboard calculate -file calls.xlsx [-month 2024-01,2024-02]
// Notes:
// - Reads the "first line call" sheet of an uploaded workbook and charts the top 20
//   callers of the selected months per customer site, plus unjustified calls.
// - CONFIG_PATH points to a YAML config (default ./config.yml); LOG_FILE enables a rotated log file.

func main() {
	_ = godotenv.Load()
	args := os.Args

	var out io.Writer = os.Stderr
	if path := os.Getenv("LOG_FILE"); path != "" {
		lj := &lumberjack.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, MaxAge: 28}
		defer lj.Close()
		out = io.MultiWriter(os.Stderr, lj)
	}
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		switch sub {
		case "calculate":
			if err := cmdcalculate.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "web":
			if err := cmdweb.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: calls-dashboard calculate -file <xlsx> [-month <list>] [-out <csv>] [-png <png>] [-list] | web [-addr :8080] [-ui ./ui/dist] [-uploads <dir>]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml), LOG_FILE to also log to a rotated file")
	os.Exit(2)
}
