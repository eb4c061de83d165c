package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/serialplot/internal/app"
	"github.com/buckleypaul/serialplot/internal/config"
	"github.com/buckleypaul/serialplot/internal/graph"
	"github.com/buckleypaul/serialplot/internal/link"
	"github.com/buckleypaul/serialplot/internal/logging"
	"github.com/buckleypaul/serialplot/internal/message"
	"github.com/buckleypaul/serialplot/internal/metrics"
	"github.com/buckleypaul/serialplot/internal/pages"
	"github.com/buckleypaul/serialplot/internal/serial"
	"github.com/buckleypaul/serialplot/internal/store"
	"github.com/buckleypaul/serialplot/internal/web"
	"github.com/buckleypaul/serialplot/internal/worker"
)

var (
	portFlag     = flag.String("port", "", "Serial port to open")
	baudFlag     = flag.Int("baud", 0, "Baud rate")
	httpFlag     = flag.String("http", "", "Serve the chart and metrics on this address (e.g. 127.0.0.1:8090)")
	logFileFlag  = flag.String("log-file", "", "Write diagnostics to this file")
	logLevelFlag = flag.String("log-level", "", "Log level (debug, info, warn, error, off)")
	fullLogFlag  = flag.Bool("full-log", false, "Also show data lines in the log")
	connectFlag  = flag.Bool("connect", false, "Connect on start")
	listFlag     = flag.Bool("list", false, "List serial ports and exit")
)

func main() {
	flag.Parse()

	if *listFlag {
		if err := listPorts(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	root := config.FindRoot(cwd)
	cfg := config.Load(root)
	applyFlags(&cfg)

	if err := run(cfg, root); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.SerialPort = *portFlag
		case "baud":
			cfg.SerialBaudRate = *baudFlag
		case "http":
			cfg.HTTPAddr = *httpFlag
		case "log-file":
			cfg.LogFile = *logFileFlag
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		case "full-log":
			cfg.FullLog = *fullLogFlag
		}
	})
}

func listPorts() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p.Label())
	}
	return nil
}

func run(cfg config.Config, root string) error {
	portOpts, err := cfg.PortOptions()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Config{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lnk := link.New(cfg.SerialPort, cfg.SerialBaudRate)
	queue := message.NewQueue()
	m := metrics.New()
	st := store.New(filepath.Join(root, ".serialplot"))

	w := worker.New(lnk, serial.NewOpener(cfg.ReadTimeout()), queue, worker.Options{
		Port:        portOpts,
		ActiveDelay: cfg.ActiveDelay(),
		IdleDelay:   cfg.IdleDelay(),
		Logger:      logger,
		Metrics:     m,
		Sessions:    st,
	})
	go w.Run(ctx)

	var mirror *graph.Mirror
	if cfg.HTTPAddr != "" {
		mirror = &graph.Mirror{}
		srv := web.NewServer(web.Config{
			Address:  cfg.HTTPAddr,
			Mirror:   mirror,
			Registry: m.Registry,
			Logger:   logging.Component(logger, "web"),
		})
		go func() {
			if err := srv.Start(ctx); err != nil {
				queue.Send(message.Notice{Text: fmt.Sprintf("HTTP server failed: %v", err)})
			}
		}()
	}

	if *connectFlag {
		lnk.Activate()
	}

	pageMap := map[app.PageID]app.Page{
		app.MonitorPage:  pages.NewMonitorPage(lnk, w, &cfg),
		app.PlotPage:     pages.NewPlotPage(graph.NewAggregator(), mirror, &cfg),
		app.SettingsPage: pages.NewSettingsPage(&cfg, lnk, root),
	}

	model := app.New(pageMap, &cfg, root, lnk, queue, st.RecentPorts)

	logger.WithField("port", cfg.SerialPort).WithField("baud", cfg.SerialBaudRate).Info("starting")
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
