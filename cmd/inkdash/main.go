package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"inkdash/internal/battery"
	"inkdash/internal/capture"
	"inkdash/internal/config"
	"inkdash/internal/dashboard"
	"inkdash/internal/ics"
	appLog "inkdash/internal/log"
	"inkdash/internal/render"
	"inkdash/internal/weather"
	"inkdash/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	out        string
	date       string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
		appLog.SetLevel(lvl)
	} else {
		appLog.Warn("unknown log level, using INFO", "log_level", conf.LogLevel)
	}
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.out != "" {
		conf.ImagePath = flags.out
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	appLog.Info("effective config",
		"display", conf.Display,
		"max_lines", conf.MaxLines,
		"num_days", conf.NumDays,
		"template", conf.TemplatePath,
		"image", conf.ImagePath,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bat := battery.New(conf.Battery.Enabled, conf.Battery.Bus, conf.Battery.Addr)
	formatter := render.NewFormatter(render.Options{
		TemplatePath:   conf.TemplatePath,
		CacheImagePath: conf.CacheImagePath,
		Width:          conf.Display.Width,
		Height:         conf.Display.Height,
		Rotation:       conf.Display.Rotation,
	}, capture.NewChromium(capture.Options{ExecPath: conf.ChromePath}))

	runner := dashboard.NewRunner(dashboard.Settings{
		NumDays:         conf.NumDays,
		MaxLines:        conf.MaxLines,
		CalendarDetails: conf.CalendarDetails,
		ImagePath:       conf.ImagePath,
		Location:        loc,
	},
		ics.NewCalendar(ics.NewFetcher(conf.ICSCacheDir, nil), icsSources(conf.ICS)),
		weather.NewClient(weather.Options{
			APIKey:  conf.Weather.APIKey,
			Lat:     conf.Weather.Lat,
			Lon:     conf.Weather.Lon,
			Units:   conf.Weather.Units,
			Lang:    conf.Weather.Lang,
			BaseURL: conf.Weather.BaseURL,
		}, nil),
		formatter,
		bat,
	)

	if flags.once {
		now := time.Now()
		if flags.date != "" {
			now, err = time.ParseInLocation("2006-01-02", flags.date, loc)
			if err != nil {
				appLog.Error("invalid -date", err, "date", flags.date)
				os.Exit(2)
			}
		}
		if err := runner.Run(ctx, now); err != nil {
			os.Exit(1)
		}
		return
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		_ = runner.Run(ctx, time.Now())
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	appLog.Info("scheduler started", "refresh", conf.RefreshCron)

	// Render once at startup so the preview is never empty.
	go func() { _ = runner.Run(ctx, time.Now()) }()

	if conf.Listen != "" {
		srv := web.NewServer(conf, web.Paths{
			Document: formatter.DocumentPath(),
			Image:    formatter.CacheImagePath(),
		}, runner, bat)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				appLog.Error("HTTP server failed", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	appLog.Info("shutting down")
	<-c.Stop().Done()
	appLog.Info("inkdash exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/inkdash/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.out, "out", "", "Destination image path (overrides config image_path)")
	flag.StringVar(&cfg.date, "date", "", "Render for this date (YYYY-MM-DD) instead of today; only with -once")
	flag.BoolVar(&cfg.once, "once", false, "Render one dashboard and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()
	return cfg
}

func icsSources(in []config.ICSConfig) []ics.Source {
	out := make([]ics.Source, 0, len(in))
	for _, c := range in {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		if id == "" {
			id = c.URL
		}
		out = append(out, ics.Source{ID: id, URL: c.URL})
	}
	return out
}
