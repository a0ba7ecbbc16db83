package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
	"gopkg.in/natefinch/lumberjack.v2"

	"gps-sim/config"
	"gps-sim/gps"
	"gps-sim/serialport"
	"gps-sim/web"
)

// Version information - populated at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// teeSink delivers frames to the virtual device and mirrors accepted
// traffic to an optional secondary writer (a real serial port).
type teeSink struct {
	primary gps.FrameSink
	mirror  serial.Port
}

func (t teeSink) Deliver(frame []byte) bool {
	ok := t.primary.Deliver(frame)
	if t.mirror != nil {
		_, _ = t.mirror.Write(frame)
	}
	return ok
}

func main() {
	cfg := config.Default()

	var (
		configPath  string
		logFile     string
		showVersion bool
		quiet       bool
	)

	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.StringVar(&cfg.Device.Link, "device-link", cfg.Device.Link, "Symlink path for the virtual serial device (e.g. /dev/ttyGPS0)")
	flag.StringVar(&cfg.Device.Serial, "serial", cfg.Device.Serial, "Real serial port to mirror NMEA output to (e.g. /dev/ttyUSB0)")
	flag.IntVar(&cfg.Device.BaudRate, "baud", cfg.Device.BaudRate, "Baud rate for the mirror serial port")
	flag.IntVar(&cfg.Sim.StartLat, "start-lat", cfg.Sim.StartLat, "Starting latitude in micro-degrees (degrees x 1e6)")
	flag.IntVar(&cfg.Sim.StartLon, "start-lon", cfg.Sim.StartLon, "Starting longitude in micro-degrees (degrees x 1e6)")
	flag.IntVar(&cfg.Sim.ErrorRate, "error-rate", cfg.Sim.ErrorRate, "Checksum corruption probability (0-100)")
	flag.BoolVar(&cfg.Sim.SignalLoss, "signal-loss", cfg.Sim.SignalLoss, "Start with signal loss active")
	flag.DurationVar(&cfg.Sim.Rate, "rate", cfg.Sim.Rate, "NMEA output rate")
	flag.StringVar(&cfg.Web.Listen, "listen", cfg.Web.Listen, "HTTP settings/status listen address (e.g. :8080, empty disables)")
	flag.BoolVar(&cfg.GPX.Enable, "gpx", cfg.GPX.Enable, "Record transmitted fixes to a GPX file")
	flag.StringVar(&cfg.GPX.Path, "gpx-file", cfg.GPX.Path, "GPX output path")
	flag.BoolVar(&cfg.Replay.Enable, "replay", cfg.Replay.Enable, "Replay a GPX track through the parameter store")
	flag.StringVar(&cfg.Replay.Path, "replay-file", cfg.Replay.Path, "GPX file to replay")
	flag.DurationVar(&cfg.Replay.Interval, "replay-interval", cfg.Replay.Interval, "Interval between replayed track points")
	flag.BoolVar(&cfg.Replay.Loop, "replay-loop", cfg.Replay.Loop, "Loop the replay continuously")
	flag.StringVar(&logFile, "log-file", "", "Log to a rotating file instead of stderr")
	flag.BoolVar(&quiet, "quiet", false, "Suppress informational messages")
	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nGPS Receiver Simulator\n")
		fmt.Fprintf(os.Stderr, "Exposes a virtual serial device that emits NMEA 0183 sentences for a synthetic position.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	// Config file values sit between built-in defaults and explicit
	// flags, so parse twice: once to learn -config, once over the
	// loaded file.
	flag.Parse()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = loaded
		// Re-parse so explicitly passed flags win over file values;
		// the flag set is bound to cfg's fields.
		if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
			log.Fatalf("flag parse failed: %v", err)
		}
	}

	if showVersion {
		if Version != "dev" {
			fmt.Printf("v%s\n", Version)
		} else {
			fmt.Printf("%s\n", Commit)
		}
		os.Exit(0)
	}

	if logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    16, // MB
			MaxBackups: 2,
		})
	}

	store := gps.NewParamStore(gps.Params{
		StartLat:   cfg.Sim.StartLat,
		StartLon:   cfg.Sim.StartLon,
		ErrorRate:  cfg.Sim.ErrorRate,
		SignalLoss: cfg.Sim.SignalLoss,
	})

	// Acquisition order matters: everything acquired here is released
	// in reverse order on shutdown.
	endpoint, err := serialport.OpenPTY(cfg.Device.Link)
	if err != nil {
		log.Fatalf("virtual serial device failed: %v", err)
	}

	var mirror serial.Port
	if cfg.Device.Serial != "" {
		mode := &serial.Mode{
			BaudRate: cfg.Device.BaudRate,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
		mirror, err = serial.Open(cfg.Device.Serial, mode)
		if err != nil {
			endpoint.Close()
			log.Fatalf("failed to open serial port %s: %v", cfg.Device.Serial, err)
		}
	}

	sim := gps.NewSimulator(store, teeSink{primary: endpoint, mirror: mirror}, cfg.Sim.Rate)

	if cfg.GPX.Enable {
		gpxWriter, err := gps.NewGPXWriter(cfg.GPX.Path)
		if err != nil {
			if mirror != nil {
				mirror.Close()
			}
			endpoint.Close()
			log.Fatalf("gpx writer failed: %v", err)
		}
		sim.RecordGPX(gpxWriter)
	}

	var replayer *gps.Replayer
	if cfg.Replay.Enable {
		replayer, err = gps.NewReplayer(store, cfg.Replay.Path, cfg.Replay.Interval, cfg.Replay.Loop)
		if err != nil {
			if mirror != nil {
				mirror.Close()
			}
			endpoint.Close()
			log.Fatalf("replay load failed: %v", err)
		}
	}

	if err := sim.Start(); err != nil {
		log.Fatalf("simulator start failed: %v", err)
	}
	if replayer != nil {
		if err := replayer.Start(); err != nil {
			log.Fatalf("replay start failed: %v", err)
		}
	}

	var httpSrv *http.Server
	if cfg.Web.Listen != "" {
		httpSrv = &http.Server{
			Addr:         cfg.Web.Listen,
			Handler:      web.Handler(sim, store),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server stopped: %v", err)
			}
		}()
	}

	if !quiet {
		log.Printf("gps-sim starting")
		log.Printf("device=%s link=%s rate=%s", endpoint.Name(), cfg.Device.Link, cfg.Sim.Rate)
		p := store.Load()
		log.Printf("start_lat=%d start_lon=%d error_rate=%d signal_loss=%t",
			p.StartLat, p.StartLon, p.ErrorRate, p.SignalLoss)
		if cfg.Web.Listen != "" {
			log.Printf("settings http=%s", cfg.Web.Listen)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if !quiet {
		log.Printf("gps-sim stopping")
	}

	// Teardown in strict reverse order of acquisition. Stop is
	// synchronous: once it returns, no tick can write into the
	// endpoint being closed.
	if httpSrv != nil {
		httpSrv.Close()
	}
	if replayer != nil {
		replayer.Stop()
	}
	if err := sim.Stop(); err != nil {
		log.Printf("simulator stop: %v", err)
	}
	if mirror != nil {
		mirror.Close()
	}
	if err := endpoint.Close(); err != nil {
		log.Printf("device teardown: %v", err)
	}
}
