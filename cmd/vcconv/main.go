package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/blues/voxconv/codebook"
	"github.com/blues/voxconv/config"
	"github.com/blues/voxconv/fdpsola"
	"github.com/blues/voxconv/mapper"
	"github.com/blues/voxconv/prosody"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] Codebook Input.wav Output.wav [Input.wav Output.wav ...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "e.g. (pitch marks from F0)  %s -f0 .f0 a2b.vcb in.wav out.wav\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "e.g. (fixed rate)           %s a2b.vcb in1.wav out1.wav in2.wav out2.wav\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

// job is one input/output pair.
type job struct {
	in, out string
}

type options struct {
	f0Ext        string
	f0Hop        float64
	labelExt     string
	unvoicedStep float64
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	verbose := flag.Bool("v", false, "debug logging")
	jobs := flag.Int("j", runtime.NumCPU(), "files converted in parallel")
	var opts options
	flag.StringVar(&opts.f0Ext, "f0", "", "extension of per-input F0 files (one Hz value per line) used for pitch marks")
	flag.Float64Var(&opts.f0Hop, "f0hop", 0.01, "F0 file frame period (s)")
	flag.StringVar(&opts.labelExt, "lab", "", "extension of per-input label files (\"end_seconds label\" lines)")
	flag.Float64Var(&opts.unvoicedStep, "unvoiced", 0.01, "pitch mark spacing in unvoiced stretches (s)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 || len(args)%2 != 1 {
		usage()
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(cfg.LogLevel())
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cb, err := codebook.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading codebook: %v\n", err)
		os.Exit(1)
	}
	params, err := cfg.MapperParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in mapper config: %v\n", err)
		os.Exit(1)
	}
	m, err := mapper.New(cb, params, mapper.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating mapper: %v\n", err)
		os.Exit(1)
	}

	var g errgroup.Group
	g.SetLimit(*jobs)
	for i := 1; i < len(args); i += 2 {
		j := job{in: args[i], out: args[i+1]}
		g.Go(func() error {
			log := logger.WithFields(logrus.Fields{"run": j.in})
			if err := convert(j, cfg, m, opts, log); err != nil {
				return fmt.Errorf("%s: %w", j.in, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error converting: %v\n", err)
		os.Exit(1)
	}
}

// convert runs one file. The mapper and codebook are shared read-only;
// every file gets its own processor because scale tracks span the file.
func convert(j job, cfg *config.Config, m *mapper.Mapper, opts options, log logrus.FieldLogger) error {
	x, fs, err := readWav(j.in)
	if err != nil {
		return err
	}
	duration := float64(len(x)) / float64(fs)

	in := fdpsola.Input{Samples: x, SamplingRate: fs}
	pc, err := cfg.ProcessorConfig(m.Codebook().Header.LPOrder, duration)
	if err != nil {
		return err
	}

	if p := sidecar(j.in, opts.f0Ext); p != "" {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		f0, err := prosody.ReadF0(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		in.Marks = prosody.MarksFromF0(f0, opts.f0Hop, fs, len(x), opts.unvoicedStep)
	} else if !pc.FixedRate {
		log.WithFields(logrus.Fields{
			"function": "convert",
		}).Warn("No F0 file, framing at a fixed rate")
		pc.FixedRate = true
	}
	if p := sidecar(j.in, opts.labelExt); p != "" {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		in.Segments, err = readSegments(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	proc, err := fdpsola.NewProcessor(pc, m, fdpsola.WithLogger(log))
	if err != nil {
		return err
	}
	y, res, err := proc.Convert(in)
	if err != nil {
		return err
	}
	gain := fdpsola.NormalizePeak(y, 1)

	log.WithFields(logrus.Fields{
		"function": "convert",
		"frames":   res.Frames,
		"skipped":  res.Skipped,
		"repeated": res.Repeated,
		"samples":  res.Length,
		"gain":     gain,
	}).Info("Converted")
	return writeWav(j.out, y, fs)
}
