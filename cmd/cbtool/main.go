package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/blues/voxconv/codebook"
	"github.com/blues/voxconv/prosody"
	"github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s build [flags] Output.vcb Rows.txt\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s info Codebook.vcb\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s dump Codebook.vcb [Output.txt]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "e.g. %s build -fs 16000 -order 18 -labels 4 a2b.vcb a2b.txt\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Rows.txt: order source LSFs, order target LSFs (Hz)[, source label, target label]; - for stdin\n")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}
	var err error
	switch os.Args[1] {
	case "build":
		err = build(os.Args[2:])
	case "info":
		err = info(os.Args[2:])
	case "dump":
		err = dump(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func build(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	rate := fs.Int("fs", 16000, "sampling rate (Hz)")
	order := fs.Int("order", 18, "LP order")
	labels := fs.Int("labels", 0, "label width in bytes, 0 for unlabeled rows")
	gran := fs.String("granularity", codebook.Frames.String(), "frames, frame_groups, labels, label_groups or speech")
	preCoef := fs.Float64("precoef", 0.97, "pre-emphasis coefficient used in training")
	window := fs.Float64("window", 0.02, "analysis window (s)")
	skip := fs.Float64("skip", 0.01, "analysis skip (s)")
	srcF0 := fs.String("sf0", "", "source F0 file (one Hz value per line) for pitch statistics")
	tgtF0 := fs.String("tf0", "", "target F0 file for pitch statistics")
	fs.Usage = usage
	fs.Parse(args)
	if fs.NArg() != 2 {
		usage()
	}

	g, err := codebook.ParseGranularity(*gran)
	if err != nil {
		return err
	}
	h := codebook.Header{
		Granularity:  g,
		LabelWidth:   *labels,
		SamplingRate: *rate,
		LPOrder:      *order,
		PreCoef:      *preCoef,
		WindowSize:   *window,
		SkipSize:     *skip,
	}

	var in io.Reader = os.Stdin
	if name := fs.Arg(1); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	out, err := os.Create(fs.Arg(0))
	if err != nil {
		return err
	}
	defer out.Close()
	w, err := codebook.NewWriter(out, h)
	if err != nil {
		return err
	}
	if err := parseRows(in, h.LPOrder, h.LabelWidth > 0, w.Append); err != nil {
		return err
	}

	src, err := pitchStats(*srcF0)
	if err != nil {
		return err
	}
	tgt, err := pitchStats(*tgtF0)
	if err != nil {
		return err
	}
	if err := w.SetPitchStatistics(src, tgt); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "build",
		"entries":  w.Count(),
		"path":     fs.Arg(0),
	}).Info("Codebook written")
	return out.Close()
}

func pitchStats(path string) (codebook.PitchStatistics, error) {
	if path == "" {
		return codebook.PitchStatistics{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return codebook.PitchStatistics{}, err
	}
	defer f.Close()
	f0, err := prosody.ReadF0(f)
	if err != nil {
		return codebook.PitchStatistics{}, fmt.Errorf("%s: %w", path, err)
	}
	return codebook.ComputePitchStatistics(f0), nil
}

func info(args []string) error {
	if len(args) != 1 {
		usage()
	}
	cb, err := codebook.Load(args[0])
	if err != nil {
		return err
	}
	writeInfo(os.Stdout, cb.Header)
	return nil
}

func dump(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		usage()
	}
	cb, err := codebook.Load(args[0])
	if err != nil {
		return err
	}
	if len(args) == 1 || args[1] == "-" {
		return writeRows(os.Stdout, cb)
	}
	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := writeRows(f, cb); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
