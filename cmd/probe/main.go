// Probe prints what the player sees in audio files: format, stream
// parameters, duration and tags. With -devices it lists the output devices
// of a backend instead.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/codec"
	"github.com/llehouerou/riptide/internal/config"
	"github.com/llehouerou/riptide/internal/output/backend"
	"github.com/llehouerou/riptide/internal/trackinfo"
)

func main() {
	devices := flag.Bool("devices", false, "list output devices instead of probing files")
	backendName := flag.String("backend", config.BackendSpeaker, "output backend for -devices (speaker or miniaudio)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: probe [-devices [-backend name]] [file ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *devices {
		if err := listDevices(os.Stdout, *backendName); err != nil {
			fmt.Fprintf(os.Stderr, "probe: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := probe(os.Stdout, path); err != nil {
			fmt.Fprintf(os.Stderr, "probe: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func probe(w io.Writer, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	info, err := codec.Probe(path)
	if errors.Is(err, codec.ErrUnsupportedFormat) {
		return fmt.Errorf("not a supported audio file: %w", err)
	}
	if err != nil {
		return err
	}
	tags, tagErr := trackinfo.Read(path)

	fmt.Fprintf(w, "%s\n", filepath.Base(path))
	fmt.Fprintf(w, "  format    %s (%s)\n", info.Format, humanize.IBytes(uint64(st.Size())))
	fmt.Fprintf(w, "  stream    %s, %d channels\n", humanize.SIWithDigits(float64(info.SampleRate), 1, "Hz"), info.Channels)
	if ms := info.DurationMS(); ms > 0 {
		fmt.Fprintf(w, "  duration  %s (%s frames)\n",
			(time.Duration(ms) * time.Millisecond).Round(time.Millisecond), humanize.Comma(info.Frames))
	} else {
		fmt.Fprintf(w, "  duration  unknown\n")
	}
	if tagErr != nil {
		fmt.Fprintf(w, "  tags      none (%v)\n", tagErr)
		return nil
	}
	fmt.Fprintf(w, "  title     %s\n", tags.Title)
	if tags.Artist != "" {
		fmt.Fprintf(w, "  artist    %s\n", tags.Artist)
	}
	if tags.Album != "" {
		fmt.Fprintf(w, "  album     %s\n", tags.Album)
	}
	if tags.Track > 0 {
		fmt.Fprintf(w, "  track     %d\n", tags.Track)
	}
	return nil
}

func listDevices(w io.Writer, name string) error {
	host, err := backend.Open(name, zerolog.Nop())
	if err != nil {
		return err
	}
	defer host.Close()

	devices, err := host.Devices()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d device(s)\n", host.Name(), len(devices))
	for _, d := range devices {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\n    default %s\n", mark, d.Name, d.DefaultConfig)
		for _, c := range d.Configs {
			fmt.Fprintf(w, "    %s\n", c)
		}
	}
	return nil
}
