package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/cbegin/polysynth-go"
)

// liveChannels is how many channels a setup-less live session gets, one per
// MIDI channel.
const liveChannels = 16

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate (overrides the setup file)")
		backend    = flag.String("backend", "", "audio backend: ebiten|oto|none (overrides the setup file)")
		midiPath   = flag.String("file", "", "path to a Standard MIDI File")
		trackList  = flag.String("tracks", "", "comma-separated MIDI file tracks to play (default all)")
		setupPath  = flag.String("setup", "", "path to a YAML instrument setup")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		wavPath    = flag.String("wav", "", "render offline to this WAV file instead of playing")
		seconds    = flag.Float64("seconds", 0, "with -wav, render this many seconds (0 = until the track drains)")
		midiIn     = flag.String("midi-in", "", "play a live MIDI input port (\"-\" for the first one)")
		listMIDI   = flag.Bool("list-midi", false, "list MIDI input ports and exit")
		verbose    = flag.Bool("v", false, "log note-level debug output")
	)
	flag.Parse()

	if *verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *listMIDI {
		ports, err := polysynth.MIDIPorts()
		if err != nil {
			log.Fatal(err)
		}
		for i, p := range ports {
			fmt.Printf("%d: %s\n", i, p)
		}
		return
	}

	setup, err := resolveSetup(*setupPath, *sampleRate, *backend)
	if err != nil {
		log.Fatal(err)
	}
	var events []polysynth.Event
	if strings.TrimSpace(*midiPath) != "" {
		tracks, err := parseTracks(*trackList)
		if err != nil {
			log.Fatal(err)
		}
		events, err = polysynth.ReadMIDIFile(*midiPath, tracks...)
		if err != nil {
			log.Fatal(err)
		}
	} else if *midiIn == "" {
		log.Fatal("nothing to play: give -file or -midi-in")
	}
	fillChannels(setup, events, *midiIn != "")

	if *wavPath != "" {
		if err := renderWAV(setup, events, *volume, *seconds, *wavPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	pl, err := setup.NewPlayer(polysynth.WithKeepAlive(*midiIn != ""))
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.LoadTrack(events); err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ch := pl.Watch()
	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}
	if *midiIn != "" {
		port := *midiIn
		if port == "-" {
			port = ""
		}
		go func() {
			if err := pl.ListenMIDI(ctx, port); err != nil {
				log.Print(err)
				stop()
			}
		}()
	}
	go func() {
		<-ctx.Done()
		pl.Stop()
	}()

	go func() {
		for event := range ch {
			if event.Kind == polysynth.EventChannelDone {
				fmt.Printf("channel %d reached the end of the track\n", event.Channel)
			}
		}
	}()
	if err := pl.Wait(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("playback completed")
}

func resolveSetup(path string, sampleRate int, backend string) (*polysynth.Setup, error) {
	var setup *polysynth.Setup
	var err error
	if strings.TrimSpace(path) != "" {
		setup, err = polysynth.LoadSetup(path)
	} else {
		setup, err = polysynth.ParseSetup(nil)
	}
	if err != nil {
		return nil, err
	}
	flagSet := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { flagSet[f.Name] = true })
	if flagSet["sample-rate"] || path == "" {
		setup.SampleRate = sampleRate
	}
	if backend != "" {
		b, err := polysynth.ParseBackend(backend)
		if err != nil {
			return nil, fmt.Errorf("invalid -backend: %w", err)
		}
		setup.Backend = b
	}
	return setup, nil
}

func parseTracks(list string) ([]int, error) {
	var tracks []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid -tracks entry %q", part)
		}
		tracks = append(tracks, n)
	}
	return tracks, nil
}

// fillChannels gives every MIDI channel the track uses a default
// instrument when the setup names fewer.
func fillChannels(setup *polysynth.Setup, events []polysynth.Event, live bool) {
	need := polysynth.ChannelsUsed(events)
	if live && need < liveChannels {
		need = liveChannels
	}
	for len(setup.Channels) < need {
		setup.Channels = append(setup.Channels, setup.Defaults)
	}
}

func renderWAV(setup *polysynth.Setup, events []polysynth.Event, volume, seconds float64, path string) error {
	pl, err := setup.NewPlayer(polysynth.WithOffline())
	if err != nil {
		return err
	}
	if err := pl.LoadTrack(events); err != nil {
		return err
	}
	pl.SetMasterVolume(volume)
	samples, err := pl.Render(seconds)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, polysynth.EncodeWAVFloat32LE(samples, setup.SampleRate, 2), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%.2fs)\n", path, float64(len(samples)/2)/float64(setup.SampleRate))
	return nil
}
