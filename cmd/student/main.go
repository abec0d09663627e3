// student: subject-side agent. Reads landmark frames as JSON lines from
// a file or stdin (the vision model runs out of process), runs the
// posture/presence/focus pipeline and pushes status to the monitor.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoon-dev/go-classwatch/internal/config"
	"github.com/jmoon-dev/go-classwatch/internal/log"
	"github.com/jmoon-dev/go-classwatch/pkg/landmark"
	"github.com/jmoon-dev/go-classwatch/pkg/pipeline"
)

var (
	name   = flag.String("name", "", "Display name (required)")
	grade  = flag.String("grade", "", "Grade or class label")
	frames = flag.String("frames", "-", "Landmark frame feed: JSON lines file, or - for stdin")
	fps    = flag.Int("fps", 25, "Frame replay rate")
	loop   = flag.Bool("loop", false, "Replay the frame file forever")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	log.Init(cfg.LogLevel)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: student -name <display name> [-grade <label>] [-frames <file>]")
		os.Exit(2)
	}

	pcfg := pipeline.DefaultConfig()
	pcfg.MonitorURL = cfg.MonitorURL
	pcfg.PushInterval = cfg.StatusInterval
	pcfg.Name = *name
	pcfg.Grade = *grade

	p := pipeline.New(pcfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if err := p.Connect(ctx); err != nil {
		if errors.Is(err, pipeline.ErrNameTaken) {
			fmt.Fprintf(os.Stderr, "the name %q is already in use, pick another\n", *name)
			os.Exit(1)
		}
		log.Error("connect to monitor", "url", pcfg.MonitorURL, "error", err)
		os.Exit(1)
	}

	go func() {
		if err := feedFrames(ctx, p); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("frame feed stopped", "error", err)
		}
	}()

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("pipeline stopped", "error", err)
		os.Exit(1)
	}
}

// feedFrames replays the JSONL landmark feed at the configured rate.
// Each line is either a bare point array or {"landmarks": [...]}.
func feedFrames(ctx context.Context, p *pipeline.Pipeline) error {
	interval := time.Second / time.Duration(*fps)

	for {
		if err := replayOnce(ctx, p, interval); err != nil {
			return err
		}
		if !*loop || *frames == "-" {
			return nil
		}
	}
}

func replayOnce(ctx context.Context, p *pipeline.Pipeline, interval time.Duration) error {
	var r io.Reader
	if *frames == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(*frames)
		if err != nil {
			return fmt.Errorf("open frame feed: %w", err)
		}
		defer f.Close()
		r = f
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		frame, err := parseFrame(line)
		if err != nil {
			log.Warn("skipping bad frame line", "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.SubmitFrame(frame)
		}
	}
	return scanner.Err()
}

func parseFrame(line []byte) (landmark.Frame, error) {
	var frame landmark.Frame
	if err := json.Unmarshal(line, &frame); err == nil {
		return frame, nil
	}

	var wrapped struct {
		Landmarks landmark.Frame `json:"landmarks"`
	}
	if err := json.Unmarshal(line, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Landmarks, nil
}
