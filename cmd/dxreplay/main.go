// Copyright (C) 2024 The DXReplay Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command dxreplay replays a captured D3D12/DXGI trace against the local
// driver, optionally preloading a number of frames ahead of replay.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gfxcapture/dxreplay/core/config"
	"github.com/gfxcapture/dxreplay/core/crash"
	"github.com/gfxcapture/dxreplay/core/log"
	"github.com/gfxcapture/dxreplay/core/status"
	"github.com/gfxcapture/dxreplay/decode/addressmap"
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/decode/override"
	"github.com/gfxcapture/dxreplay/decode/processor"
	"github.com/gfxcapture/dxreplay/replay/consumer"
	"github.com/gfxcapture/dxreplay/replay/driver"
	"github.com/gfxcapture/dxreplay/replay/window"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var preloadFrames uint64

	cmd := &cobra.Command{
		Use:   "dxreplay <trace-file>",
		Short: "Replay a captured D3D12/DXGI trace against the local driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			watchInterrupt(ctx, cancel)
			return runReplay(ctx, args[0], preloadFrames)
		},
	}
	cmd.Flags().Uint64Var(&preloadFrames, "preload-frames", 0, "decode and buffer this many frames ahead of replay before dispatching any of them")
	cmd.Flags().BoolVar(&config.DebugReplay, "debug-replay", false, "log every block as it is dispatched")
	cmd.Flags().StringVar(&config.LogBlocksToFile, "log-blocks-to", "", "append a one-line description of every decoded block to this file")
	cmd.Flags().BoolVar(&config.LogMemoryFills, "log-memory-fills", false, "log every mapped-memory write")
	return cmd
}

// watchInterrupt launches a background goroutine that cancels ctx on the
// first SIGINT, so a long replay can be stopped cleanly instead of killed.
// The goroutine itself runs under crash.Go: if notifying or cancellation
// ever panics, the panic is recovered and logged rather than taking the
// process down silently out from under the foreground replay loop.
func watchInterrupt(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	crash.Go(func() {
		select {
		case <-sigCh:
			log.W(ctx, "received interrupt, stopping replay")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	})
}

func runReplay(ctx context.Context, path string, preloadFrames uint64) error {
	ctx = status.Start(ctx, "dxreplay.Replay: %s", path)
	defer status.Finish(ctx)

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening trace %q", path)
	}
	defer file.Close()

	overrides := override.New(
		objects.NewTable(),
		addressmap.NewGPUVAMap(),
		addressmap.NewDescriptorAddresses(),
		addressmap.NewDescriptorAddresses(),
		addressmap.NewMappedMemory(),
		window.NewFactory(),
		driver.New(),
	)
	defer overrides.DestroyActiveWindows()

	p := processor.New(ctx, file, consumer.New(overrides))
	p.SetReopen(func() (io.ReadCloser, error) {
		return os.Open(path)
	})

	if preloadFrames > 0 {
		preloadCtx := status.Start(ctx, "dxreplay.Preload: %d frames", preloadFrames)
		err := p.PreloadNextFrames(preloadFrames)
		status.Finish(preloadCtx)
		if err != nil {
			return errors.Wrap(err, "preloading frames")
		}
	}

	replayCtx := status.Start(ctx, "dxreplay.ProcessAll")
	err = p.ProcessAll()
	status.Finish(replayCtx)
	if err != nil {
		return errors.Wrap(err, "replaying trace")
	}

	log.I(ctx, "replay finished: %d frames", p.CurrentFrameNumber())
	return nil
}
