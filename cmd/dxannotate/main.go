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

// Command dxannotate edits the annotation blocks of a trace file without
// touching anything else it contains: set an arbitrary label/data pair, or
// manage the well-known replay-options annotation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gfxcapture/dxreplay/decode/annotation"
	"github.com/gfxcapture/dxreplay/format"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dxannotate",
		Short: "Edit the annotation blocks of a dxreplay trace file",
	}
	root.AddCommand(newSetCommand(), newReplayOptionsCommand())
	return root
}

func newSetCommand() *cobra.Command {
	var (
		output    string
		label     string
		data      string
		jsonValue bool
		delete    bool
	)
	cmd := &cobra.Command{
		Use:   "set <trace-file>",
		Short: "Replace, add, or delete a single labeled annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			annotationType := format.AnnotationTypeText
			if jsonValue {
				annotationType = format.AnnotationTypeJSON
			}
			value := data
			if delete {
				value = ""
			}
			return transform(context.Background(), args[0], output, func(out annotation.BlockWriter) editorAndFinisher {
				ed := annotation.NewEditor(out)
				ed.SetAnnotation(annotationType, label, value)
				return ed
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path to write the edited trace to")
	cmd.Flags().StringVar(&label, "label", "", "annotation label to set or delete")
	cmd.Flags().StringVar(&data, "data", "", "new annotation data (ignored with --delete)")
	cmd.Flags().BoolVar(&jsonValue, "json", false, "encode --data as the JSON annotation type instead of text")
	cmd.Flags().BoolVar(&delete, "delete", false, "remove the labeled annotation instead of setting it")
	cmd.MarkFlagRequired("label")
	return cmd
}

func newReplayOptionsCommand() *cobra.Command {
	var (
		output  string
		options string
	)
	cmd := &cobra.Command{
		Use:   "replay-options <trace-file>",
		Short: "Replace the trace's replay-options annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			return transform(context.Background(), args[0], output, func(out annotation.BlockWriter) editorAndFinisher {
				ed := annotation.NewReplayOptionsEditor(out)
				ed.SetReplayOptions(options)
				return replayOptionsStarter{ed}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path to write the edited trace to")
	cmd.Flags().StringVar(&options, "set", "", "new replay-options string, space-separated")
	return cmd
}

// editorAndFinisher is the shape decode/annotation.TransformFile drives:
// ProcessAnnotation per annotation block, Finish once the input is
// exhausted.
type editorAndFinisher interface {
	ProcessAnnotation(ctx context.Context, blockIndex uint64, annotationType format.AnnotationType, label, data string) error
	Finish() error
}

// replayOptionsStarter adapts ReplayOptionsEditor so its Start() call (write
// the new value before anything else is copied) happens as part of
// constructing the editor passed to TransformFile.
type replayOptionsStarter struct {
	*annotation.ReplayOptionsEditor
}

func transform(ctx context.Context, input, output string, newEditor func(annotation.BlockWriter) editorAndFinisher) error {
	in, err := os.Open(input)
	if err != nil {
		return errors.Wrapf(err, "opening %q", input)
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return errors.Wrapf(err, "creating %q", output)
	}
	defer out.Close()

	writer := annotation.NewStreamWriter(out)
	ed := newEditor(writer)
	if starter, ok := ed.(replayOptionsStarter); ok {
		if err := starter.Start(); err != nil {
			return errors.Wrap(err, "writing replay-options annotation")
		}
	}

	if err := annotation.TransformFile(ctx, in, out, ed); err != nil {
		return errors.Wrap(err, "rewriting trace")
	}
	return nil
}
