package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/snowcat-chat/signalvec"
)

const usage = `Group a recorded diff stream into runs of equal keys.

The input file holds the JSON encoding of a diff stream over JSON objects. The
groups are printed once the whole stream has been processed.

Usage:
    vecgroup <changes.json> --field=<field> [--log=<spec>]
    vecgroup -h | --help

Options:
    --field=<field>   Object field holding the key.
    --log=<spec>      Logging configuration, e.g. "signalvec.groupbykey=TRACE".
`

type document = map[string]interface{}

type group struct {
	Key   string     `json:"key"`
	Items []document `json:"items"`
}

func readJson(jsonPath string, data interface{}) error {
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return err
	}
	defer jsonFile.Close()
	decoder := json.NewDecoder(jsonFile)
	return errors.Annotatef(decoder.Decode(data), "reading %s", jsonPath)
}

// drain applies every diff the source has ready. Chunk streams stay open
// while their group exists, so they are never waited on.
func drain[T any](source signalvec.Source[T]) []T {
	values := []T{}
	for {
		poll := source.PollChange(signalvec.NoopWaker)
		if poll.Status != signalvec.StatusReady {
			return values
		}
		values = signalvec.Apply(values, poll.Diff)
	}
}

func run(changesPath, field string) error {
	var changes signalvec.Changes[document]
	if err := readJson(changesPath, &changes); err != nil {
		return err
	}

	grouped := signalvec.NewGroupByKey(changes.Source(), func(doc document) string {
		return fmt.Sprint(doc[field])
	})

	chunks, err := signalvec.Collect[*signalvec.Chunk[string, document]](context.Background(), grouped)
	if err != nil {
		return err
	}

	groups := make([]group, len(chunks))
	for i, chunk := range chunks {
		groups[i] = group{Key: chunk.Key, Items: drain(chunk.Items())}
	}

	encoder := json.NewEncoder(os.Stdout)
	if err := encoder.Encode(groups); err != nil {
		return err
	}

	return nil
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}

	if spec, _ := opts.String("--log"); spec != "" {
		if err := loggo.ConfigureLoggers(spec); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(2)
		}
	}

	changesPath, _ := opts.String("<changes.json>")
	field, _ := opts.String("--field")

	err = run(changesPath, field)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
