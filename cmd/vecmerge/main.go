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

const usage = `Merge two recorded diff streams into one ordered stream.

Each input file holds the JSON encoding of a diff stream over JSON objects.
The items are placed by the value of the given field.

Usage:
    vecmerge <left.json> <right.json> --field=<field> [--ties=<policy>] [--result] [--log=<spec>]
    vecmerge -h | --help

Options:
    --field=<field>   Object field to order by.
    --ties=<policy>   What to do with equal values: panic, left or right [default: panic].
    --result          Print the merged collection instead of the merged diffs.
    --log=<spec>      Logging configuration, e.g. "signalvec.merge=TRACE".
`

type document = map[string]interface{}

func readJson(jsonPath string, data interface{}) error {
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return err
	}
	defer jsonFile.Close()
	decoder := json.NewDecoder(jsonFile)
	return errors.Annotatef(decoder.Decode(data), "reading %s", jsonPath)
}

func parseTies(policy string) (signalvec.TieBreak, error) {
	switch policy {
	case "panic":
		return signalvec.TiePanic, nil
	case "left":
		return signalvec.TieLeftFirst, nil
	case "right":
		return signalvec.TieRightFirst, nil
	}
	return 0, errors.NotValidf("tie policy %q", policy)
}

// compareField orders numbers numerically and everything else by its printed form.
func compareField(field string) signalvec.OrderFunc[document, document] {
	return func(left, right document) signalvec.Ordering {
		l, lok := left[field].(float64)
		r, rok := right[field].(float64)
		if !lok || !rok {
			ls, rs := fmt.Sprint(left[field]), fmt.Sprint(right[field])
			switch {
			case ls < rs:
				return signalvec.Less
			case ls > rs:
				return signalvec.Greater
			}
			return signalvec.Equal
		}

		switch {
		case l < r:
			return signalvec.Less
		case l > r:
			return signalvec.Greater
		}
		return signalvec.Equal
	}
}

func run(leftPath, rightPath, field, ties string, result bool) error {
	tieBreak, err := parseTies(ties)
	if err != nil {
		return err
	}

	var left, right signalvec.Changes[document]
	if err := readJson(leftPath, &left); err != nil {
		return err
	}
	if err := readJson(rightPath, &right); err != nil {
		return err
	}

	options := signalvec.DefaultOptions.WithTieBreak(tieBreak)
	merged := signalvec.NewMergeWithOptions(options, left.Source(), right.Source(), compareField(field))

	var output interface{}
	if result {
		values, err := signalvec.Collect[signalvec.MergedItem[document, document]](context.Background(), merged)
		if err != nil {
			return err
		}
		output = values
	} else {
		var changes signalvec.Changes[signalvec.MergedItem[document, document]]
		err := signalvec.Drive[signalvec.MergedItem[document, document]](context.Background(), merged, func(diff signalvec.Diff[signalvec.MergedItem[document, document]]) error {
			changes = append(changes, diff)
			return nil
		})
		if err != nil {
			return err
		}
		output = changes
	}

	encoder := json.NewEncoder(os.Stdout)
	if err := encoder.Encode(output); err != nil {
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

	leftPath, _ := opts.String("<left.json>")
	rightPath, _ := opts.String("<right.json>")
	field, _ := opts.String("--field")
	ties, _ := opts.String("--ties")
	result, _ := opts.Bool("--result")

	err = run(leftPath, rightPath, field, ties, result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
