package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes one JSON document of type T from the --file flag, or
// from stdin when the flag is empty or "-".
type FileReader[T any] struct {
	path  string
	Stdin io.Reader // defaults to os.Stdin
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON file, or - for stdin",
		TakesFile:   true,
		Destination: &fr.path,
	}
}

// Read decodes the document. Trailing data after it is an error.
func (fr *FileReader[T]) Read() (T, error) {
	var input T

	r, closer, err := fr.open()
	if err != nil {
		return input, err
	}
	defer closer()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return input, errors.New("decode JSON: unexpected data after the document")
	}
	return input, nil
}

func (fr *FileReader[T]) open() (io.Reader, func(), error) {
	if fr.path != "" && fr.path != "-" {
		f, err := os.Open(fr.path)
		if err != nil {
			return nil, nil, fmt.Errorf("open file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}

	if fr.Stdin != nil {
		return fr.Stdin, func() {}, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, nil, errors.New("no input provided (stdin is a terminal); use -f or pipe JSON input")
	}
	return os.Stdin, func() {}, nil
}
