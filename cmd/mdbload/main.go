// Command mdbload restores a dump created by mdbdump or mdb_dump.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/bsm/mdbdump"
	"github.com/bsm/mdbdump/kvenv"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

type options struct {
	input      string
	backend    string
	noClear    bool
	compressed bool
	encoding   string
	overrides  mdbdump.EnvOptions
	path       string
}

func parseFlags(args []string) (*options, error) {
	var o options

	fs := flag.NewFlagSet("mdbload", flag.ContinueOnError)
	fs.StringVar(&o.input, "f", "", "read from file instead of stdin")
	fs.StringVar(&o.backend, "backend", string(kvenv.LevelDB), "backend: memory, leveldb or badger")
	fs.BoolVar(&o.noClear, "N", false, "keep existing entries of restored stores")
	fs.BoolVar(&o.compressed, "z", false, "input is snappy compressed")
	fs.StringVar(&o.encoding, "T", "utf-8", "target text encoding of keys and values")
	fs.Uint64Var(&o.overrides.MapSize, "mapsize", 0, "override the recorded map size")
	fs.Uint64Var(&o.overrides.MaxReaders, "maxreaders", 0, "override the recorded max readers")
	fs.Uint64Var(&o.overrides.MaxDBs, "maxdbs", 0, "override the max number of named stores")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [options] PATH\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one PATH argument")
	}
	o.path = fs.Arg(0)
	return &o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err == flag.ErrHelp {
		return
	} else if err != nil {
		os.Exit(2)
	}

	if err := run(o, os.Stdin); err != nil {
		log.Fatalln(err)
	}
	log.Printf("restored %s into %s (%s)", o.inputName(), o.path, o.backend)
}

func run(o *options, stdin io.Reader) error {
	enc, err := targetEncoding(o.encoding)
	if err != nil {
		return err
	}

	in := stdin
	if o.input != "" {
		f, err := os.Open(o.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	if o.compressed {
		in = snappy.NewReader(in)
	}

	env, err := mdbdump.RestoreNew(bufio.NewReader(in), kvenv.Opener(kvenv.Kind(o.backend), o.path), &o.overrides, &mdbdump.RestoreOptions{
		NoClear:        o.noClear,
		TargetEncoding: enc,
	})
	if c, ok := env.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func targetEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid encoding %q", name)
	}
	return enc, nil
}

func (o *options) inputName() string {
	if o.input == "" {
		return "stdin"
	}
	return o.input
}
