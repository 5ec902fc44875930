// Command mdbdump writes a portable dump of an environment, compatible
// with the mdb_load tool.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/bsm/mdbdump"
	"github.com/bsm/mdbdump/cdbstore"
	"github.com/bsm/mdbdump/kvenv"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

type storeList []string

func (l *storeList) String() string     { return strings.Join(*l, ",") }
func (l *storeList) Set(s string) error { *l = append(*l, s); return nil }

type options struct {
	all      bool
	stores   storeList
	print    bool
	list     bool
	output   string
	backend  string
	compress bool
	path     string
}

func parseFlags(args []string) (*options, error) {
	var o options

	fs := flag.NewFlagSet("mdbdump", flag.ContinueOnError)
	fs.BoolVar(&o.all, "a", false, "dump all named stores")
	fs.Var(&o.stores, "s", "dump a specific named store (may be repeated)")
	fs.BoolVar(&o.print, "p", false, "use the printable format")
	fs.BoolVar(&o.list, "l", false, "list named stores and exit")
	fs.StringVar(&o.output, "f", "", "write to file instead of stdout")
	fs.StringVar(&o.backend, "backend", string(kvenv.LevelDB), "backend: memory, leveldb, badger or cdb")
	fs.BoolVar(&o.compress, "z", false, "snappy compress the output")
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

	if err := run(o, os.Stdout); err != nil {
		log.Fatalln(err)
	}
}

func run(o *options, stdout io.Writer) error {
	src, closer, err := openSource(o.backend, o.path)
	if err != nil {
		return err
	}
	defer closer.Close()

	if o.list {
		env, ok := src.(mdbdump.Environment)
		if !ok {
			env = src.(mdbdump.Store).Env()
		}
		names, err := mdbdump.FindStores(env)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	out := stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	bw := bufio.NewWriter(out)
	dst := io.Writer(bw)
	if o.compress {
		dst = snappy.NewBufferedWriter(bw)
	}

	do := &mdbdump.DumpOptions{All: o.all}
	if len(o.stores) != 0 {
		do.Stores = o.stores
	}
	if o.print {
		do.Format = mdbdump.FormatPrint
	}

	if err := mdbdump.Dump(dst, src, do); err != nil {
		return err
	}
	// the snappy frame must be complete before the bufio flush
	if sw, ok := dst.(*snappy.Writer); ok {
		if err := sw.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func openSource(backend, path string) (interface{}, io.Closer, error) {
	if backend == "cdb" {
		s, err := cdbstore.Open(path, nil)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}

	env, err := kvenv.Open(kvenv.Kind(backend), path, nil)
	if err != nil {
		return nil, nil, err
	}
	return env, env, nil
}
