package commands

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow/errors"
)

// Example will be written out to a file, .json and .bin
// Filename should have no path and no extension
type Example struct {
	Filename string
	Obj      proto.Message
}

// TestGenCmd writes the json and protobuf encodings of every example into
// given directory ("testdata" by default). Client libraries in other
// languages test their codecs against these files.
func TestGenCmd(examples []Example, args []string) error {
	outdir := "testdata"
	if len(args) > 0 {
		outdir = args[0]
	}
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return errors.Wrap(err, "cannot create output directory")
	}

	for _, ex := range examples {
		if ex.Filename == "" || filepath.Base(ex.Filename) != ex.Filename {
			return errors.Wrapf(errors.ErrInput, "invalid example file name %q", ex.Filename)
		}
		js, err := json.MarshalIndent(ex.Obj, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "json %s", ex.Filename)
		}
		if err := ioutil.WriteFile(filepath.Join(outdir, ex.Filename+".json"), js, 0644); err != nil {
			return err
		}

		pb, err := proto.Marshal(ex.Obj)
		if err != nil {
			return errors.Wrapf(err, "protobuf %s", ex.Filename)
		}
		if err := ioutil.WriteFile(filepath.Join(outdir, ex.Filename+".bin"), pb, 0644); err != nil {
			return err
		}
	}
	return nil
}
