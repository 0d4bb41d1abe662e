package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/go-imsto/imconv/config"
	"github.com/go-imsto/imconv/image"
)

var cmdProbe = &Command{
	UsageLine: "probe filename [filename ...]",
	Short:     "print the attributes of images as JSON",
	Long: `
Probe decodes each file and prints its format, canvas size, frame count,
frame delays, loop count, byte size and a murmur3 content hash.
`,
}

func init() {
	cmdProbe.Run = runProbe
}

func runProbe(args []string) bool {
	if len(args) == 0 {
		return false
	}
	s := config.Current
	codec := image.NewCodec(image.WithHEIF(image.ProbeHEIF(s.HEIFEncoder, s.HEIFDecoder), s.HEIFEncoder, s.HEIFDecoder))
	if n := probe(context.Background(), os.Stdout, codec, args); n > 0 {
		setExitStatus(1)
	}
	return true
}

// probe writes one JSON document per file and returns the number of failures
func probe(ctx context.Context, w io.Writer, codec *image.Codec, files []string) (failed int) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, name := range files {
		attr, err := codec.Inspect(ctx, name)
		if err != nil {
			logger().Warnw("probe fail", "name", name, "err", err)
			failed++
			continue
		}
		if err = enc.Encode(attr); err != nil {
			logger().Warnw("json encode fail", "name", name, "err", err)
			failed++
		}
	}
	return
}
