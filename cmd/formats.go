package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-imsto/imconv/config"
	"github.com/go-imsto/imconv/image"
)

var cmdFormats = &Command{
	UsageLine: "formats",
	Short:     "list the format tokens and what their codecs can do",
	Long: `
Formats prints every format token with its file suffixes, the first one
being the extension of converted files, and whether the codec is present.
`,
}

func init() {
	cmdFormats.Run = runFormats
}

func runFormats(args []string) bool {
	s := config.Current
	codec := image.NewCodec(image.WithHEIF(image.ProbeHEIF(s.HEIFEncoder, s.HEIFDecoder), s.HEIFEncoder, s.HEIFDecoder))
	if err := printFormats(os.Stdout, codec); err != nil {
		errorf("formats: %s", err)
		setExitStatus(1)
	}
	return true
}

func printFormats(w io.Writer, codec *image.Codec) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tFORMAT\tSUFFIXES\tANIMATED\tQUALITY\tAVAILABLE")
	for _, t := range image.Tokens() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Name, t.Format,
			strings.Join(t.Suffixes, " "), yesNo(t.Format.Animated()),
			yesNo(t.Format.Lossy()), yesNo(codec.Available(t.Format)))
	}
	fmt.Fprintf(tw, "%s\t*\t(every suffix above)\t\t\tinput only\n", image.AllToken)
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
