package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/crosspacket/internal/protocol/frame"
	"github.com/danmuck/crosspacket/internal/protocol/packet"
)

func (a *app) framesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Write or read length-prefixed packet streams",
	}
	cmd.AddCommand(a.framesWriteCmd(), a.framesReadCmd())
	return cmd
}

func (a *app) framesWriteCmd() *cobra.Command {
	var (
		from, codec, out string
		lenient          bool
	)
	cmd := &cobra.Command{
		Use:   "write FILE...",
		Short: "Frame each input packet into one stream",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := packet.ParseCodec(from)
			if err != nil {
				return err
			}
			dst, err := packet.ParseCodec(codec)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			bw := bufio.NewWriter(w)

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				p, err := a.decode(src, data, lenient)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := frame.WritePacket(bw, p, dst, a.cfg.Frame); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return bw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "text", "codec of the input files")
	cmd.Flags().StringVar(&codec, "codec", "binary", "codec of the framed payloads")
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "accept comments and trailing commas in text input")
	return cmd
}

func (a *app) framesReadCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print every packet in a framed stream as text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if in != "" && in != "-" {
				f, err := os.Open(in)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			br := bufio.NewReader(r)
			out := cmd.OutOrStdout()

			for n := 0; ; n++ {
				p, c, err := frame.ReadPacket(br, a.registry, a.cfg.Frame, a.cfg.Limits)
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("frame %d: %w", n, err)
				}
				text, err := p.Encode(packet.Text)
				if err != nil {
					return fmt.Errorf("frame %d: %w", n, err)
				}
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", c, p.TypeID(), text); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "input file, - for stdin")
	return cmd
}
