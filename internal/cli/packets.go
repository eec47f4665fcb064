package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/packet"
	"github.com/danmuck/crosspacket/internal/protocol/textwire"
	"github.com/danmuck/crosspacket/internal/server"
)

// decode dispatches data on its discriminator. Lenient input may carry
// comments and trailing commas and is only accepted for the text codec.
func (a *app) decode(c packet.Codec, data []byte, lenient bool) (*packet.Packet, error) {
	if !lenient {
		return a.registry.DecodeAnyWithLimits(c, data, a.cfg.Limits)
	}
	if c != packet.Text {
		return nil, fmt.Errorf("--lenient only applies to the text codec")
	}
	tree, err := textwire.DecodeLenient(data, a.cfg.Limits)
	if err != nil {
		return nil, err
	}
	typeID, err := packet.TypeOf(tree)
	if err != nil {
		return nil, err
	}
	s, ok := a.registry.Get(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", protocol.ErrUnknownType, typeID)
	}
	return packet.FromTree(tree, s, a.cfg.Limits)
}

func (a *app) schemasCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the registered packet schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := server.DescribeSchemas(a.registry)
			if asJSON {
				out, err := json.MarshalIndent(list, "", "  ")
				if err != nil {
					return err
				}
				return writeOutput(cmd, "", append(out, '\n'))
			}
			var b strings.Builder
			for _, s := range list {
				b.WriteString(s.TypeID)
				b.WriteByte('\n')
				for _, f := range s.Fields {
					req := "required"
					if f.Optional {
						req = "optional"
					}
					fmt.Fprintf(&b, "  %-26s %-20s %s\n", f.Wire, f.Kind, req)
				}
			}
			return writeOutput(cmd, "", []byte(b.String()))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the schema list as JSON")
	return cmd
}

func (a *app) transcodeCmd() *cobra.Command {
	var (
		from, to, in, out string
		lenient           bool
	)
	cmd := &cobra.Command{
		Use:   "transcode",
		Short: "Re-encode a packet with another codec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := packet.ParseCodec(from)
			if err != nil {
				return err
			}
			dst, err := packet.ParseCodec(to)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			p, err := a.decode(src, data, lenient)
			if err != nil {
				return fmt.Errorf("decode %s: %w", src, err)
			}
			encoded, err := p.Encode(dst)
			if err != nil {
				return fmt.Errorf("encode %s: %w", dst, err)
			}
			return writeOutput(cmd, out, encoded)
		},
	}
	cmd.Flags().StringVar(&from, "from", "text", "input codec (text, binary)")
	cmd.Flags().StringVar(&to, "to", "binary", "output codec (text, binary)")
	cmd.Flags().StringVar(&in, "in", "-", "input file, - for stdin")
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "accept comments and trailing commas in text input")
	return cmd
}

type inspection struct {
	TypeID  string          `json:"type_id"`
	Codec   string          `json:"codec"`
	Present []string        `json:"present"`
	Packet  json.RawMessage `json:"packet"`
}

func inspect(p *packet.Packet, c packet.Codec) ([]byte, error) {
	text, err := p.Encode(packet.Text)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(inspection{
		TypeID:  p.TypeID(),
		Codec:   c.String(),
		Present: p.Present(),
		Packet:  text,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func (a *app) inspectCmd() *cobra.Command {
	var (
		codec, in string
		lenient   bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode a packet and print its fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := packet.ParseCodec(codec)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			p, err := a.decode(c, data, lenient)
			if err != nil {
				return err
			}
			out, err := inspect(p, c)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", out)
		},
	}
	cmd.Flags().StringVar(&codec, "codec", "binary", "input codec (text, binary)")
	cmd.Flags().StringVar(&in, "in", "-", "input file, - for stdin")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "accept comments and trailing commas in text input")
	return cmd
}
