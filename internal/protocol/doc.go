// Package protocol owns the packet wire contract shared by every codec.
//
// Ownership boundary:
// - error taxonomy (schema violation, decode, coercion)
// - decode limits for untrusted input
//
// Subpackages:
// - value: the closed Value union every codec speaks
// - textwire / binwire: the text (JSON) and binary (MessagePack) grammars
// - schema: field tables, coercion policy, the packet catalog
// - packet: schema-bound container with Encode/Decode
// - registry: discriminator to schema dispatch
// - frame: stream envelope for encoded packets
package protocol
