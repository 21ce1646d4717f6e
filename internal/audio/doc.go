// Package audio implements companding codecs for the media path.
// It converts between 8-bit G.711 µ-law wire audio and 16-bit linear PCM,
// and provides a pass-through transcoder for deployments where both peers
// use the same encoding. All transforms are stateless and validate input.
package audio
