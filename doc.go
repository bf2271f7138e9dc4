// Package fdd implements Freeze-Dried Data: a single-file, append-only,
// immutable-after-close container for machine-learning datasets. A file
// behaves like an ordered mapping from user-supplied keys to records,
// where record values live on disk and are loaded on demand while the
// key index lives in memory once the file is opened for reading.
//
// A Writer streams values to disk as they arrive — whole rows via Set,
// column by column via Row — and emits a self-describing footer at
// Close. A Reader parses that footer and exposes a random-access mapping
// over the file, optionally scoped to named splits ("train", "val", ...)
// declared at write time. Values are encoded per column by named codecs
// persisted in the footer, so a file carries everything needed to read
// it back.
package fdd
