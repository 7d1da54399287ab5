// Package hashing computes the streaming MD5/SHA256 pair (C4) recorded
// against every Document, without buffering the whole file in memory.
package hashing

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Digests holds both hex digests produced by a single pass over a reader.
type Digests struct {
	MD5    string
	SHA256 string
}

// Stream reads r to completion, feeding both hash functions in one pass via
// io.MultiWriter, mirroring the single-pass hashing habit in its
// ingest preprocessing (internal/rag/ingest/preprocess.go ComputeHash).
func Stream(r io.Reader) (Digests, error) {
	md5h := md5.New()
	sha256h := sha256.New()
	mw := io.MultiWriter(md5h, sha256h)

	if _, err := io.Copy(mw, r); err != nil {
		return Digests{}, err
	}

	return Digests{
		MD5:    hex.EncodeToString(md5h.Sum(nil)),
		SHA256: hex.EncodeToString(sha256h.Sum(nil)),
	}, nil
}

// File opens path and streams its digests. An unreadable file returns empty
// strings and the open error; the orchestrator treats that as non-fatal
// per the hasher contract.
func File(path string) (md5, sha256 string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	d, err := Stream(f)
	if err != nil {
		return "", "", err
	}
	return d.MD5, d.SHA256, nil
}
