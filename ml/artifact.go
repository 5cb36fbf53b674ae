package ml

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const artifactVersion = 1

// artifact is the on-disk form of a trained model. Files whose name ends in
// .gz are gzip-compressed; readers detect compression from the content.
type artifact struct {
	Type         string         `json:"type"`
	Version      int            `json:"version"`
	FeatureNames []string       `json:"feature_names"`
	Config       BoostingConfig `json:"config"`
	Init         float64        `json:"init"`
	Trees        [][]TreeNode   `json:"trees"`
	SavedAt      time.Time      `json:"saved_at"`
}

func writeArtifact(path string, a *artifact) error {
	a.Version = artifactVersion

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var w io.Writer = file
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(file)
		w = zw
	}
	if err := json.NewEncoder(w).Encode(a); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	return file.Close()
}

func readArtifact(path string) (*artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	br := bufio.NewReader(file)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip model: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("model %s has version %d, want %d", path, a.Version, artifactVersion)
	}
	return &a, nil
}
