package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Exported variables.
var (
	ErrMalformedPair = errors.New("malformed file pair")
)

// PairSpec is a source/destination path pair as given by the user.
type PairSpec struct {
	Source      string
	Destination string
}

// ParsePairArg parses SOURCE=DESTINATION, splitting at the first '='.
func ParsePairArg(s string) (PairSpec, error) {
	source, destination, ok := strings.Cut(s, "=")
	if !ok || source == "" || destination == "" {
		return PairSpec{}, fmt.Errorf("%w: %q (want SOURCE=DESTINATION)", ErrMalformedPair, s)
	}

	return PairSpec{Source: source, Destination: destination}, nil
}

// LoadPairList reads tab-separated pairs, one per line. Blank lines and
// lines starting with '#' are ignored.
func LoadPairList(r io.Reader) ([]PairSpec, error) {
	var pairs []PairSpec

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++

		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}

		source, destination, ok := strings.Cut(text, "\t")
		if !ok || source == "" || destination == "" {
			return nil, fmt.Errorf("%w on line %d: %q", ErrMalformedPair, line, text)
		}

		pairs = append(pairs, PairSpec{Source: source, Destination: destination})
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read pair list: %w", err)
	}

	return pairs, nil
}

// ResolvePairs returns the --pair arguments followed by the --list entries.
func (cfg *Config) ResolvePairs() ([]PairSpec, error) {
	pairs := make([]PairSpec, 0, len(cfg.Pairs))

	for _, raw := range cfg.Pairs {
		pair, err := ParsePairArg(raw)
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, pair)
	}

	if cfg.ListFile == "" {
		return pairs, nil
	}

	file, err := os.Open(cfg.ListFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open pair list %s: %w", cfg.ListFile, err)
	}

	defer func() {
		_ = file.Close()
	}()

	listed, err := LoadPairList(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ListFile, err)
	}

	return append(pairs, listed...), nil
}
