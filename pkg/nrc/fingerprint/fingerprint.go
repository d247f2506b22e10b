// Package fingerprint identifies a resource set and decides whether an
// existing artifact still matches its inputs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nappgui/nrc/pkg/nrc/csource"
	"github.com/nappgui/nrc/pkg/nrc/logging"
	"github.com/nappgui/nrc/pkg/nrc/pack"
	"github.com/nappgui/nrc/pkg/nrc/types"
)

var logger = logging.Get("fingerprint")

const domain = "nrc-fp/1"

// Compute hashes the names and contents of set together with the output
// mode. The result does not depend on the order of set.
func Compute(set types.ResourceSet, mode types.Mode) types.Fingerprint {
	ordered := set
	if !set.IsSorted() {
		ordered = append(types.ResourceSet(nil), set...)
		ordered.Sort()
	}

	h := sha256.New()
	var scratch [8]byte

	writeString := func(s string) {
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(s)))
		h.Write(scratch[:])
		io.WriteString(h, s)
	}

	writeString(domain)
	writeString(mode.String())
	for _, e := range ordered {
		writeString(e.Name)
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(e.Data)))
		h.Write(scratch[:])
		sum := sha256.Sum256(e.Data)
		h.Write(sum[:])
	}

	var fp types.Fingerprint
	h.Sum(fp[:0])
	return fp
}

// Read returns the fingerprint recorded in the artifact at path.
func Read(path string, mode types.Mode) (types.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Fingerprint{}, err
	}
	defer f.Close()

	if mode == types.ModePacked {
		header := make([]byte, pack.HeaderSize)
		if _, err := io.ReadFull(f, header); err != nil {
			return types.Fingerprint{}, fmt.Errorf("reading pack header: %w", err)
		}
		return pack.ReadFingerprint(header)
	}
	return csource.ReadFingerprint(f)
}

// NeedsRegeneration reports whether the artifact at outputPath must be
// rebuilt from set. A missing, unreadable or unparseable artifact, one
// recording the zero fingerprint, and one recording a different
// fingerprint all need regeneration. The returned error is informational:
// when it is non-nil the result is always true.
func NeedsRegeneration(set types.ResourceSet, mode types.Mode, outputPath string) (bool, error) {
	return Stale(Compute(set, mode), mode, outputPath)
}

// Stale is NeedsRegeneration for a precomputed fingerprint.
func Stale(want types.Fingerprint, mode types.Mode, outputPath string) (bool, error) {
	got, err := Read(outputPath, mode)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("artifact missing", "path", outputPath)
			return true, nil
		}
		logger.Debug("artifact unreadable", "path", outputPath, "err", err)
		return true, err
	}
	if got.IsZero() {
		logger.Debug("artifact marked incomplete", "path", outputPath)
		return true, nil
	}
	if got != want {
		logger.Debug("fingerprint changed", "path", outputPath, "was", got.String()[:12], "now", want.String()[:12])
		return true, nil
	}
	return false, nil
}
