package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// MtimeDetector fingerprints a file by its modification time
type MtimeDetector struct{}

// NewMtimeDetector creates a new MtimeDetector
func NewMtimeDetector() *MtimeDetector {
	return &MtimeDetector{}
}

// Name returns the detector name
func (d *MtimeDetector) Name() string {
	return config.DetectorMtime
}

// Fingerprint returns the modification time in nanoseconds
func (d *MtimeDetector) Fingerprint(_ context.Context, path string) (domain.Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &domain.FileUnavailableError{Path: path, Err: err}
	}
	return domain.Fingerprint(strconv.FormatInt(info.ModTime().UnixNano(), 10)), nil
}

// HashDetector fingerprints a file by the keccak256 digest of its content.
// Rewrites with identical bytes are not reported as changes.
type HashDetector struct{}

// NewHashDetector creates a new HashDetector
func NewHashDetector() *HashDetector {
	return &HashDetector{}
}

// Name returns the detector name
func (d *HashDetector) Name() string {
	return config.DetectorHash
}

// Fingerprint returns the hex digest of the file content
func (d *HashDetector) Fingerprint(_ context.Context, path string) (domain.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &domain.FileUnavailableError{Path: path, Err: err}
	}
	defer f.Close()

	h := crypto.NewKeccakState()
	if _, err := io.Copy(h, f); err != nil {
		return "", &domain.FileUnavailableError{Path: path, Err: err}
	}
	return domain.Fingerprint(common.BytesToHash(h.Sum(nil)).Hex()), nil
}

// NewDetector returns the detector configured for the watch loop
func NewDetector(cfg *config.RuntimeConfig) (usecase.ChangeDetector, error) {
	switch cfg.Watch.Detector {
	case "", config.DetectorMtime:
		return NewMtimeDetector(), nil
	case config.DetectorHash:
		return NewHashDetector(), nil
	default:
		return nil, fmt.Errorf("unknown change detector %q", cfg.Watch.Detector)
	}
}

// Ensure the detectors implement the interface
var (
	_ usecase.ChangeDetector = (*MtimeDetector)(nil)
	_ usecase.ChangeDetector = (*HashDetector)(nil)
)
