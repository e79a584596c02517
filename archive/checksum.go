package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/kbukum/datasets/errors"
)

// SHA256 returns the hex digest of the file at path.
func SHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.ArchiveFailure(path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.ArchiveFailure(path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifySHA256 checks the file at path against the expected hex digest.
func VerifySHA256(path, want string) error {
	got, err := SHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return errors.ChecksumMismatch(path, want, got)
	}
	return nil
}
