// Package signing signs and verifies plugin binaries. Manifests carry the
// signing material ([signature] and [binary.checksums]); this package is
// where it is actually checked.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/goatkit/plugkit/pkg/manifest"
)

// ChecksumPrefix is the scheme prefix used in manifest checksum values,
// e.g. "sha256:ab12...".
const ChecksumPrefix = "sha256:"

// GenerateKeyPair generates a new ed25519 key pair for plugin signing.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key pair: %w", err)
	}
	return publicKey, privateKey, nil
}

// FileChecksum computes the manifest-format checksum of a file:
// "sha256:" followed by the lowercase hex digest.
func FileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return ChecksumPrefix + hex.EncodeToString(sum[:]), nil
}

// SignBinary writes an ed25519 signature of the binary's SHA-256 hash to
// sigPath, hex encoded.
func SignBinary(binaryPath, sigPath string, privateKey ed25519.PrivateKey) error {
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		return fmt.Errorf("read binary: %w", err)
	}

	hash := sha256.Sum256(data)
	signature := ed25519.Sign(privateKey, hash[:])

	if err := os.WriteFile(sigPath, []byte(hex.EncodeToString(signature)), 0644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return nil
}

// VerifyBinary verifies a plugin binary against its signature file.
// Returns nil if any trusted key matches.
func VerifyBinary(binaryPath, sigPath string, trustedKeys []ed25519.PublicKey) error {
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		return fmt.Errorf("read binary: %w", err)
	}
	hash := sha256.Sum256(data)

	sigHex, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("read signature file: %w", err)
	}
	signature, err := hex.DecodeString(string(sigHex))
	if err != nil {
		return fmt.Errorf("invalid signature format: %w", err)
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("invalid signature length: expected %d, got %d",
			ed25519.SignatureSize, len(signature))
	}

	for _, publicKey := range trustedKeys {
		if ed25519.Verify(publicKey, hash[:], signature) {
			return nil
		}
	}
	return fmt.Errorf("signature verification failed: no matching trusted key")
}

// VerifyChecksum checks a file against the manifest checksum declared for
// the current platform. A manifest with no checksum for this platform
// verifies trivially; the manifest simply makes no claim.
func VerifyChecksum(m *manifest.PluginManifest, binaryPath string) error {
	want, ok := m.ChecksumForCurrentPlatform()
	if !ok {
		return nil
	}

	got, err := FileChecksum(binaryPath)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: manifest declares %s, file is %s",
			manifest.CurrentPlatform(), want, got)
	}
	return nil
}

// DefaultSignaturePath returns the conventional signature file path for a
// binary: the binary path plus ".sig".
func DefaultSignaturePath(binaryPath string) string {
	return binaryPath + ".sig"
}
