package main

import (
	"bufio"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goatkit/plugkit/internal/signing"
	"github.com/goatkit/plugkit/pkg/manifest"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 signing key pair",
	Args:  cobra.NoArgs,
	RunE:  runKeygen,
}

var signCmd = &cobra.Command{
	Use:   "sign <binary>",
	Short: "Sign a plugin binary",
	Args:  cobra.ExactArgs(1),
	RunE:  runSign,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <binary>",
	Short: "Verify a plugin binary signature and manifest checksum",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	keygenCmd.Flags().StringP("output", "o", "plugkit", "key file prefix")

	signCmd.Flags().String("key", "", "private key file (required)")
	signCmd.MarkFlagRequired("key")

	verifyCmd.Flags().String("keys", "", "trusted public keys file (default from config)")
	verifyCmd.Flags().String("manifest", "", "plugin manifest to check the binary checksum against")

	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	pub, priv, err := signing.GenerateKeyPair()
	if err != nil {
		return err
	}

	prefix, _ := cmd.Flags().GetString("output")
	pubPath := prefix + ".pub"
	privPath := prefix + ".key"

	if err := os.WriteFile(pubPath, []byte(hex.EncodeToString(pub)+"\n"), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(privPath, []byte(hex.EncodeToString(priv)+"\n"), 0600); err != nil {
		return err
	}

	fmt.Printf("Wrote %s and %s\n", pubPath, privPath)
	return nil
}

func runSign(cmd *cobra.Command, args []string) error {
	keyPath, _ := cmd.Flags().GetString("key")
	priv, err := readPrivateKey(keyPath)
	if err != nil {
		return err
	}

	sigPath := signing.DefaultSignaturePath(args[0])
	if err := signing.SignBinary(args[0], sigPath, priv); err != nil {
		return err
	}

	fmt.Printf("Signed %s -> %s\n", args[0], sigPath)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	keysPath, _ := cmd.Flags().GetString("keys")
	if keysPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		keysPath = cfg.TrustedKeysFile
	}
	if keysPath == "" {
		return fmt.Errorf("no trusted keys file; pass --keys or set PLUGKIT_TRUSTED_KEYS_FILE")
	}

	keys, err := readTrustedKeys(keysPath)
	if err != nil {
		return err
	}

	sigPath := signing.DefaultSignaturePath(args[0])
	if err := signing.VerifyBinary(args[0], sigPath, keys); err != nil {
		return err
	}
	fmt.Printf("Signature OK: %s\n", args[0])

	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath != "" {
		m, err := manifest.ParsePluginFile(manifestPath)
		if err != nil {
			return err
		}
		if err := signing.VerifyChecksum(m, args[0]); err != nil {
			return err
		}
		fmt.Println("Checksum OK")
	}
	return nil
}

func readPrivateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid private key in %s: %w", path, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length in %s", path)
	}
	return ed25519.PrivateKey(raw), nil
}

func readTrustedKeys(path string) ([]ed25519.PublicKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var keys []ed25519.PublicKey
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw, err := hex.DecodeString(line)
		if err != nil || len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid public key in %s: %q", path, line)
		}
		keys = append(keys, ed25519.PublicKey(raw))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys found in %s", path)
	}
	return keys, nil
}
