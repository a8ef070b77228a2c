package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore/password"
)

// NewHashCmd creates the hash subcommand.
func NewHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Hash a password read from stdin",
		Long: `Read one password line from stdin and print its argon2id PHC hash,
using the password settings from the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, nil)
			if err != nil {
				return err
			}
			plain, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			hasher, err := password.NewHasher(password.Config{
				Memory:           cfg.Auth.Password.Memory,
				Time:             cfg.Auth.Password.Time,
				Parallelism:      cfg.Auth.Password.Parallelism,
				SaltLength:       cfg.Auth.Password.SaltLength,
				KeyLength:        cfg.Auth.Password.KeyLength,
				MaxPasswordBytes: cfg.Auth.Password.MaxPasswordBytes,
			})
			if err != nil {
				return err
			}
			encoded, err := hasher.Hash(plain)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
}

// NewPolicyCmd creates the policy subcommand.
func NewPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Check a password read from stdin against the complexity policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, nil)
			if err != nil {
				return err
			}
			plain, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			policy := password.Policy{
				MinLength: cfg.Auth.Password.MinLength,
				Symbols:   cfg.Auth.Password.Symbols,
			}
			if err := policy.Check(plain); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password on stdin")
	}
	return line, nil
}
