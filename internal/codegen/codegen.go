// Package codegen issues the opaque confirmation codes that identify a
// completed transaction and are encoded into pickup QR codes.
package codegen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Issuer hands out confirmation codes. A server-issued transaction ID plugs
// in here.
type Issuer interface {
	Issue(ctx context.Context, flow string) (string, error)
}

const (
	KindRandom = "random"
	KindStatic = "static"
	KindUUID   = "uuid"
)

// New builds the issuer named by kind. static supplies the per-flow codes
// for KindStatic.
func New(kind string, static map[string]string) (Issuer, error) {
	switch strings.ToLower(kind) {
	case "", KindRandom:
		return RandomIssuer{}, nil
	case KindStatic:
		return StaticIssuer{Codes: static}, nil
	case KindUUID:
		return UUIDIssuer{}, nil
	}
	return nil, fmt.Errorf("unknown code issuer %q", kind)
}

// RandomIssuer returns AAA-999 style tokens
type RandomIssuer struct{}

func (RandomIssuer) Issue(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Random()
}

const (
	letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digits  = "0123456789"
)

// Random generates a three-letter, three-digit token such as "KQT-482"
func Random() (string, error) {
	var b strings.Builder
	if err := pick(&b, letters, 3); err != nil {
		return "", err
	}
	b.WriteByte('-')
	if err := pick(&b, digits, 3); err != nil {
		return "", err
	}
	return b.String(), nil
}

func pick(b *strings.Builder, alphabet string, n int) error {
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return nil
}

// StaticIssuer returns a fixed code per flow
type StaticIssuer struct {
	Codes map[string]string
}

func (s StaticIssuer) Issue(_ context.Context, flow string) (string, error) {
	code, ok := s.Codes[flow]
	if !ok || code == "" {
		return "", fmt.Errorf("no static code for flow %q", flow)
	}
	return code, nil
}

// UUIDIssuer returns transaction-id style codes, e.g. "TX-1F3A9C0B"
type UUIDIssuer struct{}

func (UUIDIssuer) Issue(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return "TX-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8]), nil
}
