package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainTopology = "tickbot/topology/v1"
	DomainProgram  = "tickbot/program/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash hashes the canonical JSON of v under domain.
func ContentHash(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// ProgramHash fingerprints an instruction sequence and its capacity.
// Journaled runs carry it so runs of the same program can be grouped.
func ProgramHash(seq []Instruction, capacity int) string {
	names := make([]any, len(seq))
	for i, inst := range seq {
		names[i] = inst.String()
	}
	h, err := ContentHash(DomainProgram, map[string]any{
		"capacity":     capacity,
		"instructions": names,
	})
	if err != nil {
		// Only strings and ints are marshaled above.
		panic(err)
	}
	return h
}
