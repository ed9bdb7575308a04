// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint([]byte("GET"), []byte("/api/health"))
	b := Fingerprint([]byte("GET"), []byte("/api/health"))

	if a != b {
		t.Fatalf("fingerprint must be deterministic: %s != %s", a, b)
	}
	if len(a) != sha256.Size*2 {
		t.Fatalf("unexpected fingerprint length %d", len(a))
	}
}

func TestFingerprint_SingleMatchesSHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("payload"))
	expected := hex.EncodeToString(sum[:])

	if got := Fingerprint([]byte("payload")); got != expected {
		t.Fatalf("want %s, got %s", expected, got)
	}
}

func TestFingerprint_PartBoundaries(t *testing.T) {
	if FingerprintString("ab", "c") == FingerprintString("a", "bc") {
		t.Fatal("parts must be separated")
	}
}

func TestFingerprint_Empty(t *testing.T) {
	sum := sha256.Sum256(nil)
	if got := Fingerprint(); got != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected empty fingerprint %s", got)
	}
}

func TestFingerprint_Concurrent(t *testing.T) {
	expected := FingerprintString("concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := FingerprintString("concurrent"); got != expected {
				t.Errorf("concurrent fingerprint mismatch: %s", got)
			}
		}()
	}
	wg.Wait()
}
