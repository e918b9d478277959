package plckeystore

import "time"

// KeyPair is one multibase-encoded public/private key pair as stored
// on disk (§6: "Keys are stored multibase-encoded; private keys in
// cleartext").
type KeyPair struct {
	Public  string `json:"public"`
	Private string `json:"private"`
}

// Record is one DID's persisted state, matching §6's document shape
// exactly: {did, rotationKey, verificationKey, type, active,
// createdAt, updatedAt, deactivatedAt?, metadata}.
type Record struct {
	DID             string         `json:"did"`
	RotationKey     KeyPair        `json:"rotationKey"`
	VerificationKey KeyPair        `json:"verificationKey"`
	Type            string         `json:"type"`
	Active          bool           `json:"active"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeactivatedAt   *time.Time     `json:"deactivatedAt,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// document is the top-level persisted file shape: {"dids": {...}}.
type document struct {
	DIDs map[string]Record `json:"dids"`
}
