package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"wagerbank/models"
)

// Decode reads a ledger record, upgrading older shapes to the current one.
// It returns the version the record was written with.
func Decode(content []byte) (*models.Ledger, Version, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return models.NewLedger(), Empty, nil
	}

	detected, payload, err := split(content)
	if err != nil {
		return nil, Empty, err
	}

	env, err := decodeAs(detected, payload)
	if err != nil {
		return nil, detected, err
	}

	for env.version() < Current {
		env = env.upgrade()
	}

	current, ok := env.(*ledgerV5)
	if !ok {
		return nil, detected, fmt.Errorf("%w: upgrade chain ended at %s", ErrUnrecognizedVersion, env.version())
	}
	return current.toLedger(), detected, nil
}

// Encode writes a ledger in the current shape, version line first
func Encode(ledger *models.Ledger) ([]byte, error) {
	payload, err := json.Marshal(fromLedger(ledger))
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(payload) + MaxTagLength + 2)
	buf.WriteString(Current.Tag())
	buf.WriteByte('\n')
	buf.Write(payload)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// split separates the version line from the payload
func split(content []byte) (Version, []byte, error) {
	if looksLegacy(content) {
		return V1, content, nil
	}

	newline := bytes.IndexByte(content, '\n')
	tag := string(bytes.TrimSuffix(content[:newline], []byte("\r")))
	version, err := ParseTag(tag)
	if err != nil {
		return Empty, nil, err
	}
	return version, content[newline+1:], nil
}

func decodeAs(version Version, payload []byte) (envelope, error) {
	var env envelope
	switch version {
	case V1:
		env = &ledgerV1{}
	case V2:
		env = &ledgerV2{}
	case V3:
		env = &ledgerV3{}
	case V4:
		env = &ledgerV4{}
	case V5:
		env = &ledgerV5{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedVersion, version)
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(payload, env); err != nil {
		return nil, fmt.Errorf("%w: decoding %s payload: %v", ErrCorruptRecord, version, err)
	}
	return env, nil
}
