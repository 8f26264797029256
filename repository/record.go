package repository

import (
	"bytes"

	"wagerbank/models"
	"wagerbank/schema"

	log "github.com/sirupsen/logrus"
)

// decodeRecord turns stored bytes into the community's ledger
func decodeRecord(communityID string, content []byte) (*models.Ledger, schema.Version, error) {
	ledger, version, err := schema.Decode(content)
	if err != nil {
		return nil, schema.Empty, storageError("decode ledger for community "+communityID, err)
	}
	ledger.CommunityID = communityID

	if version != schema.Empty && version != schema.Current {
		log.WithFields(log.Fields{
			"community": communityID,
			"from":      version.String(),
			"to":        schema.Current.String(),
		}).Info("Upgrading ledger record schema")
	}
	return ledger, version, nil
}

// encodeRecord returns the bytes to store for a ledger, or nil when they equal what is stored
func encodeRecord(ledger *models.Ledger, stored []byte) ([]byte, error) {
	content, err := schema.Encode(ledger)
	if err != nil {
		return nil, storageError("encode ledger for community "+ledger.CommunityID, err)
	}
	if bytes.Equal(content, stored) {
		return nil, nil
	}
	return content, nil
}
