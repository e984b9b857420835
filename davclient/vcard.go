package davclient

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/google/uuid"

	"github.com/benfviney/tsdav/internal/httpclient"
)

// EncodeCard serializes a vCard to the wire payload.
func EncodeCard(card vcard.Card) (string, error) {
	var buf bytes.Buffer
	if err := vcard.NewEncoder(&buf).Encode(card); err != nil {
		return "", fmt.Errorf("failed to encode vcard: %w", err)
	}
	return buf.String(), nil
}

// DecodeCard parses a vCard object's payload.
func DecodeCard(obj VCard) (vcard.Card, error) {
	card, err := vcard.NewDecoder(strings.NewReader(obj.Data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse vCard data: %w", err)
	}
	return card, nil
}

// PutVCardObject encodes card and creates it in the address book under a
// generated UUID name.
func (c *Client) PutVCardObject(ctx context.Context, book AddressBook, card vcard.Card) (VCard, *httpclient.RawResponse, error) {
	data, err := EncodeCard(card)
	if err != nil {
		return VCard{}, nil, err
	}
	filename := uuid.New().String() + ".vcf"
	res, err := c.CreateVCard(ctx, book, filename, data)
	if err != nil {
		return VCard{}, nil, err
	}
	obj := VCard{
		URL:  resolveHref(book.URL, filename),
		ETag: res.ETag,
		Data: data,
	}
	return obj, res, nil
}
