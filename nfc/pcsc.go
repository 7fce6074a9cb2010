package nfc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ebfe/scard"
	log "github.com/sirupsen/logrus"
)

// PCSCReader talks to a contactless reader through the system PC/SC service.
type PCSCReader struct {
	ctx  *scard.Context
	name string
}

// OpenPCSC selects the first reader whose name contains match, or the first
// reader when match is empty. It returns ErrNoReader when none is attached.
func OpenPCSC(match string) (*PCSCReader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("nfc: failed to establish PC/SC context: %w", err)
	}

	names, err := ctx.ListReaders()
	if err != nil {
		ctx.Release()
		if errors.Is(err, scard.ErrNoReadersAvailable) {
			return nil, ErrNoReader
		}
		return nil, fmt.Errorf("nfc: failed to list readers: %w", err)
	}

	for _, name := range names {
		if match == "" || strings.Contains(strings.ToLower(name), strings.ToLower(match)) {
			log.Printf("nfc: Using reader %q", name)
			return &PCSCReader{ctx: ctx, name: name}, nil
		}
	}

	ctx.Release()
	if match != "" && len(names) > 0 {
		return nil, fmt.Errorf("%w: no reader matches %q (found %s)", ErrNoReader, match, strings.Join(names, ", "))
	}
	return nil, ErrNoReader
}

func (r *PCSCReader) Name() string {
	return r.name
}

func (r *PCSCReader) Connect() (Card, error) {
	card, err := r.ctx.Connect(r.name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		if errors.Is(err, scard.ErrNoSmartcard) || errors.Is(err, scard.ErrRemovedCard) {
			return nil, ErrNoCard
		}
		return nil, fmt.Errorf("nfc: connect to %q failed: %w", r.name, err)
	}
	return &pcscCard{card: card}, nil
}

func (r *PCSCReader) Close() error {
	return r.ctx.Release()
}

type pcscCard struct {
	card *scard.Card
}

func (c *pcscCard) Transmit(cmd []byte) ([]byte, error) {
	return c.card.Transmit(cmd)
}

func (c *pcscCard) Close() error {
	return c.card.Disconnect(scard.LeaveCard)
}
