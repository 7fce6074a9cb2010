// Command boothfill runs a booth check-in station. Every tag presented to
// the reader gets this booth's flag set; flags of other booths are kept.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/config"
	"github.com/camden-git/checkinkiosk/nfc"
	"github.com/camden-git/checkinkiosk/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg)

	reader, err := nfc.OpenPCSC(cfg.NFCReaderName)
	if err != nil {
		log.Fatalf("FATAL: No NFC reader detected: %v", err)
	}
	defer reader.Close()

	station := nfc.Station{
		BoothCount:  cfg.BoothCount,
		BoothNumber: cfg.BoothNumber,
		Block:       cfg.BoothBlock,
	}
	log.Printf("Booth %d of %d, tag block %d", station.BoothNumber, station.BoothCount, station.Block)
	if !nfc.NewBoothStatus(station.BoothCount).Fits() {
		log.Warnf("Booth text for %d booths exceeds %d bytes and will be truncated on the tag", station.BoothCount, nfc.BlockSize)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := workers.NewTagPoller(reader, func(ctx context.Context, card nfc.Card, uid string) error {
		res, err := station.CheckIn(card)
		if err != nil {
			return err
		}
		log.Printf("Tag %s before: %s", uid, res.Before)
		log.Printf("Tag %s after:  %s", uid, res.Written)
		if res.Truncated {
			log.Warnf("Tag %s: written text truncated to %d bytes", uid, nfc.BlockSize)
		}
		log.Printf("Booth %d checked in (%d/%d booths visited). Ready for the next tag...",
			station.BoothNumber, res.After.VisitedCount(), res.After.Count())
		return nil
	}, cfg.PollInterval, cfg.PollErrorDelay)

	log.Printf("Present a tag to this booth's reader...")
	poller.Run(ctx)
	log.Printf("Booth station stopped")
}
