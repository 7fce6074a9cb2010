// Command tagview prints the registered name and photo of each presented tag.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/config"
	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/nfc"
	"github.com/camden-git/checkinkiosk/repository"
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

	photoStore, err := media.NewLocalStorage(cfg.DataDir, cfg.PhotoSubDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize photo store: %v", err)
	}
	repo := repository.NewCSVParticipantRepository(cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := workers.NewTagPoller(reader, func(ctx context.Context, card nfc.Card, uid string) error {
		if stored, enc, err := nfc.ReadIdentity(card, cfg.IdentityBlock); err != nil {
			log.Debugf("Tag %s: identity block unreadable: %v", uid, err)
		} else if enc == nfc.EncodingIdentity && stored != uid {
			log.Warnf("Tag %s carries identity %s in block %d", uid, stored, cfg.IdentityBlock)
		}

		p, err := repo.FindByUID(uid)
		if errors.Is(err, repository.ErrParticipantNotFound) {
			fmt.Printf("Tag %s: participant not found\n", uid)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Tag %s\n  Name:  %s\n", uid, p.Name)
		if p.Photo == "" || !photoStore.Exists(p.Photo) {
			fmt.Printf("  Photo: (not found)\n")
			return nil
		}
		full, err := photoStore.FullPath(p.Photo)
		if err != nil {
			return err
		}
		fmt.Printf("  Photo: %s\n", full)
		if meta, err := media.ReadMetadata(full); err == nil && meta.Width != nil {
			fmt.Printf("         %dx%d\n", *meta.Width, *meta.Height)
		}
		return nil
	}, cfg.PollInterval, cfg.PollErrorDelay)

	log.Printf("Present a tag to see the participant...")
	poller.Run(ctx)
}
