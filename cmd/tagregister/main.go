// Command tagregister is the attendant's registration station: tap a tag,
// type the participant's name, a photo is taken from the webcam, the UID is
// written to the tag's identity block and the participant file is updated.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/camera"
	"github.com/camden-git/checkinkiosk/config"
	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/models"
	"github.com/camden-git/checkinkiosk/nfc"
	"github.com/camden-git/checkinkiosk/repository"
	"github.com/camden-git/checkinkiosk/services"
	"github.com/camden-git/checkinkiosk/workers"
)

type registrar struct {
	cfg       config.Config
	input     *bufio.Reader
	cam       *camera.Camera
	photos    media.Store
	processor *media.Processor
	service   *services.ParticipantService
}

func (rg *registrar) prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := rg.input.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (rg *registrar) handleTap(ctx context.Context, card nfc.Card, uid string) error {
	fmt.Printf("\nTag %s detected.\n", uid)
	name, err := rg.prompt("Participant name (empty to skip): ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	if name == "" {
		log.Warnf("Name must not be empty, lift the tag and start again")
		return nil
	}

	if _, err := rg.prompt("Look at the camera and press Enter to take the photo..."); err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	img, err := rg.cam.Capture()
	if err != nil {
		return fmt.Errorf("photo not taken: %w", err)
	}
	photo, err := rg.processor.SaveImage(name, img, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save photo: %w", err)
	}

	if err := nfc.WriteIdentity(card, rg.cfg.IdentityBlock, uid); err != nil {
		if delErr := rg.photos.Delete(photo); delErr != nil {
			log.Warnf("Failed to remove photo %s: %v", photo, delErr)
		}
		return fmt.Errorf("failed to write tag: %w", err)
	}

	if err := rg.service.Upsert(models.Participant{UID: uid, Name: name, Photo: photo}); err != nil {
		return fmt.Errorf("tag written but participant file not updated: %w", err)
	}
	log.Printf("Registered %q as %s with photo %s. The tag can be removed.", name, uid, photo)
	return nil
}

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

	cam, err := camera.Open(cfg.CameraDevice)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer cam.Close()

	photoStore, err := media.NewLocalStorage(cfg.DataDir, cfg.PhotoSubDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize photo store: %v", err)
	}
	processor := media.NewProcessor(photoStore, cfg.PhotoMaxSize)
	repo := repository.NewCSVParticipantRepository(cfg.DBPath)

	rg := &registrar{
		cfg:       cfg,
		input:     bufio.NewReader(os.Stdin),
		cam:       cam,
		photos:    photoStore,
		processor: processor,
		service:   services.NewParticipantService(repo, photoStore, processor, nil),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := workers.NewTagPoller(reader, rg.handleTap, cfg.PollInterval, cfg.PollErrorDelay)
	log.Printf("Ready to register participants. Present a tag to the reader...")
	poller.Run(ctx)
}
