package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"gorm.io/gorm"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/types"
)

// BadgeService renders and stores the printable badge card workers scan at
// the door station.
type BadgeService interface {
	CreateAndUploadBadge(ctx context.Context, user *types.User) error
	CreateAndUploadBadgeFromPhoto(ctx context.Context, user *types.User, raw []byte) error
	RenderBadge(user *types.User) (bytes.Buffer, error)
}

type badgeService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	bucketService BucketService

	bgColors []color.NRGBA

	initialsFace font.Face
	labelFace    font.Face
}

const (
	badgeWidth  = 640
	badgeHeight = 400
)

// NewBadgeService loads the badge font and wires the badge pipeline.
// bucketService may be nil; rendering still works, only storage paths fail.
func NewBadgeService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, bucketService BucketService) (BadgeService, error) {
	serviceLog := log.With("service", "BadgeService")

	if bucketService == nil {
		serviceLog.Warn("No bucket service configured, badges render but are not stored")
	}

	fontPath := os.Getenv("BADGE_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("Env var BADGE_FONT is empty")
	}
	serviceLog.Info("Loading badge font", "font", fontPath)

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	newFace := func(size float64) font.Face {
		return truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}

	return &badgeService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		bucketService: bucketService,
		bgColors: []color.NRGBA{
			{R: 0x1F, G: 0x6F, B: 0xEB, A: 0xFF},
			{R: 0x2E, G: 0xA0, B: 0x43, A: 0xFF},
			{R: 0xB0, G: 0x5C, B: 0x1A, A: 0xFF},
			{R: 0x6E, G: 0x40, B: 0xC9, A: 0xFF},
			{R: 0xB4, G: 0x23, B: 0x3C, A: 0xFF},
		},
		initialsFace: newFace(120),
		labelFace:    newFace(36),
	}, nil
}

func (bs *badgeService) CreateAndUploadBadge(ctx context.Context, user *types.User) error {
	if user == nil || user.ID == 0 {
		return fmt.Errorf("user required")
	}

	buf, err := bs.RenderBadge(user)
	if err != nil {
		return err
	}
	return bs.storeBadge(ctx, user, buf.Bytes())
}

// CreateAndUploadBadgeFromPhoto builds the badge around an uploaded photo
// instead of generated initials.
func (bs *badgeService) CreateAndUploadBadgeFromPhoto(ctx context.Context, user *types.User, raw []byte) error {
	if user == nil || user.ID == 0 {
		return fmt.Errorf("user required")
	}

	photo, err := squarePhoto(raw, badgeHeight-120)
	if err != nil {
		return err
	}

	dc := gg.NewContext(badgeWidth, badgeHeight)
	bs.drawFrame(dc, user)
	dc.DrawImage(photo, 40, 60)
	bs.drawLabels(dc, user, float64(badgeHeight-120)+80)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return bs.storeBadge(ctx, user, buf.Bytes())
}

func (bs *badgeService) RenderBadge(user *types.User) (bytes.Buffer, error) {
	var buf bytes.Buffer

	dc := gg.NewContext(badgeWidth, badgeHeight)
	bs.drawFrame(dc, user)

	// Initials disc on the left half
	cx, cy, r := 160.0, float64(badgeHeight)/2, 110.0
	dc.SetColor(bs.pickColor(user.Name))
	dc.DrawCircle(cx, cy, r)
	dc.Fill()

	initials := computeInitials(user.Name)
	dc.SetFontFace(bs.initialsFace)
	tw, th := dc.MeasureString(initials)
	dc.SetColor(color.White)
	dc.DrawString(initials, cx-tw/2, cy+th/2-10)

	bs.drawLabels(dc, user, cy-20)

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (bs *badgeService) drawFrame(dc *gg.Context, user *types.User) {
	dc.SetColor(color.White)
	dc.DrawRectangle(0, 0, badgeWidth, badgeHeight)
	dc.Fill()

	dc.SetColor(bs.pickColor(user.Name))
	dc.DrawRectangle(0, 0, badgeWidth, 24)
	dc.Fill()
	dc.DrawRectangle(0, badgeHeight-24, badgeWidth, 24)
	dc.Fill()
}

func (bs *badgeService) drawLabels(dc *gg.Context, user *types.User, y float64) {
	dc.SetFontFace(bs.labelFace)
	dc.SetColor(color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF})
	dc.DrawString(user.Name, 320, y)
	dc.DrawString(fmt.Sprintf("Worker #%d", user.ID), 320, y+48)
}

func (bs *badgeService) storeBadge(ctx context.Context, user *types.User, png []byte) error {
	if bs.bucketService == nil {
		return fmt.Errorf("bucket service not configured")
	}

	oldKey := strings.TrimSpace(user.BadgeBucketKey)

	// Versioned key so CDN/browser never serves a stale badge
	newKey := fmt.Sprintf("badges/%d/%d.png", user.ID, time.Now().UnixNano())

	if err := bs.bucketService.UploadBytes(ctx, newKey, png); err != nil {
		return fmt.Errorf("failed to upload badge: %w", err)
	}

	user.BadgeBucketKey = newKey
	user.BadgeURL = bs.bucketService.GetPublicURL(newKey)
	if _, err := bs.userRepo.Save(ctx, nil, user); err != nil {
		return err
	}

	if oldKey != "" && oldKey != newKey {
		if err := bs.bucketService.DeleteFile(ctx, oldKey); err != nil {
			bs.log.Warn("failed to delete old badge (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return nil
}

func (bs *badgeService) pickColor(name string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return bs.bgColors[int(h.Sum32())%len(bs.bgColors)]
}

func squarePhoto(raw []byte, size int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)
	return dst, nil
}

func computeInitials(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	switch len(parts) {
	case 0:
		return "?"
	case 1:
		return firstLetter(parts[0])
	default:
		return firstLetter(parts[0]) + firstLetter(parts[len(parts)-1])
	}
}

// firstLetter takes the first rune, not the first byte, so multibyte names
// keep a readable initial.
func firstLetter(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r))
}
