package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/types"
	"github.com/safefloor/safefloor-backend/internal/utils"
)

// DetectorService is the vision-collaborator boundary: an image goes in, a
// presence map for the requested equipment items comes out. The engine never
// sees anything richer than that map.
type DetectorService interface {
	DetectEquipment(ctx context.Context, image []byte, items []string) (types.EquipmentMap, error)
	Close() error
}

type detectorService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
	threshold    float32
}

// equipmentAliases maps canonical equipment item names onto label substrings
// the annotator actually emits. Matching is lowercase substring containment.
var equipmentAliases = map[string][]string{
	"mask":           {"mask", "face mask", "respirator"},
	"gloves":         {"glove"},
	"hairnet":        {"hairnet", "hair net", "bouffant"},
	"safety_glasses": {"goggles", "safety glasses", "eyewear"},
	"hard_hat":       {"hard hat", "helmet"},
	"safety_vest":    {"vest", "high-visibility"},
	"boots":          {"boot"},
}

func NewDetectorService(log *logger.Logger) (DetectorService, error) {
	serviceLog := log.With("service", "DetectorService")

	saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	ctx := context.Background()
	var client *vision.ImageAnnotatorClient
	var err error
	if saPath != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(saPath))
	} else {
		serviceLog.Warn("GOOGLE_APPLICATION_CREDENTIALS_JSON not set, vision client will rely on ADC")
		client, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to create vision client: %w", err)
	}

	threshold := float32(utils.GetEnvAsFloat("DETECTION_THRESHOLD", 0.4, log))

	return &detectorService{
		log:          serviceLog,
		visionClient: client,
		threshold:    threshold,
	}, nil
}

func (ds *detectorService) DetectEquipment(ctx context.Context, image []byte, items []string) (types.EquipmentMap, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := ds.visionClient.AnnotateImage(ctx, &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: image},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_OBJECT_LOCALIZATION, MaxResults: 50},
			{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: 50},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("annotate image: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("annotate image: %s", resp.Error.GetMessage())
	}

	labels := collectLabels(resp, ds.threshold)
	ds.log.Debug("Detector labels", "count", len(labels), "labels", labels)

	observation := types.EquipmentMap{}
	for _, item := range items {
		observation[item] = matchesAnyLabel(item, labels)
	}
	return observation, nil
}

func (ds *detectorService) Close() error {
	return ds.visionClient.Close()
}

func collectLabels(resp *visionpb.AnnotateImageResponse, threshold float32) []string {
	var labels []string
	for _, obj := range resp.GetLocalizedObjectAnnotations() {
		if obj.GetScore() >= threshold {
			labels = append(labels, strings.ToLower(obj.GetName()))
		}
	}
	for _, label := range resp.GetLabelAnnotations() {
		if label.GetScore() >= threshold {
			labels = append(labels, strings.ToLower(label.GetDescription()))
		}
	}
	return labels
}

func matchesAnyLabel(item string, labels []string) bool {
	aliases := equipmentAliases[item]
	if len(aliases) == 0 {
		aliases = []string{strings.ReplaceAll(strings.ToLower(item), "_", " ")}
	}
	for _, label := range labels {
		for _, alias := range aliases {
			if strings.Contains(label, alias) {
				return true
			}
		}
	}
	return false
}
