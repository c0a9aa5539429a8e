package surveillanceService

import (
	"ForestWatch/internal/entity"
	"ForestWatch/pkg/log"
	"context"
	"image"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// TimestampRegion is the fraction of the image height, from the top, below
// which the camera overlay is expected.
const TimestampRegion = 0.9

// ExtractTimestamp reads the overlay in the bottom strip of img. It never
// fails: OCR problems fall back to the unknown date and time.
func (s *surveillanceService) ExtractTimestamp(ctx context.Context, img image.Image) entity.TimestampResult {
	region := CropTimestampRegion(img)
	if region.Bounds().Empty() {
		log.WithRunID(s.log, ctx).Warn("Image too small for timestamp extraction")
		return entity.DefaultTimestamp()
	}

	text, err := s.ocr.Text(ctx, region)
	if err != nil {
		log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Timestamp extraction failed")
		return entity.DefaultTimestamp()
	}

	ts := ParseTimestamp(text)
	log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
		"date": ts.Date,
		"time": ts.Time,
	}).Debug("Timestamp extracted")

	return ts
}

// CropTimestampRegion returns the full-width bottom strip of img, starting at
// row int(height*0.9), converted to grayscale.
func CropTimestampRegion(img image.Image) *image.Gray {
	b := img.Bounds()
	top := b.Min.Y + int(float64(b.Dy())*TimestampRegion)
	strip := imaging.Crop(img, image.Rect(b.Min.X, top, b.Max.X, b.Max.Y))

	gray := image.NewGray(strip.Bounds())
	draw.Draw(gray, gray.Bounds(), strip, strip.Bounds().Min, draw.Src)
	return gray
}

// ParseTimestamp scans whitespace separated tokens left to right. The last
// token containing "/" is the date. The last token containing ":" is the time,
// joined with the token after it (usually AM/PM) when there is one.
func ParseTimestamp(text string) entity.TimestampResult {
	result := entity.DefaultTimestamp()

	tokens := strings.Fields(text)
	for i, token := range tokens {
		if strings.Contains(token, "/") {
			result.Date = token
		}
		if strings.Contains(token, ":") {
			if i+1 < len(tokens) {
				result.Time = token + " " + tokens[i+1]
			} else {
				result.Time = token
			}
		}
	}

	return result
}
