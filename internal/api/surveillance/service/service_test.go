package surveillanceService

import (
	"ForestWatch/internal/api/surveillance"
	"ForestWatch/internal/entity"
	"ForestWatch/pkg/utils"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"go.viam.com/test"
)

type fakeModel struct {
	predictions []entity.Prediction
	err         error
	calls       int
}

func (m *fakeModel) Predict(_ context.Context, _ []byte, _ string) ([]entity.Prediction, error) {
	m.calls++
	return m.predictions, m.err
}

func (m *fakeModel) CheckHealth(context.Context) error { return nil }
func (m *fakeModel) Close() error                      { return nil }

type fakeOCR struct {
	text string
	err  error
	seen image.Image
}

func (o *fakeOCR) Text(_ context.Context, img image.Image) (string, error) {
	o.seen = img
	return o.text, o.err
}

func (o *fakeOCR) Close() error { return nil }

type sentMessage struct {
	to   string
	body string
}

type fakeSender struct {
	id   string
	err  error
	sent []sentMessage
}

func (f *fakeSender) SendMessage(_ context.Context, to, message string) (string, error) {
	f.sent = append(f.sent, sentMessage{to: to, body: message})
	return f.id, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads []interface{}
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}
	f, err := os.Create(path)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	test.That(t, png.Encode(f, img), test.ShouldBeNil)
}

type fixture struct {
	svc       ISurveillanceService
	model     *fakeModel
	ocr       *fakeOCR
	sender    *fakeSender
	publisher *fakePublisher
	hook      *logtest.Hook
	watchDir  string
	outputDir string
}

func newFixture(t *testing.T, preds []entity.Prediction) *fixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		model:     &fakeModel{predictions: preds},
		ocr:       &fakeOCR{text: "Camera1 3/8/2024 11:47:53 AM"},
		sender:    &fakeSender{id: "SM123"},
		publisher: &fakePublisher{},
		hook:      hook,
		watchDir:  t.TempDir(),
		outputDir: t.TempDir(),
	}
	f.svc = New(logger, f.model, f.ocr, f.sender, utils.New(), Options{
		OutputDir:    f.outputDir,
		Recipient:    "whatsapp:+15550001111",
		Publisher:    f.publisher,
		AlertChannel: "forestwatch:alerts",
	})
	return f
}

func personAt(conf float64) entity.Prediction {
	return entity.Prediction{ClassID: entity.PersonClassID, Label: "person", Confidence: conf, X1: 10.7, Y1: 12.2, X2: 40.9, Y2: 60.5}
}

func hasMessage(hook *logtest.Hook, level logrus.Level, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

func TestFilterPersons(t *testing.T) {
	preds := []entity.Prediction{
		personAt(0.5),
		personAt(0.95),
		{ClassID: 2, Label: "car", Confidence: 0.99, X1: 1, Y1: 1, X2: 5, Y2: 5},
	}

	result := FilterPersons(preds, 0.9)
	test.That(t, result.Processed, test.ShouldBeTrue)
	test.That(t, result.PersonDetected, test.ShouldBeTrue)
	test.That(t, result.Boxes, test.ShouldHaveLength, 1)
	test.That(t, result.Boxes[0], test.ShouldResemble, entity.BoundingBox{
		Label: entity.PersonLabel, Confidence: 0.95, X1: 10, Y1: 12, X2: 40, Y2: 60,
	})

	result = FilterPersons(preds, DefaultThreshold)
	test.That(t, result.Boxes, test.ShouldHaveLength, 2)

	result = FilterPersons(nil, DefaultThreshold)
	test.That(t, result.Processed, test.ShouldBeTrue)
	test.That(t, result.PersonDetected, test.ShouldBeFalse)
	test.That(t, result.Boxes, test.ShouldBeEmpty)
}

func TestFilterPersonsThresholdIsInclusive(t *testing.T) {
	result := FilterPersons([]entity.Prediction{personAt(0.25)}, 0.25)
	test.That(t, result.PersonDetected, test.ShouldBeTrue)
}

func TestParseTimestamp(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		want entity.TimestampResult
	}{
		{"overlay", "Camera1 3/8/2024 11:47:53 AM", entity.TimestampResult{Date: "3/8/2024", Time: "11:47:53 AM"}},
		{"nothing", "Camera1 front gate", entity.DefaultTimestamp()},
		{"empty", "", entity.DefaultTimestamp()},
		{"last date wins", "1/1/2020 cam 2/2/2021", entity.TimestampResult{Date: "2/2/2021", Time: entity.UnknownTime}},
		{"time at end", "3/8/2024\n11:47:53", entity.TimestampResult{Date: "3/8/2024", Time: "11:47:53"}},
		{"last time wins", "10:00 AM 11:00 PM", entity.TimestampResult{Date: entity.UnknownDate, Time: "11:00 PM"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, ParseTimestamp(tc.text), test.ShouldResemble, tc.want)
		})
	}
}

func TestCropTimestampRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	region := CropTimestampRegion(img)
	test.That(t, region.Bounds().Dx(), test.ShouldEqual, 100)
	test.That(t, region.Bounds().Dy(), test.ShouldEqual, 5)
}

func TestFormatAlertMessage(t *testing.T) {
	msg := FormatAlertMessage("/watch/cam1.jpg", "3/8/2024", "11:47:53 AM")
	test.That(t, msg, test.ShouldEqual,
		"🚨 Alert! A person was detected in the image.\n📅 Date: 3/8/2024\n⏰ Time: 11:47:53 AM\n🖼 Image: /watch/cam1.jpg")
}

func TestDetectCorruptImage(t *testing.T) {
	f := newFixture(t, nil)
	path := filepath.Join(f.watchDir, "broken.jpg")
	test.That(t, os.WriteFile(path, []byte("not a jpeg"), 0o644), test.ShouldBeNil)

	result, img, err := f.svc.Detect(context.Background(), path)
	test.That(t, errors.Is(err, surveillance.ErrImageRead), test.ShouldBeTrue)
	test.That(t, result, test.ShouldResemble, entity.NotProcessed())
	test.That(t, img, test.ShouldBeNil)
	test.That(t, f.model.calls, test.ShouldEqual, 0)
	test.That(t, hasMessage(f.hook, logrus.ErrorLevel, "Error reading image: "+path), test.ShouldBeTrue)
}

func TestDetectModelFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.model.err = errors.New("boom")
	path := filepath.Join(f.watchDir, "cam.png")
	writePNG(t, path, 64, 64)

	result, _, err := f.svc.Detect(context.Background(), path)
	test.That(t, errors.Is(err, surveillance.ErrModelPredict), test.ShouldBeTrue)
	test.That(t, result.Processed, test.ShouldBeFalse)
}

func TestProcessFileNoPerson(t *testing.T) {
	f := newFixture(t, []entity.Prediction{personAt(0.1)})
	path := filepath.Join(f.watchDir, "empty.png")
	writePNG(t, path, 64, 64)

	result, err := f.svc.ProcessFile(context.Background(), path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.LastState, test.ShouldEqual, entity.StateNotDetected)
	test.That(t, result.Detection.Processed, test.ShouldBeTrue)
	test.That(t, result.OutputPath, test.ShouldBeEmpty)
	test.That(t, f.sender.sent, test.ShouldBeEmpty)
	test.That(t, f.ocr.seen, test.ShouldBeNil)
	test.That(t, hasMessage(f.hook, logrus.InfoLevel, "No person detected in "+path), test.ShouldBeTrue)

	entries, err := os.ReadDir(f.outputDir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldBeEmpty)
}

func TestProcessFilePersonDetected(t *testing.T) {
	f := newFixture(t, []entity.Prediction{personAt(0.8)})
	path := filepath.Join(f.watchDir, "cam1.png")
	writePNG(t, path, 100, 80)

	result, err := f.svc.ProcessFile(context.Background(), path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.RunID, test.ShouldNotBeEmpty)
	test.That(t, result.LastState, test.ShouldEqual, entity.StateNotifying)
	test.That(t, result.Timestamp, test.ShouldResemble, entity.TimestampResult{Date: "3/8/2024", Time: "11:47:53 AM"})
	test.That(t, result.MessageID, test.ShouldEqual, "SM123")

	outputPath := filepath.Join(f.outputDir, "cam1.png")
	test.That(t, result.OutputPath, test.ShouldEqual, outputPath)
	_, err = os.Stat(outputPath)
	test.That(t, err, test.ShouldBeNil)

	// OCR sees the grayscale bottom strip of the annotated image.
	gray, ok := f.ocr.seen.(*image.Gray)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, gray.Bounds().Dy(), test.ShouldEqual, 8)

	test.That(t, f.sender.sent, test.ShouldHaveLength, 1)
	test.That(t, f.sender.sent[0].to, test.ShouldEqual, "whatsapp:+15550001111")
	test.That(t, f.sender.sent[0].body, test.ShouldEqual, FormatAlertMessage(path, "3/8/2024", "11:47:53 AM"))

	test.That(t, hasMessage(f.hook, logrus.InfoLevel, "Person detected: "+path+". Saved to "+outputPath), test.ShouldBeTrue)
	test.That(t, hasMessage(f.hook, logrus.InfoLevel, "WhatsApp Message Sent! SID: SM123"), test.ShouldBeTrue)

	test.That(t, f.publisher.channels, test.ShouldResemble, []string{"forestwatch:alerts"})
	alert, ok := f.publisher.payloads[0].(entity.Alert)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, alert.RunID, test.ShouldEqual, result.RunID)
	test.That(t, alert.MessageID, test.ShouldEqual, "SM123")

	stats := f.svc.Stats()
	test.That(t, stats.Processed, test.ShouldEqual, uint64(1))
	test.That(t, stats.PersonDetected, test.ShouldEqual, uint64(1))
	test.That(t, stats.Notified, test.ShouldEqual, uint64(1))
	test.That(t, stats.Failed, test.ShouldEqual, uint64(0))
	test.That(t, stats.LastImage, test.ShouldEqual, path)
}

func TestProcessFileOCRFailureFallsBack(t *testing.T) {
	f := newFixture(t, []entity.Prediction{personAt(0.8)})
	f.ocr.err = errors.New("tesseract exited with status 1")
	path := filepath.Join(f.watchDir, "cam2.png")
	writePNG(t, path, 64, 64)

	result, err := f.svc.ProcessFile(context.Background(), path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Timestamp, test.ShouldResemble, entity.DefaultTimestamp())
	test.That(t, hasMessage(f.hook, logrus.WarnLevel, "Timestamp extraction failed"), test.ShouldBeTrue)
	test.That(t, f.sender.sent, test.ShouldHaveLength, 1)
	test.That(t, strings.Contains(f.sender.sent[0].body, "Unknown Date"), test.ShouldBeTrue)
}

func TestProcessFileSaveFailureSkipsNotify(t *testing.T) {
	f := newFixture(t, []entity.Prediction{personAt(0.8)})
	path := filepath.Join(f.watchDir, "cam3.png")
	writePNG(t, path, 64, 64)

	logger, _ := logtest.NewNullLogger()
	svc := New(logger, f.model, f.ocr, f.sender, utils.New(), Options{
		OutputDir: filepath.Join(f.outputDir, "missing", "dir"),
	})

	result, err := svc.ProcessFile(context.Background(), path)
	test.That(t, errors.Is(err, surveillance.ErrSaveAnnotated), test.ShouldBeTrue)
	test.That(t, result.LastState, test.ShouldEqual, entity.StatePersisting)
	test.That(t, f.sender.sent, test.ShouldBeEmpty)
	test.That(t, svc.Stats().Failed, test.ShouldEqual, uint64(1))
}

func TestProcessFileNotifyFailure(t *testing.T) {
	f := newFixture(t, []entity.Prediction{personAt(0.8)})
	f.sender.err = errors.New("21211: invalid 'To' phone number")
	path := filepath.Join(f.watchDir, "cam4.png")
	writePNG(t, path, 64, 64)

	result, err := f.svc.ProcessFile(context.Background(), path)
	test.That(t, errors.Is(err, surveillance.ErrNotify), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "21211")
	test.That(t, result.OutputPath, test.ShouldNotBeEmpty)
	test.That(t, result.MessageID, test.ShouldBeEmpty)
	test.That(t, f.publisher.channels, test.ShouldBeEmpty)

	_, statErr := os.Stat(result.OutputPath)
	test.That(t, statErr, test.ShouldBeNil)
}
