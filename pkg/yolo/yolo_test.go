package yolo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.viam.com/test"
)

const predictBody = `{"detections":[
	{"class_id":0,"label":"person","confidence":0.91,"x1":10.7,"y1":20.2,"x2":110.9,"y2":220.5},
	{"class_id":2,"label":"car","confidence":0.88,"x1":1,"y1":2,"x2":3,"y2":4}
]}`

func TestHTTPModelPredict(t *testing.T) {
	var gotModel, gotFilename string
	var gotBytes []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			gotModel = r.FormValue("model")
			file, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			gotFilename = header.Filename
			gotBytes, _ = io.ReadAll(file)
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, predictBody)
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	model := NewHTTPModel("yolo11m.pt", srv.URL+"/predict")
	defer model.Close()

	preds, err := model.Predict(context.Background(), []byte("fake-image"), "/watch/cam1/frame.jpg")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, preds, test.ShouldHaveLength, 2)
	test.That(t, preds[0].ClassID, test.ShouldEqual, 0)
	test.That(t, preds[0].Confidence, test.ShouldAlmostEqual, 0.91)
	test.That(t, preds[0].X2, test.ShouldAlmostEqual, 110.9)
	test.That(t, preds[1].Label, test.ShouldEqual, "car")

	test.That(t, gotModel, test.ShouldEqual, "yolo11m.pt")
	test.That(t, gotFilename, test.ShouldEqual, "frame.jpg")
	test.That(t, string(gotBytes), test.ShouldEqual, "fake-image")

	test.That(t, model.CheckHealth(context.Background()), test.ShouldBeNil)
}

func TestHTTPModelPredictErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	model := NewHTTPModel("yolo11m.pt", srv.URL+"/predict")

	_, err := model.Predict(context.Background(), []byte("x"), "a.png")
	test.That(t, errors.Is(err, ErrInference), test.ShouldBeTrue)

	err = model.CheckHealth(context.Background())
	test.That(t, errors.Is(err, ErrInference), test.ShouldBeTrue)
}

func TestDecodePredictionsServiceError(t *testing.T) {
	_, err := decodePredictions([]byte(`{"error":"model not loaded"}`))
	test.That(t, errors.Is(err, ErrInference), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "model not loaded")

	_, err = decodePredictions([]byte(`not json`))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestHealthURL(t *testing.T) {
	test.That(t, healthURL("http://localhost:5000/predict"), test.ShouldEqual, "http://localhost:5000/health")
	test.That(t, healthURL("http://localhost:5000/"), test.ShouldEqual, "http://localhost:5000/health")
}

func TestWebSocketModelPredict(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotModel string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotModel = r.URL.Query().Get("model")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage || string(msg) != "frame" {
				conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unexpected frame"}`))
				continue
			}
			conn.WriteMessage(websocket.TextMessage, []byte(predictBody))
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	model := NewWebSocketModel("yolo11m.pt", wsURL)
	defer model.Close()

	for i := 0; i < 2; i++ {
		preds, err := model.Predict(context.Background(), []byte("frame"), "frame.png")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, preds, test.ShouldHaveLength, 2)
		test.That(t, preds[0].Label, test.ShouldEqual, "person")
	}
	test.That(t, gotModel, test.ShouldEqual, "yolo11m.pt")
}

func TestNewUnknownTransport(t *testing.T) {
	_, err := New(Config{Transport: "carrier-pigeon"})
	test.That(t, err, test.ShouldNotBeNil)

	m, err := New(Config{ModelName: "m", InferenceURL: "http://localhost/predict"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldNotBeNil)
}
