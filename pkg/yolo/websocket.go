package yolo

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ForestWatch/internal/entity"
)

type webSocketModel struct {
	modelName    string
	url          string
	conn         *websocket.Conn
	mu           sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewWebSocketModel(modelName, inferenceURL string) IModel {
	return &webSocketModel{
		modelName:    modelName,
		url:          inferenceURL,
		pingInterval: 30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
	}
}

func (c *webSocketModel) dialURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", c.modelName)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// connect must be called with c.mu held.
func (c *webSocketModel) connect(ctx context.Context) error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	target, err := c.dialURL()
	if err != nil {
		return fmt.Errorf("invalid inference URL %s: %w", c.url, err)
	}

	logrus.Infof("Connecting to inference service at %s", target)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", target, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
		if err != nil {
			logrus.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *webSocketModel) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			logrus.Warnf("Ping to inference service failed, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

// Predict sends the encoded image as one binary frame and waits for the JSON reply.
// Frames are strictly request/response, so the whole exchange holds the lock.
func (c *webSocketModel) Predict(ctx context.Context, imageData []byte, filename string) ([]entity.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return nil, fmt.Errorf("cannot connect to inference service: %w", err)
		}
	}
	conn := c.conn

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	logrus.Debugf("Sending %s to inference service (%d bytes)", filename, len(imageData))
	if err := conn.WriteMessage(websocket.BinaryMessage, imageData); err != nil {
		c.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error sending frame: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error reading inference reply: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	return decodePredictions(message)
}

func (c *webSocketModel) CheckHealth(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	return c.connect(ctx)
}

func (c *webSocketModel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
