package websocketPkg

import (
	"PoseCoach/internal/entity"
	"context"
	"errors"
	"fmt"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"os"
	"sync"
	"time"
)

const defaultPoseEstimationURL = "ws://localhost:8000/api/v1/pose/ws"

var ErrEstimatorRejected = errors.New("pose estimator rejected frame")

// IWebsocket is a client for the external MoveNet inference service. Frames
// go out as binary JPEG messages; keypoints come back as JSON.
type IWebsocket interface {
	EstimatePose(ctx context.Context, frame []byte) (*entity.PoseEstimation, error)
	Name() string
	IsConnected() bool
	Reconnect() error
	CloseConnections()
}

type webSocketClient struct {
	url          string
	log          *logrus.Logger
	conn         *websocket.Conn
	done         chan struct{}
	mu           sync.Mutex
	reqMu        sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewPoseEstimationClient(log *logrus.Logger) IWebsocket {
	url := os.Getenv("AI_POSE_ESTIMATION_URL")
	if url == "" {
		url = defaultPoseEstimationURL
	}

	client := newClient(url, log)
	go client.connectInBackground()

	return client
}

func newClient(url string, log *logrus.Logger) *webSocketClient {
	return &webSocketClient{
		url:          url,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

func (c *webSocketClient) Name() string {
	return "movenet"
}

func (c *webSocketClient) connectInBackground() {
	if err := c.Reconnect(); err != nil {
		c.log.Warnf("Initial connection to pose estimator failed: %v. Will retry on demand.", err)
		return
	}
	c.log.Infof("Successfully connected to pose estimator at %s", c.url)
}

func (c *webSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *webSocketClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropLocked()

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Debugf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	c.done = make(chan struct{})
	go c.keepAlive(conn, c.done)

	return nil
}

func (c *webSocketClient) CloseConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

func (c *webSocketClient) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

// drop closes conn if it is still the active connection.
func (c *webSocketClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.dropLocked()
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout)); err != nil {
				c.log.Warnf("Ping to pose estimator failed, marking connection as dead: %v", err)
				c.drop(conn)
				return
			}
		}
	}
}

func (c *webSocketClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn, nil
	}

	if err := c.Reconnect(); err != nil {
		return nil, fmt.Errorf("cannot connect to pose estimator: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, errors.New("not connected to pose estimator")
	}
	return c.conn, nil
}

// EstimatePose sends one frame and waits for its keypoints. Requests are
// serialized over the single connection.
func (c *webSocketClient) EstimatePose(ctx context.Context, frame []byte) (*entity.PoseEstimation, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	conn, err := c.getConnection()
	if err != nil {
		return nil, err
	}

	conn.SetWriteDeadline(deadline(ctx, c.writeTimeout))
	c.log.Debugf("Sending pose frame of size: %d bytes", len(frame))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("error sending pose frame: %w", err)
	}

	conn.SetReadDeadline(deadline(ctx, c.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("error reading pose estimation: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var result entity.PoseEstimation
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling pose estimation: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrEstimatorRejected, result.Error)
	}

	c.log.Debugf("Pose estimator returned %d keypoints (%dx%d)", len(result.Keypoints), result.Width, result.Height)

	return &result, nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
