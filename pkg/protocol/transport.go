package protocol

import (
	"net"

	"github.com/gorilla/websocket"
)

// Transport 按条收发消息的传输抽象
// tcp/kcp 用长度前缀切分字节流，websocket 自带消息边界
type Transport interface {
	ReadPacket() ([]byte, error)
	WritePacket(data []byte) error
	Close() error
	RemoteAddr() net.Addr
}

// streamTransport 基于 net.Conn 的流式传输（tcp/kcp）
type streamTransport struct {
	conn net.Conn
}

// NewStreamTransport 包装一个字节流连接
func NewStreamTransport(conn net.Conn) Transport {
	return &streamTransport{conn: conn}
}

func (t *streamTransport) ReadPacket() ([]byte, error) {
	return ReadFrame(t.conn)
}

func (t *streamTransport) WritePacket(data []byte) error {
	return WriteFrame(t.conn, data)
}

func (t *streamTransport) Close() error {
	return t.conn.Close()
}

func (t *streamTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

// wsTransport 基于 websocket 的消息传输
type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport 包装一个 websocket 连接
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadPacket() ([]byte, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) WritePacket(data []byte) error {
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}
