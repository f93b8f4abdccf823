package server

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"meadow/pkg/protocol"
)

// Connection 单个客户端连接的发送端（独立写协程）
type Connection struct {
	transport protocol.Transport
	log       *zap.SugaredLogger

	sendChan  chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

// newConnection 包装传输并启动写协程
func newConnection(transport protocol.Transport, log *zap.SugaredLogger) *Connection {
	c := &Connection{
		transport: transport,
		log:       log,
		sendChan:  make(chan []byte, 256),
		closed:    make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *Connection) writePump() {
	for {
		select {
		case <-c.closed:
			return
		case data := <-c.sendChan:
			if err := c.transport.WritePacket(data); err != nil {
				c.log.Debugw("写入失败", "addr", c.transport.RemoteAddr(), "err", err)
				c.Close()
				return
			}
		}
	}
}

// Send 非阻塞发送；队列满时丢弃（快照语义允许，下一份会替换）
func (c *Connection) Send(data []byte) error {
	select {
	case <-c.closed:
		return errors.New("连接已关闭")
	default:
	}
	select {
	case c.sendChan <- data:
		return nil
	default:
		return errors.New("发送队列满")
	}
}

// Read 阻塞读取一条消息
func (c *Connection) Read() ([]byte, error) {
	return c.transport.ReadPacket()
}

// Close 关闭连接
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.transport.Close()
	})
}
