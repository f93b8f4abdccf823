package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	kcp "github.com/xtaci/kcp-go/v5"

	"meadow/pkg/protocol"
)

// ServerListener 按传输协议抽象的接入端
type ServerListener interface {
	Accept() (protocol.Transport, error)
	Close() error
	Addr() net.Addr
}

func newListener(proto, addr string) (ServerListener, error) {
	switch proto {
	case "", "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		return &tcpListener{listener: listener}, nil
	case "kcp":
		listener, err := kcp.ListenWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		return &kcpListener{listener: listener}, nil
	case "ws":
		return newWSListener(addr)
	default:
		return nil, fmt.Errorf("不支持的协议: %s", proto)
	}
}

type tcpListener struct {
	listener net.Listener
}

func (l *tcpListener) Accept() (protocol.Transport, error) {
	conn, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}
	// 开启 TCP_NODELAY，禁用 Nagle 算法以减少延迟
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	return protocol.NewStreamTransport(conn), nil
}

func (l *tcpListener) Close() error {
	return l.listener.Close()
}

func (l *tcpListener) Addr() net.Addr {
	return l.listener.Addr()
}

type kcpListener struct {
	listener *kcp.Listener
}

func (l *kcpListener) Accept() (protocol.Transport, error) {
	session, err := l.listener.AcceptKCP()
	if err != nil {
		return nil, err
	}
	session.SetStreamMode(true)
	return protocol.NewStreamTransport(session), nil
}

func (l *kcpListener) Close() error {
	return l.listener.Close()
}

func (l *kcpListener) Addr() net.Addr {
	return l.listener.Addr()
}

// wsListener HTTP 升级后的 websocket 接入
type wsListener struct {
	httpServer *http.Server
	netLn      net.Listener
	conns      chan protocol.Transport
	closed     chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  protocol.MaxPacketSize,
	WriteBufferSize: protocol.MaxPacketSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func newWSListener(addr string) (*wsListener, error) {
	netLn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	l := &wsListener{
		netLn:  netLn,
		conns:  make(chan protocol.Transport, 16),
		closed: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case l.conns <- protocol.NewWebSocketTransport(wsConn):
		case <-l.closed:
			wsConn.Close()
		}
	})

	l.httpServer = &http.Server{Handler: mux}
	go l.httpServer.Serve(netLn)

	return l, nil
}

func (l *wsListener) Accept() (protocol.Transport, error) {
	select {
	case t := <-l.conns:
		return t, nil
	case <-l.closed:
		return nil, errors.New("监听器已关闭")
	}
}

func (l *wsListener) Close() error {
	close(l.closed)
	return l.httpServer.Close()
}

func (l *wsListener) Addr() net.Addr {
	return l.netLn.Addr()
}
