package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	kcp "github.com/xtaci/kcp-go/v5"
	"go.uber.org/zap"

	"meadow/pkg/core"
	"meadow/pkg/protocol"
)

// NetworkClient 网络客户端
// 收发各一条 goroutine，消息经带缓冲通道交给模拟循环非阻塞消费
type NetworkClient struct {
	transport  protocol.Transport
	serverAddr string
	proto      string
	playerName string
	log        *zap.SugaredLogger

	// 会话信息
	playerID int32
	token    string
	spawn    mgl64.Vec2

	// 网络
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// 消息队列
	selfSnapChan    chan protocol.Snapshot
	remoteSnapChan  chan protocol.Snapshot
	joinAcceptChan  chan protocol.JoinAccept
	playerJoinChan  chan protocol.PlayerJoin
	playerLeaveChan chan int32
	pongChan        chan protocol.Pong

	// 发送队列
	sendChan chan []byte

	// 错误
	errChan chan error
}

// NewNetworkClient 创建网络客户端
func NewNetworkClient(serverAddr, proto, playerName string, log *zap.SugaredLogger) *NetworkClient {
	ctx, cancel := context.WithCancel(context.Background())

	return &NetworkClient{
		serverAddr:      serverAddr,
		proto:           proto,
		playerName:      playerName,
		log:             log,
		ctx:             ctx,
		cancel:          cancel,
		selfSnapChan:    make(chan protocol.Snapshot, 256),
		remoteSnapChan:  make(chan protocol.Snapshot, 256),
		joinAcceptChan:  make(chan protocol.JoinAccept, 1),
		playerJoinChan:  make(chan protocol.PlayerJoin, 16),
		playerLeaveChan: make(chan int32, 16),
		pongChan:        make(chan protocol.Pong, 4),
		sendChan:        make(chan []byte, 256),
		errChan:         make(chan error, 1),
	}
}

// Connect 连接服务器并完成加入握手
func (nc *NetworkClient) Connect() error {
	nc.log.Infow("连接服务器", "addr", nc.serverAddr, "proto", nc.proto)

	transport, err := nc.dial()
	if err != nil {
		return fmt.Errorf("连接服务器失败: %w", err)
	}

	nc.transport = transport
	nc.connected = true

	nc.wg.Add(1)
	go nc.receiveLoop()

	nc.wg.Add(1)
	go nc.sendLoop()

	// 发送加入请求；重连时携带上次会话的 token 以复用玩家 ID
	data, err := protocol.NewJoinRequest(nc.playerName, nc.token)
	if err != nil {
		nc.Close()
		return err
	}
	if err := nc.enqueue(data); err != nil {
		nc.Close()
		return fmt.Errorf("发送加入请求失败: %w", err)
	}

	// 等待服务器确认
	select {
	case accept := <-nc.joinAcceptChan:
		nc.playerID = accept.PlayerID
		nc.token = accept.Token
		nc.spawn = mgl64.Vec2{accept.SpawnX, accept.SpawnY}
		nc.log.Infow("加入成功", "player_id", nc.playerID)
		return nil

	case err := <-nc.errChan:
		nc.Close()
		return err

	case <-time.After(10 * time.Second):
		nc.Close()
		return errors.New("等待加入确认超时")
	}
}

func (nc *NetworkClient) dial() (protocol.Transport, error) {
	switch nc.proto {
	case "", "tcp":
		conn, err := net.DialTimeout("tcp", nc.serverAddr, 5*time.Second)
		if err != nil {
			return nil, err
		}
		// 禁用 Nagle 算法以减少延迟
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			tcpConn.SetNoDelay(true)
		}
		return protocol.NewStreamTransport(conn), nil
	case "kcp":
		conn, err := kcp.DialWithOptions(nc.serverAddr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		conn.SetStreamMode(true)
		return protocol.NewStreamTransport(conn), nil
	case "ws":
		wsConn, _, err := websocket.DefaultDialer.Dial("ws://"+nc.serverAddr+"/ws", nil)
		if err != nil {
			return nil, err
		}
		return protocol.NewWebSocketTransport(wsConn), nil
	default:
		return nil, fmt.Errorf("不支持的协议: %s", nc.proto)
	}
}

// Close 关闭连接
func (nc *NetworkClient) Close() {
	if !nc.connected {
		return
	}

	nc.connected = false
	nc.cancel()

	if nc.transport != nil {
		nc.transport.Close()
	}

	nc.wg.Wait()
	nc.log.Infow("网络客户端已关闭")
}

// PlayerID 本地玩家 ID
func (nc *NetworkClient) PlayerID() int32 {
	return nc.playerID
}

// Spawn 服务器指定的出生点
func (nc *NetworkClient) Spawn() mgl64.Vec2 {
	return nc.spawn
}

// IsConnected 是否已连接
func (nc *NetworkClient) IsConnected() bool {
	return nc.connected
}

// ========== 消息接收 ==========

func (nc *NetworkClient) receiveLoop() {
	defer nc.wg.Done()

	for {
		select {
		case <-nc.ctx.Done():
			return
		default:
		}

		data, err := nc.transport.ReadPacket()
		if err != nil {
			select {
			case nc.errChan <- fmt.Errorf("读取消息失败: %w", err):
			default:
			}
			return
		}
		if len(data) == 0 {
			continue
		}

		if err := nc.handleMessage(data); err != nil {
			nc.log.Warnw("处理消息失败", "err", err)
		}
	}
}

func (nc *NetworkClient) handleMessage(data []byte) error {
	pkt, err := protocol.Unmarshal(data)
	if err != nil {
		return err
	}

	switch pkt.Type {
	case protocol.TypeSnapshot:
		var snap protocol.Snapshot
		if err := pkt.Decode(&snap); err != nil {
			return err
		}
		if snap.PlayerID == nc.playerID {
			select {
			case nc.selfSnapChan <- snap:
			default:
				// 队列满，丢弃；下一份快照会整体替换
			}
		} else {
			select {
			case nc.remoteSnapChan <- snap:
			default:
			}
		}

	case protocol.TypeJoinAccept:
		var accept protocol.JoinAccept
		if err := pkt.Decode(&accept); err != nil {
			return err
		}
		select {
		case nc.joinAcceptChan <- accept:
		default:
		}

	case protocol.TypePlayerJoin:
		var join protocol.PlayerJoin
		if err := pkt.Decode(&join); err != nil {
			return err
		}
		select {
		case nc.playerJoinChan <- join:
		default:
		}

	case protocol.TypePlayerLeave:
		var leave protocol.PlayerLeave
		if err := pkt.Decode(&leave); err != nil {
			return err
		}
		select {
		case nc.playerLeaveChan <- leave.PlayerID:
		default:
		}

	case protocol.TypePong:
		var pong protocol.Pong
		if err := pkt.Decode(&pong); err != nil {
			return err
		}
		select {
		case nc.pongChan <- pong:
		default:
		}

	case protocol.TypeError:
		var msg protocol.ErrorMessage
		if err := pkt.Decode(&msg); err != nil {
			return err
		}
		nc.log.Warnw("服务器错误", "reason", msg.Reason)

	default:
		return fmt.Errorf("未知消息类型: %s", pkt.Type)
	}

	return nil
}

// ========== 消息发送 ==========

func (nc *NetworkClient) sendLoop() {
	defer nc.wg.Done()

	for {
		select {
		case <-nc.ctx.Done():
			return

		case data, ok := <-nc.sendChan:
			if !ok {
				return
			}
			if err := nc.transport.WritePacket(data); err != nil {
				nc.log.Warnw("发送数据失败", "err", err)
				return
			}
		}
	}
}

// enqueue 非阻塞入队；无连接或队列满时返回错误，由调用方决定丢弃
func (nc *NetworkClient) enqueue(data []byte) error {
	if !nc.connected {
		return errors.New("未连接")
	}
	select {
	case nc.sendChan <- data:
		return nil
	default:
		return errors.New("发送队列满")
	}
}

// SendStateReport 上报本地状态（发送即忘）
func (nc *NetworkClient) SendStateReport(report protocol.StateReport) error {
	data, err := protocol.NewStateReport(report)
	if err != nil {
		return err
	}
	return nc.enqueue(data)
}

// SendJump 上报起跳动作
func (nc *NetworkClient) SendJump(clientTimeMs uint64) error {
	data, err := protocol.NewJumpAction(clientTimeMs)
	if err != nil {
		return err
	}
	return nc.enqueue(data)
}

// SendCrouchToggle 上报潜行切换
func (nc *NetworkClient) SendCrouchToggle(crouching bool) error {
	data, err := protocol.NewCrouchToggle(crouching)
	if err != nil {
		return err
	}
	return nc.enqueue(data)
}

// SendPing 发送时延探测
func (nc *NetworkClient) SendPing(clientTimeMs int64) error {
	data, err := protocol.Marshal(protocol.TypePing, protocol.Ping{ClientTimeMs: clientTimeMs})
	if err != nil {
		return err
	}
	return nc.enqueue(data)
}

// ========== 非阻塞读取 ==========

// PollSnapshot 取一份本地玩家的权威快照
func (nc *NetworkClient) PollSnapshot() (AuthoritativeSnapshot, bool) {
	select {
	case snap := <-nc.selfSnapChan:
		return AuthoritativeSnapshot{
			Seq:      snap.Seq,
			Position: mgl64.Vec2{snap.X, snap.Y},
			Facing:   core.Facing(snap.Facing),
			Flags: core.ServerFlags{
				Crouching:   snap.Crouching,
				OnWater:     snap.OnWater,
				JumpStartMs: snap.JumpStartMs,
			},
		}, true
	default:
		return AuthoritativeSnapshot{}, false
	}
}

// PollRemoteSnapshot 取一份其他玩家的快照
func (nc *NetworkClient) PollRemoteSnapshot() (protocol.Snapshot, bool) {
	select {
	case snap := <-nc.remoteSnapChan:
		return snap, true
	default:
		return protocol.Snapshot{}, false
	}
}

// PollPlayerJoin 取一条玩家加入通知
func (nc *NetworkClient) PollPlayerJoin() (protocol.PlayerJoin, bool) {
	select {
	case join := <-nc.playerJoinChan:
		return join, true
	default:
		return protocol.PlayerJoin{}, false
	}
}

// PollPlayerLeave 取一条玩家离开通知
func (nc *NetworkClient) PollPlayerLeave() (int32, bool) {
	select {
	case id := <-nc.playerLeaveChan:
		return id, true
	default:
		return 0, false
	}
}

// PollPong 取一条时延探测应答
func (nc *NetworkClient) PollPong() (protocol.Pong, bool) {
	select {
	case pong := <-nc.pongChan:
		return pong, true
	default:
		return protocol.Pong{}, false
	}
}
