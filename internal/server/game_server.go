package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"meadow/pkg/protocol"
)

// joinTimeout 连接建立后等待加入请求的时限
const joinTimeout = 10 * time.Second

// GameServer 开发联调用的服务器
// 接受连接、签发会话 Token、消化状态上报并按固定频率广播快照
type GameServer struct {
	addr  string
	proto string
	log   *zap.SugaredLogger

	listener ServerListener
	world    *World

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGameServer 创建服务器
func NewGameServer(addr, proto string, log *zap.SugaredLogger) *GameServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &GameServer{
		addr:   addr,
		proto:  proto,
		log:    log,
		world:  NewWorld(log),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 监听并进入接入循环（阻塞）
func (s *GameServer) Start() error {
	listener, err := newListener(s.proto, s.addr)
	if err != nil {
		return fmt.Errorf("监听失败: %w", err)
	}
	s.listener = listener
	s.world.StartTicker(s.ctx)

	s.log.Infow("服务器启动", "addr", listener.Addr(), "proto", s.proto)

	for {
		transport, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
				return fmt.Errorf("接受连接失败: %w", err)
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(transport)
		}()
	}
}

// Shutdown 停止服务器
func (s *GameServer) Shutdown() {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	s.log.Infow("服务器已关闭")
}

// handleConn 单连接生命周期：握手 → 读循环 → 清理
func (s *GameServer) handleConn(transport protocol.Transport) {
	conn := newConnection(transport, s.log)

	playerID, err := s.handshake(conn)
	if err != nil {
		s.log.Warnw("握手失败", "addr", transport.RemoteAddr(), "err", err)
		if data, nErr := protocol.NewError(err.Error()); nErr == nil {
			_ = conn.Send(data)
		}
		conn.Close()
		return
	}

	defer func() {
		s.world.Leave(playerID)
		conn.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		data, err := conn.Read()
		if err != nil {
			return
		}
		if len(data) == 0 {
			continue
		}
		if err := s.dispatch(conn, playerID, data); err != nil {
			s.log.Debugw("处理消息失败", "player_id", playerID, "err", err)
		}
	}
}

// handshake 等待加入请求并签发会话 Token
func (s *GameServer) handshake(conn *Connection) (int32, error) {
	type readResult struct {
		data []byte
		err  error
	}
	resultChan := make(chan readResult, 1)
	go func() {
		data, err := conn.Read()
		resultChan <- readResult{data: data, err: err}
	}()

	var data []byte
	select {
	case res := <-resultChan:
		if res.err != nil {
			return 0, res.err
		}
		data = res.data
	case <-time.After(joinTimeout):
		return 0, errors.New("等待加入请求超时")
	}

	pkt, err := protocol.Unmarshal(data)
	if err != nil {
		return 0, err
	}
	if pkt.Type != protocol.TypeJoinRequest {
		return 0, fmt.Errorf("首条消息必须是加入请求，收到 %s", pkt.Type)
	}

	var req protocol.JoinRequest
	if err := pkt.Decode(&req); err != nil {
		return 0, err
	}

	// 重连时携带 token，校验通过即复用原 ID；否则按新玩家处理
	var rejoinID int32
	if req.Token != "" {
		if id, vErr := VerifySessionToken(req.Token); vErr == nil {
			rejoinID = id
		} else {
			s.log.Warnw("重连 token 无效", "err", vErr)
		}
	}

	name := req.Name
	if name == "" {
		name = "wanderer"
	}
	var (
		playerID int32
		spawn    mgl64.Vec2
	)
	if rejoinID > 0 {
		playerID, spawn, err = s.world.Rejoin(rejoinID, name, conn)
	} else {
		playerID, spawn, err = s.world.Join(name, conn)
	}
	if err != nil {
		return 0, err
	}

	token, err := GenerateSessionToken(playerID)
	if err != nil {
		s.world.Leave(playerID)
		return 0, fmt.Errorf("签发会话 token 失败: %w", err)
	}

	accept, err := protocol.NewJoinAccept(protocol.JoinAccept{
		PlayerID:     playerID,
		Token:        token,
		SpawnX:       spawn[0],
		SpawnY:       spawn[1],
		ServerTimeMs: time.Now().UnixMilli(),
	})
	if err != nil {
		s.world.Leave(playerID)
		return 0, err
	}
	if err := conn.Send(accept); err != nil {
		s.world.Leave(playerID)
		return 0, err
	}

	return playerID, nil
}

// dispatch 路由一条客户端消息
func (s *GameServer) dispatch(conn *Connection, playerID int32, data []byte) error {
	pkt, err := protocol.Unmarshal(data)
	if err != nil {
		return err
	}

	switch pkt.Type {
	case protocol.TypeStateReport:
		var report protocol.StateReport
		if err := pkt.Decode(&report); err != nil {
			return err
		}
		s.world.HandleReport(playerID, report)

	case protocol.TypeJumpAction:
		var jump protocol.JumpAction
		if err := pkt.Decode(&jump); err != nil {
			return err
		}
		s.world.HandleJump(playerID)

	case protocol.TypeCrouchToggle:
		var toggle protocol.CrouchToggle
		if err := pkt.Decode(&toggle); err != nil {
			return err
		}
		s.world.HandleCrouch(playerID, toggle.Crouching)

	case protocol.TypePing:
		var ping protocol.Ping
		if err := pkt.Decode(&ping); err != nil {
			return err
		}
		pong, err := protocol.Marshal(protocol.TypePong, protocol.Pong{
			ClientTimeMs: ping.ClientTimeMs,
			ServerTimeMs: time.Now().UnixMilli(),
		})
		if err != nil {
			return err
		}
		return conn.Send(pong)

	default:
		return fmt.Errorf("未知消息类型: %s", pkt.Type)
	}

	return nil
}
