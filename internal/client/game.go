package client

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"meadow/pkg/core"
)

// 窗口配置
const (
	ScreenWidth  = 960
	ScreenHeight = 540
)

// pingInterval 时延探测周期
const pingInterval = 2 * time.Second

var hudFont = text.NewGoXFace(basicfont.Face7x13)

// Game 游戏主结构（Ebiten 游戏循环）
// 驱动本地角色的每帧编排，并绘制世界、远端玩家与 HUD
type Game struct {
	avatar  *Avatar
	network *NetworkClient
	diag    *Diagnostics

	remotes map[int32]*RemoteAvatar

	// 服务器时间估算：最近快照的服务器时间 + 本地流逝
	lastServerTimeMs int64
	lastServerTimeAt time.Time

	// 往返时延（HUD 展示）
	lastPingAt time.Time
	rttMs      int64
}

// NewGame 创建游戏
func NewGame(avatar *Avatar, network *NetworkClient, diag *Diagnostics) *Game {
	return &Game{
		avatar:  avatar,
		network: network,
		diag:    diag,
		remotes: make(map[int32]*RemoteAvatar),
	}
}

// Update 每帧更新
func (g *Game) Update() error {
	now := time.Now()

	// 本地角色：输入 → 模拟 → 纠偏 → 上行 → 诊断
	g.avatar.Tick(now)

	g.syncRemotes(now)
	g.pollLatency(now)
	return nil
}

// pollLatency 周期性发送时延探测并消化应答
func (g *Game) pollLatency(now time.Time) {
	if now.Sub(g.lastPingAt) >= pingInterval {
		g.lastPingAt = now
		_ = g.network.SendPing(now.UnixMilli())
	}
	for {
		pong, ok := g.network.PollPong()
		if !ok {
			break
		}
		g.rttMs = now.UnixMilli() - pong.ClientTimeMs
	}
}

// syncRemotes 消化远端玩家的快照与加入/离开通知
func (g *Game) syncRemotes(now time.Time) {
	for {
		join, ok := g.network.PollPlayerJoin()
		if !ok {
			break
		}
		if _, exists := g.remotes[join.PlayerID]; !exists {
			g.remotes[join.PlayerID] = NewRemoteAvatar(join.PlayerID, join.Name)
		}
	}

	for {
		id, ok := g.network.PollPlayerLeave()
		if !ok {
			break
		}
		delete(g.remotes, id)
	}

	for {
		snap, ok := g.network.PollRemoteSnapshot()
		if !ok {
			break
		}
		remote, exists := g.remotes[snap.PlayerID]
		if !exists {
			remote = NewRemoteAvatar(snap.PlayerID, "")
			g.remotes[snap.PlayerID] = remote
		}
		remote.AddSample(snap.ServerTimeMs, snap.X, snap.Y, core.Facing(snap.Facing))
		if snap.ServerTimeMs > g.lastServerTimeMs {
			g.lastServerTimeMs = snap.ServerTimeMs
			g.lastServerTimeAt = now
		}
	}

	serverTime := g.estimatedServerTimeMs(now)
	for _, remote := range g.remotes {
		remote.Update(serverTime)
	}
}

func (g *Game) estimatedServerTimeMs(now time.Time) int64 {
	if g.lastServerTimeMs == 0 {
		return 0
	}
	return g.lastServerTimeMs + now.Sub(g.lastServerTimeAt).Milliseconds()
}

// Draw 绘制游戏画面
func (g *Game) Draw(screen *ebiten.Image) {
	view := g.avatar.View()

	// 相机跟随本地角色
	camX := view.Position[0] - ScreenWidth/2
	camY := view.Position[1] - ScreenHeight/2

	// 草地
	screen.Fill(color.RGBA{58, 110, 52, 255})

	// 世界边界外侧
	drawWorldBounds(screen, camX, camY)

	// 河道
	for _, band := range core.RiverBands {
		x := float32(band.MinX - camX)
		w := float32(band.MaxX - band.MinX)
		vector.DrawFilledRect(screen, x, 0, w, ScreenHeight, color.RGBA{52, 86, 140, 255}, false)
	}

	// 远端玩家
	for _, remote := range g.remotes {
		x := float32(remote.Position[0] - camX)
		y := float32(remote.Position[1] - camY)
		vector.DrawFilledCircle(screen, x, y, core.AvatarRadius, color.RGBA{200, 160, 70, 255}, true)
		if remote.Name != "" {
			drawText(screen, int(x)-len(remote.Name)*3, int(y)-28, remote.Name, color.White)
		}
	}

	// 本地角色：纠偏进行中换色提示
	avatarColor := color.RGBA{230, 230, 230, 255}
	if view.Correcting {
		avatarColor = color.RGBA{235, 120, 100, 255}
	}
	radius := float32(core.AvatarRadius)
	if view.Crouching {
		radius *= 0.75
	}
	vector.DrawFilledCircle(screen, ScreenWidth/2, ScreenHeight/2, radius, avatarColor, true)

	g.drawHUD(screen, view)
}

func drawWorldBounds(screen *ebiten.Image, camX, camY float64) {
	edge := color.RGBA{30, 40, 30, 255}
	// 左/右/上/下边界外的暗色区域
	if camX < 0 {
		vector.DrawFilledRect(screen, 0, 0, float32(-camX), ScreenHeight, edge, false)
	}
	if right := core.WorldSize - camX; right < ScreenWidth {
		vector.DrawFilledRect(screen, float32(right), 0, ScreenWidth-float32(right), ScreenHeight, edge, false)
	}
	if camY < 0 {
		vector.DrawFilledRect(screen, 0, 0, ScreenWidth, float32(-camY), edge, false)
	}
	if bottom := core.WorldSize - camY; bottom < ScreenHeight {
		vector.DrawFilledRect(screen, 0, float32(bottom), ScreenWidth, ScreenHeight-float32(bottom), edge, false)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image, view AvatarView) {
	line := fmt.Sprintf("pos (%.0f, %.0f)  facing %s", view.Position[0], view.Position[1], view.Facing)
	drawText(screen, 8, 16, line, color.White)

	flags := ""
	if view.Crouching {
		flags += "[crouch] "
	}
	if view.OnWater {
		flags += "[water] "
	}
	if view.Correcting {
		flags += "[correcting] "
	}
	if flags != "" {
		drawText(screen, 8, 32, flags, color.RGBA{255, 220, 120, 255})
	}

	stats := g.diag.Stats()
	diagLine := fmt.Sprintf("rtt %dms  cycles %d  sent %d  rejected %d  spikes %d", g.rttMs, stats.Cycles, stats.Sent, stats.Rejected, stats.LagSpikes)
	drawText(screen, 8, ScreenHeight-8, diagLine, color.RGBA{180, 190, 200, 255})
}

func drawText(screen *ebiten.Image, x, y int, msg string, clr color.Color) {
	options := &text.DrawOptions{}
	options.GeoM.Translate(float64(x), float64(y))
	options.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, msg, hudFont, options)
}

// Layout 设置屏幕布局
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}
