package client

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"

	"meadow/pkg/core"
)

// KeyboardInput 键盘输入源：WASD/方向键移动，Shift 冲刺，
// 空格起跳，C 切换潜行
type KeyboardInput struct {
	prevJump   bool
	prevCrouch bool
}

// NewKeyboardInput 创建键盘输入源
func NewKeyboardInput() *KeyboardInput {
	return &KeyboardInput{}
}

// ReadInput 读取当前帧的移动输入（方向向量已归一化）
func (k *KeyboardInput) ReadInput() core.MoveInput {
	var dir mgl64.Vec2
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dir[1] -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dir[1] += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dir[0] -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dir[0] += 1
	}

	// 斜向归一化，避免斜向速度变快
	if dir[0] != 0 && dir[1] != 0 {
		dir = dir.Mul(0.70710678)
	}

	sprinting := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	return core.MoveInput{Direction: dir, Sprinting: sprinting}
}

// ConsumeJump 空格键上升沿
func (k *KeyboardInput) ConsumeJump() bool {
	now := ebiten.IsKeyPressed(ebiten.KeySpace)
	pressed := now && !k.prevJump
	k.prevJump = now
	return pressed
}

// ConsumeCrouchToggle C 键上升沿
func (k *KeyboardInput) ConsumeCrouchToggle() bool {
	now := ebiten.IsKeyPressed(ebiten.KeyC)
	pressed := now && !k.prevCrouch
	k.prevCrouch = now
	return pressed
}
