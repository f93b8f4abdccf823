package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxPacketSize 单条消息上限
const MaxPacketSize = 4096

// WriteFrame 写入长度前缀（4 字节大端）加数据体
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxPacketSize {
		return fmt.Errorf("消息过大 (%d bytes)", len(data))
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("写入长度失败: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("写入数据失败: %w", err)
	}
	return nil
}

// ReadFrame 读取一条长度前缀消息
func ReadFrame(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > MaxPacketSize {
		return nil, fmt.Errorf("消息过大 (%d bytes)", length)
	}
	if length == 0 {
		return nil, nil
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("读取数据失败: %w", err)
	}
	return data, nil
}
