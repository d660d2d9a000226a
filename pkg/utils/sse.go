package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SendSSEChunk 发送Server-Sent Events数据块。写入失败（通常是客户端断开）时返回错误。
func SendSSEChunk(w http.ResponseWriter, flusher http.Flusher, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}

	if _, err := w.Write([]byte("data: ")); err != nil {
		return fmt.Errorf("write sse prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write sse payload: %w", err)
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return fmt.Errorf("write sse terminator: %w", err)
	}
	flusher.Flush()
	return nil
}

// SetupSSEHeaders 设置Server-Sent Events响应头
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
