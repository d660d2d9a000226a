package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应，body 形如 {"error": "..."}
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// StatusForError 按错误类型映射 HTTP 状态码：上游失败为 502，其余（存储、配置等）为 500。
func StatusForError(err error) int {
	if apperr.IsUpstream(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
