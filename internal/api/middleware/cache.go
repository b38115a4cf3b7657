package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	contentType string
	body        []byte
}

// bodyRecorder 在写回客户端的同时保留响应体
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache 对 GET 请求的 200 响应按完整 URL 缓存 ttl 时长
// 仅用于统计类只读接口，数据允许短暂滞后
func ResponseCache(ttl time.Duration) gin.HandlerFunc {
	store := cache.New(ttl, 2*ttl)

	return func(c *gin.Context) {
		if ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := store.Get(key); ok {
			cached := v.(*cachedResponse)
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, cached.contentType, cached.body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if rec.Status() == http.StatusOK {
			store.Set(key, &cachedResponse{
				contentType: rec.Header().Get("Content-Type"),
				body:        append([]byte(nil), rec.buf.Bytes()...),
			}, cache.DefaultExpiration)
		}
	}
}
