package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const (
	cacheKeyPrefix = "GET "
	cacheTTLKey    = "cache_ttl"
)

// LimitCacheTTL caps how long the current response may be cached. The
// shortest limit set during a request wins; a limit of zero or less keeps the
// response out of the cache.
func LimitCacheTTL(c *gin.Context, d time.Duration) {
	if cur, ok := c.Get(cacheTTLKey); ok && cur.(time.Duration) <= d {
		return
	}
	c.Set(cacheTTLKey, d)
}

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GET requests from memory for duration. Any
// successful non-GET request through the same middleware flushes the cache,
// so reads never outlive a write. Requests carrying a user header are keyed
// per user. Handlers shorten the lifetime with LimitCacheTTL.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			if status := c.Writer.Status(); status >= 200 && status < 300 {
				store.Flush()
			}
			return
		}

		key := cacheKeyPrefix + c.GetHeader(UserHeader) + " " + c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		ttl := duration
		if limit, ok := c.Get(cacheTTLKey); ok && limit.(time.Duration) < ttl {
			ttl = limit.(time.Duration)
		}
		if ttl > 0 && blw.Status() >= 200 && blw.Status() < 300 {
			store.Set(key, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}, ttl)
		}
	}
}
