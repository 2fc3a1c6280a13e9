package limiter

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// MethodLimiter 按 URI 前缀限流
type MethodLimiter struct {
	limiterBuckets map[string]*ratelimit.Bucket
}

// NewMethodLimiter 创建方法限流器
func NewMethodLimiter() Face {
	return &MethodLimiter{
		limiterBuckets: make(map[string]*ratelimit.Bucket),
	}
}

// Key 取 URI 的查询串之前部分作为限流键
func (l *MethodLimiter) Key(c *gin.Context) string {
	uri := c.Request.RequestURI
	index := strings.Index(uri, "?")
	if index == -1 {
		return uri
	}
	return uri[:index]
}

// GetBucket 前缀匹配获取令牌桶
func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	for prefix, bucket := range l.limiterBuckets {
		if strings.HasPrefix(key, prefix) {
			return bucket, true
		}
	}
	return nil, false
}

// AddBuckets 按规则添加令牌桶，支持链式调用
func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	for _, rule := range rules {
		if _, ok := l.limiterBuckets[rule.Key]; !ok {
			l.limiterBuckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, rule.Quantum)
		}
	}
	return l
}
