package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SecurityHeaders はセキュリティ関連のレスポンスヘッダを付与する
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-XSS-Protection", "0")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; frame-ancestors 'none'")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// RateLimiter は IP 単位のスライディングウィンドウ方式レートリミッタ。
// リセットコード送信のような高コストなエンドポイントの前段に置く。
type RateLimiter struct {
	limit  int
	window time.Duration

	mu       sync.Mutex
	requests map[string][]time.Time
	sweepAt  time.Time
}

// NewRateLimiter は 1 分あたり limit 回まで許可するリミッタを生成する
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   time.Minute,
		requests: make(map[string][]time.Time),
		sweepAt:  time.Now().Add(5 * time.Minute),
	}
}

// allow は IP の現在ウィンドウ内のリクエスト数を数え、超過していれば
// 待ち時間を返す。通過時はタイムスタンプを記録する。
func (rl *RateLimiter) allow(ip string, now time.Time) (time.Duration, bool) {
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := rl.requests[ip][:0]
	for _, ts := range rl.requests[ip] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[ip] = kept
		return kept[0].Add(rl.window).Sub(now), false
	}

	rl.requests[ip] = append(kept, now)
	if now.After(rl.sweepAt) {
		rl.sweep(cutoff, now)
	}
	return 0, true
}

// sweep はウィンドウ外のエントリしか残っていない IP をまとめて削除する。
// バックグラウンド goroutine を持たないため、リクエスト経路で間引く。
func (rl *RateLimiter) sweep(cutoff, now time.Time) {
	for ip, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.requests, ip)
		}
	}
	rl.sweepAt = now.Add(5 * time.Minute)
}

// Middleware はリミットを超えたリクエストに 429 を返す
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		retryAfter, ok := rl.allow(clientIP(r), time.Now())
		if !ok {
			secs := int(retryAfter.Seconds()) + 1
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeMessage(w, http.StatusTooManyRequests, "Trop de requêtes. Réessayez plus tard.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP はクライアント IP を取り出す。リバースプロキシ (nginx) 1 段を
// 前提に、X-Forwarded-For はプロキシが付けた末尾のエントリのみ信用する。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[len(parts)-1])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
