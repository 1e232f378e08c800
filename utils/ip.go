package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// NormalizeIP strips the IPv4-mapped IPv6 prefix (::ffff:1.2.3.4 -> 1.2.3.4)
// and IPv6 zones. Values that do not parse are returned trimmed but unchanged.
func NormalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		// ::ffff: followed by something ParseAddr rejects still gets stripped.
		if rest, ok := strings.CutPrefix(strings.ToLower(raw), "::ffff:"); ok {
			return rest
		}
		return raw
	}
	return addr.Unmap().WithZone("").String()
}

// PeerIP returns the normalized host part of a RemoteAddr ("host:port").
func PeerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return NormalizeIP(strings.Trim(host, "[]"))
}

// ClientIP 클라이언트 IP 추출
// 프록시 헤더는 trustProxy가 설정된 경우에만 사용한다.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Forwarded-For 헤더 확인 (프록시 환경)
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := NormalizeIP(first); ip != "" {
				return ip
			}
		}

		// X-Real-IP 헤더 확인
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return NormalizeIP(xri)
		}
	}

	return PeerIP(r.RemoteAddr)
}
