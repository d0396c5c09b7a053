package kucoin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"time"
)

const (
	headerKey        = "KC-API-KEY"
	headerSign       = "KC-API-SIGN"
	headerTimestamp  = "KC-API-TIMESTAMP"
	headerPassphrase = "KC-API-PASSPHRASE"
	headerKeyVersion = "KC-API-KEY-VERSION"

	keyVersion = "3"
)

// signer는 요청 서명 헤더를 생성합니다.
// 패스프레이즈는 생성 시 한 번만 해시합니다.
type signer struct {
	apiKey     string
	secret     []byte
	passphrase string
}

func newSigner(apiKey, apiSecret, passphrase string) *signer {
	s := &signer{
		apiKey: apiKey,
		secret: []byte(apiSecret),
	}
	s.passphrase = s.hmacBase64(passphrase)
	return s
}

// sign은 timestamp+method+path+body에 대한 base64(HMAC-SHA256) 서명을 반환합니다
func (s *signer) sign(timestamp, method, path, body string) string {
	return s.hmacBase64(timestamp + method + path + body)
}

func (s *signer) hmacBase64(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// headers는 요청마다 새 타임스탬프로 인증 헤더를 생성합니다
func (s *signer) headers(now time.Time, method, path, body string) http.Header {
	ts := strconv.FormatInt(now.UnixMilli(), 10)

	h := http.Header{}
	h.Set(headerKey, s.apiKey)
	h.Set(headerSign, s.sign(ts, method, path, body))
	h.Set(headerTimestamp, ts)
	h.Set(headerPassphrase, s.passphrase)
	h.Set(headerKeyVersion, keyVersion)
	h.Set("Content-Type", "application/json")
	return h
}
