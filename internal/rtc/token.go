// Package rtc builds and parses the versioned access tokens consumed by the
// real-time media provider at channel join. A token is the fixed "007"
// version tag followed by base64(signature || message), where message is
// salt || issue-time || privilege map and the signature is an HMAC-SHA256
// over appID || channelName || decimal(uid) || message keyed with the app
// certificate.
package rtc

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// TokenVersion tags the wire format; consumers branch on it.
const TokenVersion = "007"

const signatureSize = sha256.Size

// Token is the decoded form of an access token. It is never persisted; the
// caller hands the encoded string to the media provider and discards it.
type Token struct {
	Version    string
	Signature  []byte
	Salt       uint32
	IssuedAt   uint32
	Privileges *PrivilegeSet
}

// BuildToken mints a token with a random salt and the current wall clock.
func BuildToken(appID, appCertificate, channelName string, uid uint32, role Role, expireAt uint32) (string, error) {
	salt, err := randomSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	issuedAt := uint32(time.Now().Unix())
	return buildToken(appID, appCertificate, channelName, uid, role, expireAt, salt, issuedAt)
}

// BuildTokenAt mints a token with a caller-supplied salt and issue time.
// Deterministic; exists so signatures can be verified against fixed vectors.
func BuildTokenAt(appID, appCertificate, channelName string, uid uint32, role Role, expireAt, salt, issuedAt uint32) (string, error) {
	return buildToken(appID, appCertificate, channelName, uid, role, expireAt, salt, issuedAt)
}

func buildToken(appID, appCertificate, channelName string, uid uint32, role Role, expireAt, salt, issuedAt uint32) (string, error) {
	if appID == "" || appCertificate == "" {
		return "", fmt.Errorf("app credentials are required")
	}
	if channelName == "" {
		return "", fmt.Errorf("channel name is required")
	}

	var message bytes.Buffer
	packUint32(&message, salt)
	packUint32(&message, issuedAt)
	packPrivileges(&message, PrivilegesForRole(role, expireAt))

	signature := Sign(appID, appCertificate, channelName, uid, message.Bytes())

	content := make([]byte, 0, len(signature)+message.Len())
	content = append(content, signature...)
	content = append(content, message.Bytes()...)

	return TokenVersion + base64.StdEncoding.EncodeToString(content), nil
}

// Sign computes the HMAC-SHA256 token signature. The signing input is the
// plain concatenation appID || channelName || decimal(uid) || message, so
// the uid must render as its canonical base-10 string.
func Sign(appID, appCertificate, channelName string, uid uint32, message []byte) []byte {
	mac := hmac.New(sha256.New, []byte(appCertificate))
	mac.Write([]byte(appID))
	mac.Write([]byte(channelName))
	mac.Write([]byte(strconv.FormatUint(uint64(uid), 10)))
	mac.Write(message)
	return mac.Sum(nil)
}

// Verify recomputes the signature for a parsed token and compares it in
// constant time.
func Verify(tok *Token, appID, appCertificate, channelName string, uid uint32) bool {
	var message bytes.Buffer
	packUint32(&message, tok.Salt)
	packUint32(&message, tok.IssuedAt)
	packPrivileges(&message, tok.Privileges)
	expected := Sign(appID, appCertificate, channelName, uid, message.Bytes())
	return hmac.Equal(expected, tok.Signature)
}

// Parse decodes a token string back into its parts. It does not check the
// signature; pair it with Verify.
func Parse(token string) (*Token, error) {
	if len(token) < len(TokenVersion) || token[:len(TokenVersion)] != TokenVersion {
		return nil, fmt.Errorf("unsupported token version")
	}
	content, err := base64.StdEncoding.DecodeString(token[len(TokenVersion):])
	if err != nil {
		return nil, fmt.Errorf("decode token body: %w", err)
	}
	if len(content) < signatureSize+8 {
		return nil, fmt.Errorf("token body too short: %d bytes", len(content))
	}

	r := &reader{data: content[signatureSize:]}
	salt, err := r.uint32()
	if err != nil {
		return nil, err
	}
	issuedAt, err := r.uint32()
	if err != nil {
		return nil, err
	}
	privileges, err := r.privileges()
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after privilege map", r.remaining())
	}

	return &Token{
		Version:    TokenVersion,
		Signature:  content[:signatureSize],
		Salt:       salt,
		IssuedAt:   issuedAt,
		Privileges: privileges,
	}, nil
}

func randomSalt() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
