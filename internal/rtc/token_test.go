package rtc

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	packUint16(&buf, 0xBEEF)
	packUint32(&buf, 0xDEADBEEF)
	require.NoError(t, packString(&buf, "room-42"))

	set := NewPrivilegeSet()
	set.Grant(PrivilegeJoinChannel, 1700000000)
	set.Grant(PrivilegePublishAudio, 1700000000)
	packPrivileges(&buf, set)

	r := &reader{data: buf.Bytes()}

	u16, err := r.uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	u32, err := r.uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	s, err := r.str()
	require.NoError(t, err)
	assert.Equal(t, "room-42", s)

	decoded, err := r.privileges()
	require.NoError(t, err)
	assert.Equal(t, set.Entries(), decoded.Entries())
	assert.Zero(t, r.remaining())
}

func TestCodecLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	packUint16(&buf, 0x0102)
	packUint32(&buf, 0x01020304)
	assert.Equal(t, []byte{0x02, 0x01, 0x04, 0x03, 0x02, 0x01}, buf.Bytes())
}

func TestCodecTruncatedInput(t *testing.T) {
	r := &reader{data: []byte{0x01}}
	_, err := r.uint16()
	assert.Error(t, err)

	// Length prefix promises more bytes than the buffer holds.
	r = &reader{data: []byte{0x05, 0x00, 'a', 'b'}}
	_, err = r.str()
	assert.Error(t, err)
}

func TestBuildTokenPublisherFixedVector(t *testing.T) {
	const (
		appID       = "test-app-id"
		appCert     = "test-app-certificate"
		channelName = "room-42"
		uid         = uint32(0)
		expireAt    = uint32(1700003600)
		salt        = uint32(123456789)
		issuedAt    = uint32(1700000000)
	)

	token, err := BuildTokenAt(appID, appCert, channelName, uid, RolePublisher, expireAt, salt, issuedAt)
	require.NoError(t, err)
	require.True(t, len(token) > 3)
	assert.Equal(t, TokenVersion, token[:3])

	parsed, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, salt, parsed.Salt)
	assert.Equal(t, issuedAt, parsed.IssuedAt)

	require.Equal(t, 4, parsed.Privileges.Len())
	for _, kind := range []Privilege{
		PrivilegeJoinChannel,
		PrivilegePublishAudio,
		PrivilegePublishVideo,
		PrivilegePublishDataStream,
	} {
		assert.True(t, parsed.Privileges.Has(kind), "missing privilege %d", kind)
		assert.Equal(t, expireAt, parsed.Privileges.ExpireAt(kind))
	}

	// Recompute the signature from first principles: HMAC-SHA256 over
	// appID || channel || "0" || message with the certificate as key.
	var message bytes.Buffer
	packUint32(&message, salt)
	packUint32(&message, issuedAt)
	packPrivileges(&message, PrivilegesForRole(RolePublisher, expireAt))

	mac := hmac.New(sha256.New, []byte(appCert))
	mac.Write([]byte(appID + channelName + "0"))
	mac.Write(message.Bytes())
	expected := mac.Sum(nil)

	assert.Equal(t, expected, parsed.Signature)

	content, err := base64.StdEncoding.DecodeString(token[3:])
	require.NoError(t, err)
	want := append(append([]byte{}, expected...), message.Bytes()...)
	assert.Equal(t, want, content)
}

func TestBuildTokenSubscriberPrivileges(t *testing.T) {
	token, err := BuildTokenAt("app", "cert", "chan", 7, RoleSubscriber, 1700003600, 42, 1700000000)
	require.NoError(t, err)

	parsed, err := Parse(token)
	require.NoError(t, err)

	assert.Equal(t, 1, parsed.Privileges.Len())
	assert.True(t, parsed.Privileges.Has(PrivilegeJoinChannel))
	assert.False(t, parsed.Privileges.Has(PrivilegePublishAudio))
	assert.False(t, parsed.Privileges.Has(PrivilegePublishVideo))
	assert.False(t, parsed.Privileges.Has(PrivilegePublishDataStream))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := BuildTokenAt("app", "cert", "chan", 7, RolePublisher, 1700003600, 42, 1700000000)
	require.NoError(t, err)

	parsed, err := Parse(token)
	require.NoError(t, err)

	assert.True(t, Verify(parsed, "app", "cert", "chan", 7))
	assert.False(t, Verify(parsed, "app", "other-cert", "chan", 7))
	assert.False(t, Verify(parsed, "app", "cert", "other-chan", 7))
	assert.False(t, Verify(parsed, "app", "cert", "chan", 8))
}

func TestBuildTokenValidation(t *testing.T) {
	_, err := BuildToken("", "cert", "chan", 0, RolePublisher, 1700003600)
	assert.Error(t, err)

	_, err = BuildToken("app", "", "chan", 0, RolePublisher, 1700003600)
	assert.Error(t, err)

	_, err = BuildToken("app", "cert", "", 0, RolePublisher, 1700003600)
	assert.Error(t, err)
}

func TestBuildTokenRandomSalt(t *testing.T) {
	a, err := BuildToken("app", "cert", "chan", 1, RoleSubscriber, 1700003600)
	require.NoError(t, err)
	b, err := BuildToken("app", "cert", "chan", 1, RoleSubscriber, 1700003600)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("006abc")
	assert.Error(t, err)

	_, err = Parse("007!!!not-base64!!!")
	assert.Error(t, err)

	_, err = Parse("007" + base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}
