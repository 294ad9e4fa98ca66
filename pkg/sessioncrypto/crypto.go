package sessioncrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// 密钥派生参数。salt是固定的应用级常量：
// 会话包只需要对传输不透明，不需要抵抗离线字典攻击。
const (
	keyLength  = 32
	iterations = 4096
)

var kdfSalt = []byte("nebula-session-v1")

var (
	ErrEmptyPassphrase = errors.New("sessioncrypto: 加密口令不能为空")
	ErrInvalidBlob     = errors.New("sessioncrypto: 无效的会话密文")
)

// Sealer 负责会话载荷的对称加密和解密。
// 服务器在签发后不再解读会话包，Open主要供测试和将来的校验使用。
type Sealer struct {
	key []byte
}

// NewSealer 从配置的口令派生一个AES-256密钥并创建Sealer。
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	key := pbkdf2.Key([]byte(passphrase), kdfSalt, iterations, keyLength, sha256.New)
	return &Sealer{key: key}, nil
}

// Seal 使用AES-GCM加密明文，返回base64编码的不透明字符串。
// 随机nonce被拼接在密文前面一起编码。
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open 解密一个由Seal产生的会话密文。
func (s *Sealer) Open(blob string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrInvalidBlob
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, ErrInvalidBlob
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidBlob
	}
	return plaintext, nil
}
